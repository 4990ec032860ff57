package model

// OrgMode decides whether the organization is run as a hospital with many
// doctors or as a single practice.
type OrgMode string

const (
	OrgModeHospitalFirst OrgMode = "hospital_first"
	OrgModeDoctorFirst   OrgMode = "doctor_first"
)

type Organization struct {
	Base
	Name    string  `db:"name" json:"name"`
	Address string  `db:"address" json:"address"`
	Phone   string  `db:"phone" json:"phone"`
	Email   string  `db:"email" json:"email"`
	OrgMode OrgMode `db:"org_mode" json:"org_mode"`
	LogoURL string  `db:"logo_url" json:"logo_url,omitempty"`
}

type CreateOrganizationRequest struct {
	Name    string  `json:"name" binding:"required,max=200"`
	Address string  `json:"address" binding:"max=500"`
	Phone   string  `json:"phone" binding:"omitempty,phone"`
	Email   string  `json:"email" binding:"omitempty,email"`
	OrgMode OrgMode `json:"org_mode" binding:"omitempty,oneof=hospital_first doctor_first"`
	LogoURL string  `json:"logo_url" binding:"omitempty,url"`
}

// UpdateOrganizationRequest backs both the organization update and the
// clinic profile form.
type UpdateOrganizationRequest struct {
	Name    *string  `json:"name" binding:"omitempty,max=200"`
	Address *string  `json:"address" binding:"omitempty,max=500"`
	Phone   *string  `json:"phone" binding:"omitempty,phone"`
	Email   *string  `json:"email" binding:"omitempty,email"`
	OrgMode *OrgMode `json:"org_mode" binding:"omitempty,oneof=hospital_first doctor_first"`
	LogoURL *string  `json:"logo_url" binding:"omitempty,url"`
}

// Apply copies the set fields onto org.
func (r *UpdateOrganizationRequest) Apply(org *Organization) {
	if r.Name != nil {
		org.Name = *r.Name
	}
	if r.Address != nil {
		org.Address = *r.Address
	}
	if r.Phone != nil {
		org.Phone = *r.Phone
	}
	if r.Email != nil {
		org.Email = *r.Email
	}
	if r.OrgMode != nil {
		org.OrgMode = *r.OrgMode
	}
	if r.LogoURL != nil {
		org.LogoURL = *r.LogoURL
	}
}
