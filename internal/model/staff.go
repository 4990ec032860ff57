package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Staff struct {
	Base
	SoftDelete
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	Gender         string     `db:"gender" json:"gender,omitempty"`
	Designation    string     `db:"designation" json:"designation,omitempty"`
	Department     string     `db:"department" json:"department,omitempty"`
	DateOfJoining  *time.Time `db:"date_of_joining" json:"date_of_joining,omitempty"`
	PasswordHash   *string    `db:"password_hash" json:"-"`
	Doctor         *Doctor    `db:"-" json:"doctor,omitempty"`
}

func (s *Staff) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Doctor extends a staff row with clinical details.
type Doctor struct {
	StaffID         uuid.UUID       `db:"staff_id" json:"staff_id"`
	Specializations pq.StringArray  `db:"specializations" json:"specializations"`
	Qualification   string          `db:"qualification" json:"qualification,omitempty"`
	ConsultationFee decimal.Decimal `db:"consultation_fee" json:"consultation_fee"`
}

type DoctorRequest struct {
	Specializations []string        `json:"specializations" binding:"omitempty,dive,required,max=100"`
	Qualification   string          `json:"qualification" binding:"max=200"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
}

type CreateStaffRequest struct {
	FirstName     string         `json:"first_name" binding:"required,max=100"`
	LastName      string         `json:"last_name" binding:"max=100"`
	Email         string         `json:"email" binding:"required,email"`
	Phone         string         `json:"phone" binding:"omitempty,phone"`
	Gender        string         `json:"gender" binding:"omitempty,oneof=male female other"`
	Designation   string         `json:"designation" binding:"max=100"`
	Department    string         `json:"department" binding:"max=100"`
	DateOfJoining *time.Time     `json:"date_of_joining"`
	Password      string         `json:"password" binding:"omitempty,min=8"`
	Doctor        *DoctorRequest `json:"doctor"`
}

type UpdateStaffRequest struct {
	FirstName     *string        `json:"first_name" binding:"omitempty,max=100"`
	LastName      *string        `json:"last_name" binding:"omitempty,max=100"`
	Email         *string        `json:"email" binding:"omitempty,email"`
	Phone         *string        `json:"phone" binding:"omitempty,phone"`
	Gender        *string        `json:"gender" binding:"omitempty,oneof=male female other"`
	Designation   *string        `json:"designation" binding:"omitempty,max=100"`
	Department    *string        `json:"department" binding:"omitempty,max=100"`
	DateOfJoining *time.Time     `json:"date_of_joining"`
	Doctor        *DoctorRequest `json:"doctor"`
}

// Apply copies the set fields onto s. A doctor block replaces the existing
// doctor details entirely.
func (r *UpdateStaffRequest) Apply(s *Staff) {
	if r.FirstName != nil {
		s.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		s.LastName = *r.LastName
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.Phone != nil {
		s.Phone = *r.Phone
	}
	if r.Gender != nil {
		s.Gender = *r.Gender
	}
	if r.Designation != nil {
		s.Designation = *r.Designation
	}
	if r.Department != nil {
		s.Department = *r.Department
	}
	if r.DateOfJoining != nil {
		s.DateOfJoining = r.DateOfJoining
	}
	if r.Doctor != nil {
		s.Doctor = r.Doctor.toDoctor(s.ID)
	}
}

func (r *DoctorRequest) toDoctor(staffID uuid.UUID) *Doctor {
	specs := make(pq.StringArray, 0, len(r.Specializations))
	specs = append(specs, r.Specializations...)
	return &Doctor{
		StaffID:         staffID,
		Specializations: specs,
		Qualification:   r.Qualification,
		ConsultationFee: r.ConsultationFee,
	}
}

// NewStaff builds the staff row (and doctor extension) for a create request.
func (r *CreateStaffRequest) NewStaff(orgID uuid.UUID) *Staff {
	s := &Staff{
		Base:           Base{ID: uuid.New()},
		OrganizationID: orgID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Gender:         r.Gender,
		Designation:    r.Designation,
		Department:     r.Department,
		DateOfJoining:  r.DateOfJoining,
	}
	if r.Doctor != nil {
		s.Doctor = r.Doctor.toDoctor(s.ID)
	}
	return s
}

type StaffFilter struct {
	ListFilter
	DoctorsOnly bool `form:"doctors_only"`
}
