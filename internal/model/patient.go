package model

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	Base
	SoftDelete
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Gender         string     `db:"gender" json:"gender,omitempty"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone          string     `db:"phone" json:"phone"`
	Email          string     `db:"email" json:"email,omitempty"`
	Address        string     `db:"address" json:"address,omitempty"`
	BloodGroup     string     `db:"blood_group" json:"blood_group,omitempty"`
}

func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type CreatePatientRequest struct {
	FirstName   string     `json:"first_name" binding:"required,max=100"`
	LastName    string     `json:"last_name" binding:"max=100"`
	Gender      string     `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Phone       string     `json:"phone" binding:"required,phone"`
	Email       string     `json:"email" binding:"omitempty,email"`
	Address     string     `json:"address" binding:"max=500"`
	BloodGroup  string     `json:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

func (r *CreatePatientRequest) NewPatient(orgID uuid.UUID) *Patient {
	return &Patient{
		Base:           Base{ID: uuid.New()},
		OrganizationID: orgID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Gender:         r.Gender,
		DateOfBirth:    r.DateOfBirth,
		Phone:          r.Phone,
		Email:          r.Email,
		Address:        r.Address,
		BloodGroup:     r.BloodGroup,
	}
}

type UpdatePatientRequest struct {
	FirstName   *string    `json:"first_name" binding:"omitempty,max=100"`
	LastName    *string    `json:"last_name" binding:"omitempty,max=100"`
	Gender      *string    `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Phone       *string    `json:"phone" binding:"omitempty,phone"`
	Email       *string    `json:"email" binding:"omitempty,email"`
	Address     *string    `json:"address" binding:"omitempty,max=500"`
	BloodGroup  *string    `json:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

func (r *UpdatePatientRequest) Apply(p *Patient) {
	if r.FirstName != nil {
		p.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		p.LastName = *r.LastName
	}
	if r.Gender != nil {
		p.Gender = *r.Gender
	}
	if r.DateOfBirth != nil {
		p.DateOfBirth = r.DateOfBirth
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Email != nil {
		p.Email = *r.Email
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.BloodGroup != nil {
		p.BloodGroup = *r.BloodGroup
	}
}
