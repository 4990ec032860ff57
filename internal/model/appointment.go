package model

import (
	"time"

	"github.com/google/uuid"
)

// Appointment status is free text; these are the values the front desk uses.
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

type Appointment struct {
	Base
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status         string    `db:"status" json:"status"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID    uuid.UUID `json:"doctor_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Status      string    `json:"status" binding:"max=50"`
	Notes       string    `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Status      *string    `json:"status" binding:"omitempty,min=1,max=50"`
	Notes       *string    `json:"notes" binding:"omitempty,max=1000"`
}

func (r *UpdateAppointmentRequest) Apply(a *Appointment) {
	if r.ScheduledAt != nil {
		a.ScheduledAt = *r.ScheduledAt
	}
	if r.Status != nil {
		a.Status = *r.Status
	}
	if r.Notes != nil {
		a.Notes = *r.Notes
	}
}

type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
