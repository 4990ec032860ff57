package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/hms-api/internal/billing"
)

// DischargeStatus of an admission. Anything other than pending closes the
// admission for changes.
type DischargeStatus string

const (
	DischargePending    DischargeStatus = "pending"
	DischargeDischarged DischargeStatus = "discharged"
	DischargeReferred   DischargeStatus = "referred"
	DischargeAbsconded  DischargeStatus = "absconded"
	DischargeExpired    DischargeStatus = "expired"
)

func (s DischargeStatus) Valid() bool {
	switch s {
	case DischargePending, DischargeDischarged, DischargeReferred, DischargeAbsconded, DischargeExpired:
		return true
	}
	return false
}

type Admission struct {
	Base
	OrganizationID  uuid.UUID       `db:"organization_id" json:"organization_id"`
	PatientID       uuid.UUID       `db:"patient_id" json:"patient_id"`
	PatientName     string          `db:"patient_name" json:"patient_name"`
	DoctorID        uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	BillID          uuid.UUID       `db:"bill_id" json:"bill_id"`
	AdmittedAt      time.Time       `db:"admitted_at" json:"admitted_at"`
	BedNumber       string          `db:"bed_number" json:"bed_number,omitempty"`
	Ward            string          `db:"ward" json:"ward,omitempty"`
	Diagnosis       string          `db:"diagnosis" json:"diagnosis,omitempty"`
	DischargeStatus DischargeStatus `db:"discharge_status" json:"discharge_status"`
	DischargedAt    *time.Time      `db:"discharged_at" json:"discharged_at,omitempty"`
	CreditLimit     decimal.Decimal `db:"credit_limit" json:"credit_limit"`
}

type CreateAdmissionRequest struct {
	PatientID   uuid.UUID        `json:"patient_id" binding:"required"`
	DoctorID    uuid.UUID        `json:"doctor_id" binding:"required"`
	AdmittedAt  *time.Time       `json:"admitted_at"`
	BedNumber   string           `json:"bed_number" binding:"max=20"`
	Ward        string           `json:"ward" binding:"max=100"`
	Diagnosis   string           `json:"diagnosis" binding:"max=1000"`
	CreditLimit decimal.Decimal  `json:"credit_limit"`
	BaseAmount  decimal.Decimal  `json:"base_amount"`
	Discount    billing.Discount `json:"discount"`
	TaxPercent  decimal.Decimal  `json:"tax_percent"`
}

type UpdateAdmissionRequest struct {
	DoctorID  *uuid.UUID `json:"doctor_id"`
	BedNumber *string    `json:"bed_number" binding:"omitempty,max=20"`
	Ward      *string    `json:"ward" binding:"omitempty,max=100"`
	Diagnosis *string    `json:"diagnosis" binding:"omitempty,max=1000"`
}

func (r *UpdateAdmissionRequest) Apply(a *Admission) {
	if r.DoctorID != nil {
		a.DoctorID = *r.DoctorID
	}
	if r.BedNumber != nil {
		a.BedNumber = *r.BedNumber
	}
	if r.Ward != nil {
		a.Ward = *r.Ward
	}
	if r.Diagnosis != nil {
		a.Diagnosis = *r.Diagnosis
	}
}

type DischargeRequest struct {
	Status       DischargeStatus `json:"status" binding:"required,oneof=discharged referred absconded expired"`
	DischargedAt *time.Time      `json:"discharged_at"`
}

type AdmissionFilter struct {
	ListFilter
	DischargeStatus DischargeStatus `form:"discharge_status" binding:"omitempty,oneof=pending discharged referred absconded expired"`
}

// ConsultantEntry is one doctor visit in the consultant register.
type ConsultantEntry struct {
	Base
	SoftDelete
	AdmissionID uuid.UUID       `db:"admission_id" json:"admission_id"`
	DoctorID    uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	VisitDate   time.Time       `db:"visit_date" json:"visit_date"`
	Fee         decimal.Decimal `db:"fee" json:"fee"`
	Notes       string          `db:"notes" json:"notes,omitempty"`
}

type ConsultantEntryRequest struct {
	DoctorID  uuid.UUID       `json:"doctor_id" binding:"required"`
	VisitDate time.Time       `json:"visit_date" binding:"required"`
	Fee       decimal.Decimal `json:"fee"`
	Notes     string          `json:"notes" binding:"max=1000"`
}

type UpdateConsultantEntryRequest struct {
	DoctorID  *uuid.UUID       `json:"doctor_id"`
	VisitDate *time.Time       `json:"visit_date"`
	Fee       *decimal.Decimal `json:"fee"`
	Notes     *string          `json:"notes" binding:"omitempty,max=1000"`
}

func (r *UpdateConsultantEntryRequest) Apply(e *ConsultantEntry) {
	if r.DoctorID != nil {
		e.DoctorID = *r.DoctorID
	}
	if r.VisitDate != nil {
		e.VisitDate = *r.VisitDate
	}
	if r.Fee != nil {
		e.Fee = *r.Fee
	}
	if r.Notes != nil {
		e.Notes = *r.Notes
	}
}

// Operation is a procedure performed during an admission.
type Operation struct {
	Base
	SoftDelete
	AdmissionID   uuid.UUID       `db:"admission_id" json:"admission_id"`
	ProcedureName string          `db:"procedure_name" json:"procedure_name"`
	SurgeonID     *uuid.UUID      `db:"surgeon_id" json:"surgeon_id,omitempty"`
	OperationDate time.Time       `db:"operation_date" json:"operation_date"`
	Charge        decimal.Decimal `db:"charge" json:"charge"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
}

type OperationRequest struct {
	ProcedureName string          `json:"procedure_name" binding:"required,max=200"`
	SurgeonID     *uuid.UUID      `json:"surgeon_id"`
	OperationDate time.Time       `json:"operation_date" binding:"required"`
	Charge        decimal.Decimal `json:"charge"`
	Notes         string          `json:"notes" binding:"max=1000"`
}

type UpdateOperationRequest struct {
	ProcedureName *string          `json:"procedure_name" binding:"omitempty,max=200"`
	SurgeonID     *uuid.UUID       `json:"surgeon_id"`
	OperationDate *time.Time       `json:"operation_date"`
	Charge        *decimal.Decimal `json:"charge"`
	Notes         *string          `json:"notes" binding:"omitempty,max=1000"`
}

func (r *UpdateOperationRequest) Apply(o *Operation) {
	if r.ProcedureName != nil {
		o.ProcedureName = *r.ProcedureName
	}
	if r.SurgeonID != nil {
		o.SurgeonID = r.SurgeonID
	}
	if r.OperationDate != nil {
		o.OperationDate = *r.OperationDate
	}
	if r.Charge != nil {
		o.Charge = *r.Charge
	}
	if r.Notes != nil {
		o.Notes = *r.Notes
	}
}
