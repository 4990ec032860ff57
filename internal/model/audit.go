package model

import (
	"github.com/google/uuid"
)

// AuditEntry is one line of the audit journal: who did what to which record.
type AuditEntry struct {
	OrganizationID uuid.UUID
	StaffID        uuid.UUID
	Action         string
	EntityType     string
	EntityID       uuid.UUID
	RequestID      string
	Details        map[string]interface{}
}

const (
	// Action types
	AuditActionCreate          = "create"
	AuditActionUpdate          = "update"
	AuditActionDelete          = "delete"
	AuditActionRestore         = "restore"
	AuditActionPermanentDelete = "permanent_delete"
	AuditActionPaymentRecorded = "payment_recorded"
	AuditActionPaymentDeleted  = "payment_deleted"
	AuditActionDischarge       = "discharge"

	// Entity types
	AuditEntityOrganization = "organization"
	AuditEntityStaff        = "staff"
	AuditEntityPatient      = "patient"
	AuditEntityBill         = "bill"
	AuditEntityAdmission    = "admission"
	AuditEntityConsultant   = "consultant_entry"
	AuditEntityOperation    = "operation"
)
