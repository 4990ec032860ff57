package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

// RecordPaymentFunc receives the locked bill and returns the payment to
// insert and the outbox event to publish. It must update the bill's paid
// amount and status in place.
type RecordPaymentFunc func(bill *model.Bill) (*model.Payment, *model.OutboxEvent, error)

// DeletePaymentFunc receives the locked bill and the payment about to be
// removed. It must update the bill's paid amount and status in place.
type DeletePaymentFunc func(bill *model.Bill, payment *model.Payment) (*model.OutboxEvent, error)

// All repository interfaces in one file
type (
	OrganizationRepository interface {
		Create(ctx context.Context, org *model.Organization) error
		Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)
		Update(ctx context.Context, org *model.Organization) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.ListFilter) ([]*model.Organization, int, error)
	}

	StaffRepository interface {
		Create(ctx context.Context, staff *model.Staff) error
		// Get returns the staff row whether or not it is soft-deleted.
		Get(ctx context.Context, orgID, id uuid.UUID) (*model.Staff, error)
		Update(ctx context.Context, staff *model.Staff) error
		SetDeleted(ctx context.Context, orgID, id uuid.UUID, deleted bool) error
		List(ctx context.Context, orgID uuid.UUID, filter model.StaffFilter) ([]*model.Staff, int, error)
		ListSpecializations(ctx context.Context, orgID uuid.UUID) ([]string, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, orgID, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		SetDeleted(ctx context.Context, orgID, id uuid.UUID, deleted bool) error
		List(ctx context.Context, orgID uuid.UUID, filter model.ListFilter) ([]*model.Patient, int, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, orgID, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, orgID uuid.UUID, filter model.AppointmentFilter) ([]*model.Appointment, int, error)
	}

	CatalogRepository interface {
		CreateItem(ctx context.Context, kind model.CatalogKind, item *model.CatalogItem) error
		ListItems(ctx context.Context, kind model.CatalogKind, orgID uuid.UUID) ([]*model.CatalogItem, error)
		ItemExists(ctx context.Context, kind model.CatalogKind, orgID, id uuid.UUID) (bool, error)
		CreateTaxCategory(ctx context.Context, tax *model.TaxCategory) error
		ListTaxCategories(ctx context.Context, orgID uuid.UUID) ([]*model.TaxCategory, error)
		GetTaxCategory(ctx context.Context, orgID, id uuid.UUID) (*model.TaxCategory, error)
		CreateCharge(ctx context.Context, charge *model.Charge) error
		GetCharge(ctx context.Context, orgID, id uuid.UUID) (*model.Charge, error)
		UpdateCharge(ctx context.Context, charge *model.Charge) error
		DeleteCharge(ctx context.Context, orgID, id uuid.UUID) error
		ListCharges(ctx context.Context, orgID uuid.UUID, filter model.ListFilter) ([]*model.Charge, int, error)
	}

	BillRepository interface {
		// Create inserts the bill and its outbox event in one transaction.
		Create(ctx context.Context, bill *model.Bill, event *model.OutboxEvent) error
		// Get returns the bill whether or not it is soft-deleted.
		Get(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID) (*model.Bill, error)
		Update(ctx context.Context, bill *model.Bill) error
		SetDeleted(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID, deleted bool, event *model.OutboxEvent) error
		List(ctx context.Context, orgID uuid.UUID, kind model.BillKind, filter model.BillFilter) ([]*model.Bill, int, error)
		ListPayments(ctx context.Context, billID uuid.UUID) ([]*model.Payment, error)
		// RecordPayment locks the bill, lets fn apply the payment and writes
		// the payment, bill totals and event in one transaction. Credit
		// payments on an IPD bill also raise the admission's credit limit.
		RecordPayment(ctx context.Context, orgID, billID uuid.UUID, fn RecordPaymentFunc) (*model.Payment, *model.Bill, error)
		// DeletePayment is the reverse of RecordPayment.
		DeletePayment(ctx context.Context, orgID, billID, paymentID uuid.UUID, fn DeletePaymentFunc) (*model.Payment, *model.Bill, error)
	}

	AdmissionRepository interface {
		// Create inserts the admission, its IPD bill and the outbox event in one transaction.
		Create(ctx context.Context, admission *model.Admission, bill *model.Bill, event *model.OutboxEvent) error
		Get(ctx context.Context, orgID, id uuid.UUID) (*model.Admission, error)
		Update(ctx context.Context, admission *model.Admission) error
		Discharge(ctx context.Context, admission *model.Admission, event *model.OutboxEvent) error
		List(ctx context.Context, orgID uuid.UUID, filter model.AdmissionFilter) ([]*model.Admission, int, error)

		CreateConsultant(ctx context.Context, entry *model.ConsultantEntry) error
		GetConsultant(ctx context.Context, admissionID, id uuid.UUID) (*model.ConsultantEntry, error)
		UpdateConsultant(ctx context.Context, entry *model.ConsultantEntry) error
		SetConsultantDeleted(ctx context.Context, admissionID, id uuid.UUID, deleted bool) error
		PurgeConsultant(ctx context.Context, admissionID, id uuid.UUID) error
		ListConsultants(ctx context.Context, admissionID uuid.UUID, includeDeleted bool) ([]*model.ConsultantEntry, error)

		CreateOperation(ctx context.Context, op *model.Operation) error
		GetOperation(ctx context.Context, admissionID, id uuid.UUID) (*model.Operation, error)
		UpdateOperation(ctx context.Context, op *model.Operation) error
		SetOperationDeleted(ctx context.Context, admissionID, id uuid.UUID, deleted bool) error
		PurgeOperation(ctx context.Context, admissionID, id uuid.UUID) error
		ListOperations(ctx context.Context, admissionID uuid.UUID, includeDeleted bool) ([]*model.Operation, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEvents returns the oldest pending events whose type is not
		// in skipTypes.
		GetPendingEvents(ctx context.Context, limit int, skipTypes ...string) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
