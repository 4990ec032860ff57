package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type admissionRepository struct {
	BaseRepository
}

func NewAdmissionRepository(base BaseRepository) repository.AdmissionRepository {
	return &admissionRepository{base}
}

const admissionSelect = `
	SELECT a.id, a.organization_id, a.patient_id,
		TRIM(p.first_name || ' ' || p.last_name) AS patient_name,
		a.doctor_id, a.bill_id, a.admitted_at, a.bed_number, a.ward, a.diagnosis,
		a.discharge_status, a.discharged_at, a.credit_limit, a.created_at, a.updated_at
	FROM admissions a
	JOIN patients p ON p.id = a.patient_id
`

const consultantColumns = `id, admission_id, doctor_id, visit_date, fee, notes,
	is_deleted, deleted_at, created_at, updated_at`

const operationColumns = `id, admission_id, procedure_name, surgeon_id, operation_date, charge, notes,
	is_deleted, deleted_at, created_at, updated_at`

func (r *admissionRepository) Create(ctx context.Context, a *model.Admission, bill *model.Bill, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertBill(ctx, tx, bill); err != nil {
			return err
		}

		query := `
			INSERT INTO admissions (
				id, organization_id, patient_id, doctor_id, bill_id, admitted_at,
				bed_number, ward, diagnosis, discharge_status, credit_limit, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.BillID = bill.ID
		a.CreatedAt = time.Now().UTC()
		a.UpdatedAt = a.CreatedAt

		if _, err := tx.ExecContext(ctx, query,
			a.ID,
			a.OrganizationID,
			a.PatientID,
			a.DoctorID,
			a.BillID,
			a.AdmittedAt,
			a.BedNumber,
			a.Ward,
			a.Diagnosis,
			a.DischargeStatus,
			a.CreditLimit,
			a.CreatedAt,
			a.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create admission: %w", err)
		}

		return insertOutbox(ctx, tx, event)
	})
}

func (r *admissionRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Admission, error) {
	var a model.Admission
	query := admissionSelect + ` WHERE a.id = $1 AND a.organization_id = $2`
	if err := r.db.GetContext(ctx, &a, query, id, orgID); err != nil {
		return nil, notFound("admission", err)
	}
	return &a, nil
}

func (r *admissionRepository) Update(ctx context.Context, a *model.Admission) error {
	query := `
		UPDATE admissions
		SET doctor_id = $1, bed_number = $2, ward = $3, diagnosis = $4, updated_at = $5
		WHERE id = $6 AND organization_id = $7 AND discharge_status = 'pending'
	`
	a.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		a.DoctorID,
		a.BedNumber,
		a.Ward,
		a.Diagnosis,
		a.UpdatedAt,
		a.ID,
		a.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update admission: %w", err)
	}
	return expectRows("admission", result)
}

// Discharge only moves pending admissions, so a second discharge reports
// not found instead of overwriting the first.
func (r *admissionRepository) Discharge(ctx context.Context, a *model.Admission, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE admissions
			SET discharge_status = $1, discharged_at = $2, updated_at = $3
			WHERE id = $4 AND organization_id = $5 AND discharge_status = 'pending'
		`
		a.UpdatedAt = time.Now().UTC()

		result, err := tx.ExecContext(ctx, query,
			a.DischargeStatus,
			a.DischargedAt,
			a.UpdatedAt,
			a.ID,
			a.OrganizationID,
		)
		if err != nil {
			return fmt.Errorf("failed to discharge admission: %w", err)
		}
		if err := expectRows("admission", result); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, event)
	})
}

func (r *admissionRepository) List(ctx context.Context, orgID uuid.UUID, filter model.AdmissionFilter) ([]*model.Admission, int, error) {
	where := `
		WHERE a.organization_id = $1
		AND ($2 = '' OR a.discharge_status = $2)
		AND ($3 = '' OR (p.first_name || ' ' || p.last_name) ILIKE $4 OR a.bed_number ILIKE $4)
	`
	args := []interface{}{orgID, string(filter.DischargeStatus), filter.Search, likePattern(filter.Search)}

	var total int
	countQuery := `SELECT COUNT(*) FROM admissions a JOIN patients p ON p.id = a.patient_id ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count admissions: %w", err)
	}

	admissions := []*model.Admission{}
	query := admissionSelect + where + ` ORDER BY a.admitted_at DESC LIMIT $5 OFFSET $6`
	if err := r.db.SelectContext(ctx, &admissions, query, append(args, filter.PageSize, filter.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list admissions: %w", err)
	}
	return admissions, total, nil
}

func (r *admissionRepository) CreateConsultant(ctx context.Context, e *model.ConsultantEntry) error {
	query := `
		INSERT INTO ipd_consultants (id, admission_id, doctor_id, visit_date, fee, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.AdmissionID, e.DoctorID, e.VisitDate, e.Fee, e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create consultant entry: %w", err)
	}
	return nil
}

func (r *admissionRepository) GetConsultant(ctx context.Context, admissionID, id uuid.UUID) (*model.ConsultantEntry, error) {
	query := `SELECT ` + consultantColumns + ` FROM ipd_consultants WHERE id = $1 AND admission_id = $2`

	var e model.ConsultantEntry
	if err := r.db.GetContext(ctx, &e, query, id, admissionID); err != nil {
		return nil, notFound("consultant entry", err)
	}
	return &e, nil
}

func (r *admissionRepository) UpdateConsultant(ctx context.Context, e *model.ConsultantEntry) error {
	query := `
		UPDATE ipd_consultants
		SET doctor_id = $1, visit_date = $2, fee = $3, notes = $4, updated_at = $5
		WHERE id = $6 AND admission_id = $7 AND NOT is_deleted
	`
	e.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		e.DoctorID, e.VisitDate, e.Fee, e.Notes, e.UpdatedAt, e.ID, e.AdmissionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update consultant entry: %w", err)
	}
	return expectRows("consultant entry", result)
}

func (r *admissionRepository) SetConsultantDeleted(ctx context.Context, admissionID, id uuid.UUID, deleted bool) error {
	return setDeleted(ctx, r.db, "ipd_consultants", "admission_id", admissionID, id, deleted, "consultant entry")
}

func (r *admissionRepository) PurgeConsultant(ctx context.Context, admissionID, id uuid.UUID) error {
	return purge(ctx, r.db, "ipd_consultants", "admission_id", admissionID, id, "consultant entry")
}

func (r *admissionRepository) ListConsultants(ctx context.Context, admissionID uuid.UUID, includeDeleted bool) ([]*model.ConsultantEntry, error) {
	query := `SELECT ` + consultantColumns + ` FROM ipd_consultants
		WHERE admission_id = $1 AND ($2 OR NOT is_deleted)
		ORDER BY visit_date, created_at`

	entries := []*model.ConsultantEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, admissionID, includeDeleted); err != nil {
		return nil, fmt.Errorf("failed to list consultant entries: %w", err)
	}
	return entries, nil
}

func (r *admissionRepository) CreateOperation(ctx context.Context, o *model.Operation) error {
	query := `
		INSERT INTO ipd_operations (
			id, admission_id, procedure_name, surgeon_id, operation_date, charge, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.AdmissionID, o.ProcedureName, o.SurgeonID, o.OperationDate, o.Charge, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

func (r *admissionRepository) GetOperation(ctx context.Context, admissionID, id uuid.UUID) (*model.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM ipd_operations WHERE id = $1 AND admission_id = $2`

	var o model.Operation
	if err := r.db.GetContext(ctx, &o, query, id, admissionID); err != nil {
		return nil, notFound("operation", err)
	}
	return &o, nil
}

func (r *admissionRepository) UpdateOperation(ctx context.Context, o *model.Operation) error {
	query := `
		UPDATE ipd_operations
		SET procedure_name = $1, surgeon_id = $2, operation_date = $3, charge = $4, notes = $5, updated_at = $6
		WHERE id = $7 AND admission_id = $8 AND NOT is_deleted
	`
	o.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		o.ProcedureName, o.SurgeonID, o.OperationDate, o.Charge, o.Notes, o.UpdatedAt, o.ID, o.AdmissionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}
	return expectRows("operation", result)
}

func (r *admissionRepository) SetOperationDeleted(ctx context.Context, admissionID, id uuid.UUID, deleted bool) error {
	return setDeleted(ctx, r.db, "ipd_operations", "admission_id", admissionID, id, deleted, "operation")
}

func (r *admissionRepository) PurgeOperation(ctx context.Context, admissionID, id uuid.UUID) error {
	return purge(ctx, r.db, "ipd_operations", "admission_id", admissionID, id, "operation")
}

func (r *admissionRepository) ListOperations(ctx context.Context, admissionID uuid.UUID, includeDeleted bool) ([]*model.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM ipd_operations
		WHERE admission_id = $1 AND ($2 OR NOT is_deleted)
		ORDER BY operation_date, created_at`

	ops := []*model.Operation{}
	if err := r.db.SelectContext(ctx, &ops, query, admissionID, includeDeleted); err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return ops, nil
}
