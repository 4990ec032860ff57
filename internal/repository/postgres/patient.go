package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

const patientColumns = `id, organization_id, first_name, last_name, gender, date_of_birth,
	phone, email, address, blood_group, is_deleted, deleted_at, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, p *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, organization_id, first_name, last_name, gender, date_of_birth,
			phone, email, address, blood_group, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.OrganizationID,
		p.FirstName,
		p.LastName,
		p.Gender,
		p.DateOfBirth,
		p.Phone,
		p.Email,
		p.Address,
		p.BloodGroup,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND organization_id = $2`

	var p model.Patient
	if err := r.db.GetContext(ctx, &p, query, id, orgID); err != nil {
		return nil, notFound("patient", err)
	}
	return &p, nil
}

func (r *patientRepository) Update(ctx context.Context, p *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, gender = $3, date_of_birth = $4,
			phone = $5, email = $6, address = $7, blood_group = $8, updated_at = $9
		WHERE id = $10 AND organization_id = $11
	`
	p.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		p.FirstName,
		p.LastName,
		p.Gender,
		p.DateOfBirth,
		p.Phone,
		p.Email,
		p.Address,
		p.BloodGroup,
		p.UpdatedAt,
		p.ID,
		p.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return expectRows("patient", result)
}

func (r *patientRepository) SetDeleted(ctx context.Context, orgID, id uuid.UUID, deleted bool) error {
	return setDeleted(ctx, r.db, "patients", "organization_id", orgID, id, deleted, "patient")
}

func (r *patientRepository) List(ctx context.Context, orgID uuid.UUID, filter model.ListFilter) ([]*model.Patient, int, error) {
	where := `
		WHERE organization_id = $1
		AND ($2 OR NOT is_deleted)
		AND ($3 = '' OR (first_name || ' ' || last_name) ILIKE $4 OR phone ILIKE $4 OR email ILIKE $4)
	`
	args := []interface{}{orgID, filter.IncludeDeleted, filter.Search, likePattern(filter.Search)}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM patients `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	query := `SELECT ` + patientColumns + ` FROM patients ` + where + `
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`

	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query, append(args, filter.PageSize, filter.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}
