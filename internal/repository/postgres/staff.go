package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type staffRepository struct {
	BaseRepository
}

func NewStaffRepository(base BaseRepository) repository.StaffRepository {
	return &staffRepository{base}
}

const staffColumns = `id, organization_id, first_name, last_name, email, phone, gender,
	designation, department, date_of_joining, password_hash,
	is_deleted, deleted_at, created_at, updated_at`

func (r *staffRepository) Create(ctx context.Context, s *model.Staff) error {
	query := `
		INSERT INTO staff (
			id, organization_id, first_name, last_name, email, phone, gender,
			designation, department, date_of_joining, password_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			s.ID,
			s.OrganizationID,
			s.FirstName,
			s.LastName,
			s.Email,
			s.Phone,
			s.Gender,
			s.Designation,
			s.Department,
			s.DateOfJoining,
			s.PasswordHash,
			s.CreatedAt,
			s.UpdatedAt,
		)
		if err != nil {
			return uniqueViolation("staff email already exists", fmt.Errorf("failed to create staff: %w", err))
		}
		if s.Doctor == nil {
			return nil
		}
		s.Doctor.StaffID = s.ID
		return upsertDoctor(ctx, tx, s.Doctor)
	})
}

func upsertDoctor(ctx context.Context, tx *sqlx.Tx, d *model.Doctor) error {
	query := `
		INSERT INTO doctors (staff_id, specializations, qualification, consultation_fee)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (staff_id) DO UPDATE
		SET specializations = EXCLUDED.specializations,
			qualification = EXCLUDED.qualification,
			consultation_fee = EXCLUDED.consultation_fee
	`
	if d.Specializations == nil {
		d.Specializations = pq.StringArray{}
	}
	if _, err := tx.ExecContext(ctx, query, d.StaffID, d.Specializations, d.Qualification, d.ConsultationFee); err != nil {
		return fmt.Errorf("failed to save doctor details: %w", err)
	}
	return nil
}

func (r *staffRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1 AND organization_id = $2`

	var s model.Staff
	if err := r.db.GetContext(ctx, &s, query, id, orgID); err != nil {
		return nil, notFound("staff", err)
	}

	var d model.Doctor
	err := r.db.GetContext(ctx, &d, `
		SELECT staff_id, specializations, qualification, consultation_fee
		FROM doctors WHERE staff_id = $1`, id)
	switch {
	case err == nil:
		s.Doctor = &d
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to get doctor details: %w", err)
	}
	return &s, nil
}

func (r *staffRepository) Update(ctx context.Context, s *model.Staff) error {
	query := `
		UPDATE staff
		SET first_name = $1, last_name = $2, email = $3, phone = $4, gender = $5,
			designation = $6, department = $7, date_of_joining = $8, updated_at = $9
		WHERE id = $10 AND organization_id = $11
	`
	s.UpdatedAt = time.Now().UTC()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			s.FirstName,
			s.LastName,
			s.Email,
			s.Phone,
			s.Gender,
			s.Designation,
			s.Department,
			s.DateOfJoining,
			s.UpdatedAt,
			s.ID,
			s.OrganizationID,
		)
		if err != nil {
			return uniqueViolation("staff email already exists", fmt.Errorf("failed to update staff: %w", err))
		}
		if err := expectRows("staff", result); err != nil {
			return err
		}
		if s.Doctor == nil {
			return nil
		}
		s.Doctor.StaffID = s.ID
		return upsertDoctor(ctx, tx, s.Doctor)
	})
}

func (r *staffRepository) SetDeleted(ctx context.Context, orgID, id uuid.UUID, deleted bool) error {
	return setDeleted(ctx, r.db, "staff", "organization_id", orgID, id, deleted, "staff")
}

func (r *staffRepository) List(ctx context.Context, orgID uuid.UUID, filter model.StaffFilter) ([]*model.Staff, int, error) {
	where := `
		WHERE organization_id = $1
		AND ($2 OR NOT is_deleted)
		AND ($3 = '' OR (first_name || ' ' || last_name) ILIKE $4 OR email ILIKE $4 OR phone ILIKE $4)
		AND (NOT $5 OR EXISTS (SELECT 1 FROM doctors d WHERE d.staff_id = staff.id))
	`
	args := []interface{}{orgID, filter.IncludeDeleted, filter.Search, likePattern(filter.Search), filter.DoctorsOnly}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM staff `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count staff: %w", err)
	}

	query := `SELECT ` + staffColumns + ` FROM staff ` + where + `
		ORDER BY first_name, last_name
		LIMIT $6 OFFSET $7`

	staff := []*model.Staff{}
	if err := r.db.SelectContext(ctx, &staff, query, append(args, filter.PageSize, filter.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list staff: %w", err)
	}
	if err := r.attachDoctors(ctx, staff); err != nil {
		return nil, 0, err
	}
	return staff, total, nil
}

func (r *staffRepository) attachDoctors(ctx context.Context, staff []*model.Staff) error {
	if len(staff) == 0 {
		return nil
	}

	ids := make(pq.StringArray, 0, len(staff))
	byID := make(map[uuid.UUID]*model.Staff, len(staff))
	for _, s := range staff {
		ids = append(ids, s.ID.String())
		byID[s.ID] = s
	}

	var doctors []model.Doctor
	err := r.db.SelectContext(ctx, &doctors, `
		SELECT staff_id, specializations, qualification, consultation_fee
		FROM doctors WHERE staff_id = ANY($1::uuid[])`, ids)
	if err != nil {
		return fmt.Errorf("failed to list doctor details: %w", err)
	}
	for i := range doctors {
		if s, ok := byID[doctors[i].StaffID]; ok {
			s.Doctor = &doctors[i]
		}
	}
	return nil
}

func (r *staffRepository) ListSpecializations(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT unnest(d.specializations) AS specialization
		FROM doctors d
		JOIN staff s ON s.id = d.staff_id
		WHERE s.organization_id = $1 AND NOT s.is_deleted
		ORDER BY specialization
	`
	specs := []string{}
	if err := r.db.SelectContext(ctx, &specs, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list specializations: %w", err)
	}
	return specs, nil
}
