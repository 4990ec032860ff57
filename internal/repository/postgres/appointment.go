package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

const appointmentColumns = `id, organization_id, patient_id, doctor_id, scheduled_at, status, notes, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.OrganizationID,
		a.PatientID,
		a.DoctorID,
		a.ScheduledAt,
		a.Status,
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND organization_id = $2`

	var a model.Appointment
	if err := r.db.GetContext(ctx, &a, query, id, orgID); err != nil {
		return nil, notFound("appointment", err)
	}
	return &a, nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	query := `
		UPDATE appointments
		SET scheduled_at = $1, status = $2, notes = $3, updated_at = $4
		WHERE id = $5 AND organization_id = $6
	`
	a.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query, a.ScheduledAt, a.Status, a.Notes, a.UpdatedAt, a.ID, a.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return expectRows("appointment", result)
}

func (r *appointmentRepository) List(ctx context.Context, orgID uuid.UUID, filter model.AppointmentFilter) ([]*model.Appointment, int, error) {
	where := `
		WHERE organization_id = $1
		AND ($2::uuid IS NULL OR patient_id = $2)
		AND ($3::uuid IS NULL OR doctor_id = $3)
		AND ($4 = '' OR status = $4)
		AND ($5::timestamptz IS NULL OR scheduled_at >= $5)
		AND ($6::timestamptz IS NULL OR scheduled_at < $6)
	`
	args := []interface{}{orgID, filter.PatientID, filter.DoctorID, filter.Status, filter.From, filter.To}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM appointments `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * filter.PageSize
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments ` + where + `
		ORDER BY scheduled_at
		LIMIT $7 OFFSET $8`

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, append(args, filter.PageSize, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}
