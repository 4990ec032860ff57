package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/employee"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type Service struct {
	repo      repository.AppointmentRepository
	patients  *patient.Service
	employees *employee.Service
}

func NewService(repo repository.AppointmentRepository, patients *patient.Service, employees *employee.Service) *Service {
	return &Service{repo: repo, patients: patients, employees: employees}
}

// Create books an appointment between an active patient and an active
// doctor of the same organization.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if _, err := s.patients.Active(ctx, orgID, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.employees.Doctor(ctx, orgID, req.DoctorID); err != nil {
		return nil, err
	}

	a := &model.Appointment{
		OrganizationID: orgID,
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		ScheduledAt:    req.ScheduledAt,
		Status:         req.Status,
		Notes:          req.Notes,
	}
	if a.Status == "" {
		a.Status = model.AppointmentStatusScheduled
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	a, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	req.Apply(a)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, filter model.AppointmentFilter) ([]*model.Appointment, int, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperrors.BadRequest("to must not be before from", nil)
	}
	return s.repo.List(ctx, orgID, filter)
}
