package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type Service struct {
	repo     repository.PatientRepository
	recorder lifecycle.Recorder
}

func NewService(repo repository.PatientRepository, recorder lifecycle.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req *model.CreatePatientRequest) (*model.Patient, error) {
	p := req.NewPatient(orgID)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, orgID, id)
}

// Active returns the patient when it exists in the organization and is not
// deleted. Bills, admissions and appointments may only reference active
// patients.
func (s *Service) Active(ctx context.Context, orgID, id uuid.UUID) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.BadRequest("patient does not belong to this organization", err)
		}
		return nil, err
	}
	if p.IsDeleted {
		return nil, apperrors.BadRequest("patient is deleted", nil)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireActive(p.SoftDelete, "patient"); err != nil {
		return nil, err
	}

	req.Apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return s.transition(ctx, orgID, id, model.TransitionDelete)
}

func (s *Service) Restore(ctx context.Context, orgID, id uuid.UUID) error {
	return s.transition(ctx, orgID, id, model.TransitionRestore)
}

func (s *Service) transition(ctx context.Context, orgID, id uuid.UUID, t model.Transition) error {
	p, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := lifecycle.Check(p.SoftDelete, t); err != nil {
		return err
	}

	if err := s.repo.SetDeleted(ctx, orgID, id, t == model.TransitionDelete); err != nil {
		return err
	}
	s.recorder.Record(ctx, orgID, model.AuditEntityPatient, id, t)
	return nil
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, filter model.ListFilter) ([]*model.Patient, int, error) {
	return s.repo.List(ctx, orgID, filter)
}
