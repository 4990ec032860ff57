package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/security"
)

// Service manages staff and their optional doctor details.
type Service struct {
	repo     repository.StaffRepository
	hasher   security.PasswordHasher
	recorder lifecycle.Recorder
}

func NewService(repo repository.StaffRepository, hasher security.PasswordHasher, recorder lifecycle.Recorder) *Service {
	return &Service{repo: repo, hasher: hasher, recorder: recorder}
}

func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req *model.CreateStaffRequest) (*model.Staff, error) {
	if err := validateDoctor(req.Doctor); err != nil {
		return nil, err
	}

	staff := req.NewStaff(orgID)
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			if errors.Is(err, security.ErrPasswordTooShort) {
				return nil, apperrors.BadRequest("password must be at least 8 characters", err)
			}
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		staff.PasswordHash = &hash
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	return staff, nil
}

// Get returns the staff row, including soft-deleted ones so they can be
// restored.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Staff, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, req *model.UpdateStaffRequest) (*model.Staff, error) {
	if err := validateDoctor(req.Doctor); err != nil {
		return nil, err
	}

	staff, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireActive(staff.SoftDelete, "staff"); err != nil {
		return nil, err
	}

	req.Apply(staff)
	if err := s.repo.Update(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}
	return staff, nil
}

func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return s.transition(ctx, orgID, id, model.TransitionDelete)
}

func (s *Service) Restore(ctx context.Context, orgID, id uuid.UUID) error {
	return s.transition(ctx, orgID, id, model.TransitionRestore)
}

func (s *Service) transition(ctx context.Context, orgID, id uuid.UUID, t model.Transition) error {
	staff, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := lifecycle.Check(staff.SoftDelete, t); err != nil {
		return err
	}

	if err := s.repo.SetDeleted(ctx, orgID, id, t == model.TransitionDelete); err != nil {
		return err
	}
	s.recorder.Record(ctx, orgID, model.AuditEntityStaff, id, t)
	return nil
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, filter model.StaffFilter) ([]*model.Staff, int, error) {
	return s.repo.List(ctx, orgID, filter)
}

// Specializations lists the distinct specializations of active doctors.
func (s *Service) Specializations(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	return s.repo.ListSpecializations(ctx, orgID)
}

// Doctor returns the staff member when they are an active doctor of the
// organization.
func (s *Service) Doctor(ctx context.Context, orgID, id uuid.UUID) (*model.Staff, error) {
	staff, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.BadRequest("doctor does not belong to this organization", err)
		}
		return nil, err
	}
	if staff.IsDeleted || staff.Doctor == nil {
		return nil, apperrors.BadRequest("staff member is not an active doctor", nil)
	}
	return staff, nil
}

func validateDoctor(req *model.DoctorRequest) error {
	if req != nil && req.ConsultationFee.IsNegative() {
		return apperrors.BadRequest("consultation fee must not be negative", nil)
	}
	return nil
}
