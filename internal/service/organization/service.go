package organization

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/audit"
)

type Service struct {
	repo    repository.OrganizationRepository
	auditor audit.Logger
}

func NewService(repo repository.OrganizationRepository, auditor audit.Logger) *Service {
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, req *model.CreateOrganizationRequest) (*model.Organization, error) {
	org := &model.Organization{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		OrgMode: req.OrgMode,
		LogoURL: req.LogoURL,
	}
	if org.OrgMode == "" {
		org.OrgMode = model.OrgModeHospitalFirst
	}

	if err := s.repo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: org.ID,
		Action:         model.AuditActionCreate,
		EntityType:     model.AuditEntityOrganization,
		EntityID:       org.ID,
	})
	return org, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return s.repo.Get(ctx, id)
}

// Update backs both the organization endpoint and the clinic profile.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateOrganizationRequest) (*model.Organization, error) {
	org, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(org)
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: org.ID,
		Action:         model.AuditActionUpdate,
		EntityType:     model.AuditEntityOrganization,
		EntityID:       org.ID,
	})
	return org, nil
}

// Delete removes the organization together with everything it owns.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: id,
		Action:         model.AuditActionPermanentDelete,
		EntityType:     model.AuditEntityOrganization,
		EntityID:       id,
	})
	return nil
}

func (s *Service) List(ctx context.Context, filter model.ListFilter) ([]*model.Organization, int, error) {
	return s.repo.List(ctx, filter)
}
