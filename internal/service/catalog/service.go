package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Service manages the pricing catalog: lookup tables, tax categories and
// charges.
type Service struct {
	repo repository.CatalogRepository
}

func NewService(repo repository.CatalogRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateItem(ctx context.Context, orgID uuid.UUID, kind model.CatalogKind, req *model.CatalogItemRequest) (*model.CatalogItem, error) {
	if !kind.Valid() {
		return nil, apperrors.NotFound("catalog", nil)
	}

	item := &model.CatalogItem{OrganizationID: orgID, Name: req.Name, Description: req.Description}
	if err := s.repo.CreateItem(ctx, kind, item); err != nil {
		return nil, fmt.Errorf("failed to create %s item: %w", kind, err)
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context, orgID uuid.UUID, kind model.CatalogKind) ([]*model.CatalogItem, error) {
	if !kind.Valid() {
		return nil, apperrors.NotFound("catalog", nil)
	}
	return s.repo.ListItems(ctx, kind, orgID)
}

func (s *Service) CreateTaxCategory(ctx context.Context, orgID uuid.UUID, req *model.TaxCategoryRequest) (*model.TaxCategory, error) {
	if req.Percent.IsNegative() || req.Percent.GreaterThan(hundred) {
		return nil, apperrors.BadRequest("tax percent must be between 0 and 100", nil)
	}

	tax := &model.TaxCategory{OrganizationID: orgID, Name: req.Name, Percent: req.Percent}
	if err := s.repo.CreateTaxCategory(ctx, tax); err != nil {
		return nil, fmt.Errorf("failed to create tax category: %w", err)
	}
	return tax, nil
}

func (s *Service) ListTaxCategories(ctx context.Context, orgID uuid.UUID) ([]*model.TaxCategory, error) {
	return s.repo.ListTaxCategories(ctx, orgID)
}

func (s *Service) CreateCharge(ctx context.Context, orgID uuid.UUID, req *model.ChargeRequest) (*model.Charge, error) {
	charge := &model.Charge{OrganizationID: orgID}
	if err := s.applyCharge(ctx, charge, req); err != nil {
		return nil, err
	}

	if err := s.repo.CreateCharge(ctx, charge); err != nil {
		return nil, fmt.Errorf("failed to create charge: %w", err)
	}
	return charge, nil
}

func (s *Service) GetCharge(ctx context.Context, orgID, id uuid.UUID) (*model.Charge, error) {
	return s.repo.GetCharge(ctx, orgID, id)
}

func (s *Service) UpdateCharge(ctx context.Context, orgID, id uuid.UUID, req *model.ChargeRequest) (*model.Charge, error) {
	charge, err := s.repo.GetCharge(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyCharge(ctx, charge, req); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCharge(ctx, charge); err != nil {
		return nil, fmt.Errorf("failed to update charge: %w", err)
	}
	return charge, nil
}

func (s *Service) DeleteCharge(ctx context.Context, orgID, id uuid.UUID) error {
	return s.repo.DeleteCharge(ctx, orgID, id)
}

func (s *Service) ListCharges(ctx context.Context, orgID uuid.UUID, filter model.ListFilter) ([]*model.Charge, int, error) {
	return s.repo.ListCharges(ctx, orgID, filter)
}

// applyCharge checks that every reference belongs to the organization
// before copying req onto charge.
func (s *Service) applyCharge(ctx context.Context, charge *model.Charge, req *model.ChargeRequest) error {
	if req.Amount.IsNegative() {
		return apperrors.BadRequest("charge amount must not be negative", nil)
	}

	refs := []struct {
		kind model.CatalogKind
		id   uuid.UUID
	}{
		{model.CatalogChargeCategories, req.CategoryID},
		{model.CatalogChargeTypes, req.TypeID},
		{model.CatalogUnits, req.UnitID},
	}
	for _, ref := range refs {
		ok, err := s.repo.ItemExists(ctx, ref.kind, charge.OrganizationID, ref.id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.BadRequest(fmt.Sprintf("unknown %s reference", ref.kind), nil)
		}
	}

	tax, err := s.repo.GetTaxCategory(ctx, charge.OrganizationID, req.TaxCategoryID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.BadRequest("unknown tax category reference", err)
		}
		return err
	}

	charge.Name = req.Name
	charge.CategoryID = req.CategoryID
	charge.TypeID = req.TypeID
	charge.UnitID = req.UnitID
	charge.TaxCategoryID = tax.ID
	charge.TaxPercent = tax.Percent
	charge.Amount = req.Amount
	return nil
}
