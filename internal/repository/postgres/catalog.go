package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}

// catalogTable maps a lookup kind onto its table. Only known kinds reach SQL.
func catalogTable(kind model.CatalogKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown catalog kind %q", kind)
	}
	return string(kind), nil
}

func (r *catalogRepository) CreateItem(ctx context.Context, kind model.CatalogKind, item *model.CatalogItem) error {
	table, err := catalogTable(kind)
	if err != nil {
		return err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt

	query := fmt.Sprintf(`
		INSERT INTO %s (id, organization_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, table)
	if _, err := r.db.ExecContext(ctx, query,
		item.ID, item.OrganizationID, item.Name, item.Description, item.CreatedAt, item.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}
	return nil
}

func (r *catalogRepository) ListItems(ctx context.Context, kind model.CatalogKind, orgID uuid.UUID) ([]*model.CatalogItem, error) {
	table, err := catalogTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, organization_id, name, description, created_at, updated_at
		FROM %s WHERE organization_id = $1 ORDER BY name
	`, table)
	items := []*model.CatalogItem{}
	if err := r.db.SelectContext(ctx, &items, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return items, nil
}

func (r *catalogRepository) ItemExists(ctx context.Context, kind model.CatalogKind, orgID, id uuid.UUID) (bool, error) {
	table, err := catalogTable(kind)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND organization_id = $2)`, table)
	if err := r.db.GetContext(ctx, &exists, query, id, orgID); err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", table, err)
	}
	return exists, nil
}

func (r *catalogRepository) CreateTaxCategory(ctx context.Context, tax *model.TaxCategory) error {
	if tax.ID == uuid.Nil {
		tax.ID = uuid.New()
	}
	tax.CreatedAt = time.Now().UTC()
	tax.UpdatedAt = tax.CreatedAt

	query := `
		INSERT INTO tax_categories (id, organization_id, name, percent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		tax.ID, tax.OrganizationID, tax.Name, tax.Percent, tax.CreatedAt, tax.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create tax category: %w", err)
	}
	return nil
}

func (r *catalogRepository) ListTaxCategories(ctx context.Context, orgID uuid.UUID) ([]*model.TaxCategory, error) {
	query := `
		SELECT id, organization_id, name, percent, created_at, updated_at
		FROM tax_categories WHERE organization_id = $1 ORDER BY name
	`
	taxes := []*model.TaxCategory{}
	if err := r.db.SelectContext(ctx, &taxes, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list tax categories: %w", err)
	}
	return taxes, nil
}

func (r *catalogRepository) GetTaxCategory(ctx context.Context, orgID, id uuid.UUID) (*model.TaxCategory, error) {
	query := `
		SELECT id, organization_id, name, percent, created_at, updated_at
		FROM tax_categories WHERE id = $1 AND organization_id = $2
	`
	var tax model.TaxCategory
	if err := r.db.GetContext(ctx, &tax, query, id, orgID); err != nil {
		return nil, notFound("tax category", err)
	}
	return &tax, nil
}

const chargeSelect = `
	SELECT c.id, c.organization_id, c.name, c.category_id, c.type_id, c.tax_category_id,
		c.unit_id, c.amount, t.percent AS tax_percent, c.created_at, c.updated_at
	FROM charges c
	JOIN tax_categories t ON t.id = c.tax_category_id
`

func (r *catalogRepository) CreateCharge(ctx context.Context, c *model.Charge) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt

	query := `
		INSERT INTO charges (
			id, organization_id, name, category_id, type_id, tax_category_id,
			unit_id, amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.db.ExecContext(ctx, query,
		c.ID, c.OrganizationID, c.Name, c.CategoryID, c.TypeID, c.TaxCategoryID,
		c.UnitID, c.Amount, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create charge: %w", err)
	}
	return nil
}

func (r *catalogRepository) GetCharge(ctx context.Context, orgID, id uuid.UUID) (*model.Charge, error) {
	var c model.Charge
	if err := r.db.GetContext(ctx, &c, chargeSelect+` WHERE c.id = $1 AND c.organization_id = $2`, id, orgID); err != nil {
		return nil, notFound("charge", err)
	}
	return &c, nil
}

func (r *catalogRepository) UpdateCharge(ctx context.Context, c *model.Charge) error {
	query := `
		UPDATE charges
		SET name = $1, category_id = $2, type_id = $3, tax_category_id = $4,
			unit_id = $5, amount = $6, updated_at = $7
		WHERE id = $8 AND organization_id = $9
	`
	c.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		c.Name, c.CategoryID, c.TypeID, c.TaxCategoryID, c.UnitID, c.Amount, c.UpdatedAt,
		c.ID, c.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update charge: %w", err)
	}
	return expectRows("charge", result)
}

func (r *catalogRepository) DeleteCharge(ctx context.Context, orgID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM charges WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete charge: %w", err)
	}
	return expectRows("charge", result)
}

func (r *catalogRepository) ListCharges(ctx context.Context, orgID uuid.UUID, filter model.ListFilter) ([]*model.Charge, int, error) {
	where := ` WHERE c.organization_id = $1 AND ($2 = '' OR c.name ILIKE $3)`
	args := []interface{}{orgID, filter.Search, likePattern(filter.Search)}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM charges c`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count charges: %w", err)
	}

	charges := []*model.Charge{}
	query := chargeSelect + where + ` ORDER BY c.name LIMIT $4 OFFSET $5`
	if err := r.db.SelectContext(ctx, &charges, query, append(args, filter.PageSize, filter.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list charges: %w", err)
	}
	return charges, total, nil
}
