package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type organizationRepository struct {
	BaseRepository
}

func NewOrganizationRepository(base BaseRepository) repository.OrganizationRepository {
	return &organizationRepository{base}
}

const organizationColumns = `id, name, address, phone, email, org_mode, logo_url, created_at, updated_at`

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	org.CreatedAt = time.Now().UTC()
	org.UpdatedAt = org.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.Address,
		org.Phone,
		org.Email,
		org.OrgMode,
		org.LogoURL,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (r *organizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	var org model.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		return nil, notFound("organization", err)
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *model.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, address = $2, phone = $3, email = $4,
			org_mode = $5, logo_url = $6, updated_at = $7
		WHERE id = $8
	`
	org.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		org.Name,
		org.Address,
		org.Phone,
		org.Email,
		org.OrgMode,
		org.LogoURL,
		org.UpdatedAt,
		org.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	return expectRows("organization", result)
}

// Delete removes the organization. Every tenant table cascades from it.
func (r *organizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return expectRows("organization", result)
}

func (r *organizationRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.Organization, int, error) {
	where := `WHERE ($1 = '' OR name ILIKE $2)`
	args := []interface{}{filter.Search, likePattern(filter.Search)}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM organizations `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count organizations: %w", err)
	}

	query := `SELECT ` + organizationColumns + ` FROM organizations ` + where + `
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	orgs := []*model.Organization{}
	if err := r.db.SelectContext(ctx, &orgs, query, append(args, filter.PageSize, filter.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, total, nil
}
