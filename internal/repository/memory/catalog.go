package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type catalogRepository struct{ *Store }

func (s *Store) Catalog() repository.CatalogRepository {
	return catalogRepository{s}
}

func (r catalogRepository) CreateItem(ctx context.Context, kind model.CatalogKind, item *model.CatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&item.Base)
	if r.items[kind] == nil {
		r.items[kind] = make(map[uuid.UUID]model.CatalogItem)
	}
	r.items[kind][item.ID] = *item
	return nil
}

func (r catalogRepository) ListItems(ctx context.Context, kind model.CatalogKind, orgID uuid.UUID) ([]*model.CatalogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.CatalogItem{}
	for _, it := range r.items[kind] {
		it := it
		if it.OrganizationID == orgID {
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalogRepository) ItemExists(ctx context.Context, kind model.CatalogKind, orgID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[kind][id]
	return ok && it.OrganizationID == orgID, nil
}

func (r catalogRepository) CreateTaxCategory(ctx context.Context, tax *model.TaxCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&tax.Base)
	r.taxes[tax.ID] = *tax
	return nil
}

func (r catalogRepository) ListTaxCategories(ctx context.Context, orgID uuid.UUID) ([]*model.TaxCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.TaxCategory{}
	for _, t := range r.taxes {
		t := t
		if t.OrganizationID == orgID {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalogRepository) GetTaxCategory(ctx context.Context, orgID, id uuid.UUID) (*model.TaxCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.taxes[id]
	if !ok || t.OrganizationID != orgID {
		return nil, notFound("tax category")
	}
	return &t, nil
}

func (r catalogRepository) withTax(c model.Charge) *model.Charge {
	c.TaxPercent = r.taxes[c.TaxCategoryID].Percent
	return &c
}

func (r catalogRepository) CreateCharge(ctx context.Context, c *model.Charge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&c.Base)
	r.charges[c.ID] = *c
	c.TaxPercent = r.taxes[c.TaxCategoryID].Percent
	return nil
}

func (r catalogRepository) GetCharge(ctx context.Context, orgID, id uuid.UUID) (*model.Charge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.charges[id]
	if !ok || c.OrganizationID != orgID {
		return nil, notFound("charge")
	}
	return r.withTax(c), nil
}

func (r catalogRepository) UpdateCharge(ctx context.Context, c *model.Charge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.charges[c.ID]
	if !ok || old.OrganizationID != c.OrganizationID {
		return notFound("charge")
	}
	c.UpdatedAt = time.Now().UTC()
	r.charges[c.ID] = *c
	c.TaxPercent = r.taxes[c.TaxCategoryID].Percent
	return nil
}

func (r catalogRepository) DeleteCharge(ctx context.Context, orgID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.charges[id]
	if !ok || c.OrganizationID != orgID {
		return notFound("charge")
	}
	delete(r.charges, id)
	return nil
}

func (r catalogRepository) ListCharges(ctx context.Context, orgID uuid.UUID, filter model.ListFilter) ([]*model.Charge, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Charge
	for _, c := range r.charges {
		if c.OrganizationID == orgID && matches(filter.Search, c.Name) {
			out = append(out, r.withTax(c))
		}
	}
	items, total := paginate(out, func(c *model.Charge) time.Time { return c.CreatedAt }, filter.Page, filter.PageSize)
	return items, total, nil
}
