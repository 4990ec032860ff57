package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogKind names the simple lookup tables of the pricing catalog.
type CatalogKind string

const (
	CatalogChargeCategories CatalogKind = "charge_categories"
	CatalogChargeTypes      CatalogKind = "charge_types"
	CatalogUnits            CatalogKind = "units"
)

func (k CatalogKind) Valid() bool {
	switch k {
	case CatalogChargeCategories, CatalogChargeTypes, CatalogUnits:
		return true
	}
	return false
}

// CatalogItem is a row of one of the lookup tables.
type CatalogItem struct {
	Base
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description,omitempty"`
}

type TaxCategory struct {
	Base
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	Name           string          `db:"name" json:"name"`
	Percent        decimal.Decimal `db:"percent" json:"percent"`
}

// Charge is a priced catalog entry. TaxPercent is read from its tax category.
type Charge struct {
	Base
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	Name           string          `db:"name" json:"name"`
	CategoryID     uuid.UUID       `db:"category_id" json:"category_id"`
	TypeID         uuid.UUID       `db:"type_id" json:"type_id"`
	TaxCategoryID  uuid.UUID       `db:"tax_category_id" json:"tax_category_id"`
	UnitID         uuid.UUID       `db:"unit_id" json:"unit_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	TaxPercent     decimal.Decimal `db:"tax_percent" json:"tax_percent"`
}

type CatalogItemRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type TaxCategoryRequest struct {
	Name    string          `json:"name" binding:"required,max=100"`
	Percent decimal.Decimal `json:"percent"`
}

type ChargeRequest struct {
	Name          string          `json:"name" binding:"required,max=200"`
	CategoryID    uuid.UUID       `json:"category_id" binding:"required"`
	TypeID        uuid.UUID       `json:"type_id" binding:"required"`
	TaxCategoryID uuid.UUID       `json:"tax_category_id" binding:"required"`
	UnitID        uuid.UUID       `json:"unit_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
}
