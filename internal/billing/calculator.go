// Package billing holds the bill arithmetic shared by every billing module:
// ambulance bookings, pathology and radiology bills, and IPD admissions.
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeBase         = errors.New("base amount must not be negative")
	ErrNegativeDiscount     = errors.New("discount must not be negative")
	ErrNegativeTax          = errors.New("tax percent must not be negative")
	ErrDiscountPercentRange = errors.New("discount percent must not exceed 100")
	ErrDiscountExceedsBase  = errors.New("discount must not exceed base amount")
	ErrUnknownDiscountKind  = errors.New("unknown discount kind")
	ErrTaxPercentRange      = errors.New("tax percent must not exceed 100")
	ErrTooManyDecimals      = errors.New("amounts must have at most 2 decimal places")
	ErrAmountTooLarge       = errors.New("amount exceeds 9999999999.99")
)

var hundred = decimal.NewFromInt(100)

// MoneyPlaces is the number of decimal places amounts are rounded to.
const MoneyPlaces = 2

// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// CheckAmount rejects values that would not survive storage unchanged:
// more than two decimal places, or more than MaxAmount.
func CheckAmount(v decimal.Decimal) error {
	if !v.Equal(v.Truncate(MoneyPlaces)) {
		return ErrTooManyDecimals
	}
	if v.Abs().GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

type DiscountKind string

const (
	DiscountAmount  DiscountKind = "amount"
	DiscountPercent DiscountKind = "percent"
)

// Discount is either a flat amount or a percentage of the base amount.
// Bills always persist the resolved amount.
type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

func AmountOff(v decimal.Decimal) Discount {
	return Discount{Kind: DiscountAmount, Value: v}
}

func PercentOff(v decimal.Decimal) Discount {
	return Discount{Kind: DiscountPercent, Value: v}
}

// Resolve converts the discount to an amount against base.
func (d Discount) Resolve(base decimal.Decimal) (decimal.Decimal, error) {
	if d.Value.IsNegative() {
		return decimal.Zero, ErrNegativeDiscount
	}
	if err := CheckAmount(d.Value); err != nil {
		return decimal.Zero, err
	}

	switch d.Kind {
	case DiscountAmount, "":
		return d.Value, nil
	case DiscountPercent:
		if d.Value.GreaterThan(hundred) {
			return decimal.Zero, ErrDiscountPercentRange
		}
		return base.Mul(d.Value).Div(hundred).Round(MoneyPlaces), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownDiscountKind, d.Kind)
	}
}

// Totals is the derived breakdown of a bill.
type Totals struct {
	Base           decimal.Decimal `json:"base_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxPercent     decimal.Decimal `json:"tax_percent"`
	Taxable        decimal.Decimal `json:"taxable_amount"`
	Tax            decimal.Decimal `json:"tax_amount"`
	Net            decimal.Decimal `json:"net_amount"`
}

// Calculate applies the discount first and tax on the remainder:
// taxable = base - discount, tax = taxable * taxPercent / 100, net = taxable + tax.
// Only the tax amount is rounded, so net always equals taxable + tax exactly.
func Calculate(base decimal.Decimal, discount Discount, taxPercent decimal.Decimal) (Totals, error) {
	if base.IsNegative() {
		return Totals{}, ErrNegativeBase
	}
	if taxPercent.IsNegative() {
		return Totals{}, ErrNegativeTax
	}
	if taxPercent.GreaterThan(hundred) {
		return Totals{}, ErrTaxPercentRange
	}
	for _, v := range []decimal.Decimal{base, taxPercent} {
		if err := CheckAmount(v); err != nil {
			return Totals{}, err
		}
	}

	discountAmount, err := discount.Resolve(base)
	if err != nil {
		return Totals{}, err
	}
	if discountAmount.GreaterThan(base) {
		return Totals{}, ErrDiscountExceedsBase
	}

	taxable := base.Sub(discountAmount)
	tax := taxable.Mul(taxPercent).Div(hundred).Round(MoneyPlaces)
	if taxable.Add(tax).GreaterThan(MaxAmount) {
		return Totals{}, ErrAmountTooLarge
	}

	return Totals{
		Base:           base,
		DiscountAmount: discountAmount,
		TaxPercent:     taxPercent,
		Taxable:        taxable,
		Tax:            tax,
		Net:            taxable.Add(tax),
	}, nil
}
