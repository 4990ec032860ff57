package model

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/hms-api/internal/billing"
)

func TestNewBillNumber(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^(AMB|PTH|RAD|IPD)-20240309-[0-9a-f]{6}$`)

	for _, kind := range []BillKind{BillKindAmbulance, BillKindPathology, BillKindRadiology, BillKindIPD} {
		n := NewBillNumber(kind, at)
		assert.Regexp(t, pattern, n)
		assert.Equal(t, kind.Prefix(), n[:3])
	}
}

func TestCapabilitiesFor(t *testing.T) {
	unpaid := &Bill{Status: billing.StatusUnpaid}
	partial := &Bill{Status: billing.StatusPartiallyPaid}
	paid := &Bill{Status: billing.StatusPaid}

	assert.Equal(t, BillCapabilities{CanEdit: true, CanDelete: true, CanPrint: false}, CapabilitiesFor(unpaid, 0))
	assert.Equal(t, BillCapabilities{CanEdit: true, CanDelete: false, CanPrint: true}, CapabilitiesFor(partial, 1))
	assert.Equal(t, BillCapabilities{CanEdit: false, CanDelete: false, CanPrint: true}, CapabilitiesFor(paid, 2))
}

func TestBillCapabilities_Gate(t *testing.T) {
	caps := BillCapabilities{CanEdit: true, CanDelete: true, CanPrint: true}

	assert.Equal(t, caps, caps.Gate(true))
	assert.Equal(t, BillCapabilities{CanPrint: true}, caps.Gate(false))
}

func TestBill_ApplyTotalsKeepsStatusInStep(t *testing.T) {
	b := &Bill{PaidAmount: decimal.NewFromInt(500)}

	totals, err := billing.Calculate(decimal.NewFromInt(500), billing.AmountOff(decimal.Zero), decimal.Zero)
	assert.NoError(t, err)
	b.ApplyTotals(totals)
	assert.Equal(t, billing.StatusPaid, b.Status)

	totals, err = billing.Calculate(decimal.NewFromInt(800), billing.AmountOff(decimal.Zero), decimal.Zero)
	assert.NoError(t, err)
	b.ApplyTotals(totals)
	assert.Equal(t, billing.StatusPartiallyPaid, b.Status)
	assert.True(t, b.DueAmount().Equal(decimal.NewFromInt(300)))
}
