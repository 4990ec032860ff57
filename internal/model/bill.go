package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/hms-api/internal/billing"
)

// BillKind identifies which billing module owns a bill.
type BillKind string

const (
	BillKindAmbulance BillKind = "ambulance"
	BillKindPathology BillKind = "pathology"
	BillKindRadiology BillKind = "radiology"
	BillKindIPD       BillKind = "ipd"
)

var billPrefixes = map[BillKind]string{
	BillKindAmbulance: "AMB",
	BillKindPathology: "PTH",
	BillKindRadiology: "RAD",
	BillKindIPD:       "IPD",
}

func (k BillKind) Valid() bool {
	_, ok := billPrefixes[k]
	return ok
}

// Prefix is the bill number prefix of the kind.
func (k BillKind) Prefix() string {
	return billPrefixes[k]
}

// NewBillNumber returns a bill number of the form PREFIX-YYYYMMDD-xxxxxx.
func NewBillNumber(kind BillKind, at time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%s-%x", kind.Prefix(), at.Format("20060102"), id[:3])
}

// Bill is the aggregate shared by ambulance bookings, pathology and
// radiology bills and IPD admissions.
type Bill struct {
	Base
	SoftDelete
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	Kind           BillKind        `db:"kind" json:"kind"`
	BillNumber     string          `db:"bill_number" json:"bill_number"`
	PatientID      uuid.UUID       `db:"patient_id" json:"patient_id"`
	PatientName    string          `db:"patient_name" json:"patient_name"`
	ChargeID       *uuid.UUID      `db:"charge_id" json:"charge_id,omitempty"`
	DoctorID       *uuid.UUID      `db:"doctor_id" json:"doctor_id,omitempty"`
	Description    string          `db:"description" json:"description,omitempty"`
	ServiceDate    time.Time       `db:"service_date" json:"service_date"`
	Details        JSONMap         `db:"details" json:"details,omitempty"`
	BaseAmount     decimal.Decimal `db:"base_amount" json:"base_amount"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	TaxPercent     decimal.Decimal `db:"tax_percent" json:"tax_percent"`
	TaxableAmount  decimal.Decimal `db:"taxable_amount" json:"taxable_amount"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	NetAmount      decimal.Decimal `db:"net_amount" json:"net_amount"`
	PaidAmount     decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	Status         billing.Status  `db:"status" json:"status"`
}

// ApplyTotals stores a freshly calculated breakdown and refreshes the status
// against the amount already paid.
func (b *Bill) ApplyTotals(t billing.Totals) {
	b.BaseAmount = t.Base
	b.DiscountAmount = t.DiscountAmount
	b.TaxPercent = t.TaxPercent
	b.TaxableAmount = t.Taxable
	b.TaxAmount = t.Tax
	b.NetAmount = t.Net
	b.Status = billing.StatusFor(b.NetAmount, b.PaidAmount)
}

// ApplyLedger copies the paid amount and status of l.
func (b *Bill) ApplyLedger(l billing.Ledger) {
	b.PaidAmount = l.Paid
	b.Status = l.Status()
}

func (b *Bill) Ledger() billing.Ledger {
	return billing.NewLedger(b.NetAmount, b.PaidAmount)
}

func (b *Bill) DueAmount() decimal.Decimal {
	return b.Ledger().Due()
}

// BillCapabilities are the actions currently allowed on a bill.
type BillCapabilities struct {
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanPrint  bool `json:"can_print"`
}

// CapabilitiesFor derives the allowed actions from the bill status and
// its number of payments.
func CapabilitiesFor(b *Bill, paymentCount int) BillCapabilities {
	return BillCapabilities{
		CanEdit:   b.Status != billing.StatusPaid && !b.IsDeleted,
		CanDelete: paymentCount == 0 && !b.IsDeleted,
		CanPrint:  paymentCount > 0,
	}
}

// Gate withdraws the mutating capabilities when canMutate is false.
func (c BillCapabilities) Gate(canMutate bool) BillCapabilities {
	c.CanEdit = c.CanEdit && canMutate
	c.CanDelete = c.CanDelete && canMutate
	return c
}

// BillDetails is the bill with everything the details screen shows.
type BillDetails struct {
	*Bill
	DueAmount    decimal.Decimal  `json:"due_amount"`
	Payments     []*Payment       `json:"payments"`
	Capabilities BillCapabilities `json:"capabilities"`
}

type CreateBillRequest struct {
	PatientID   uuid.UUID        `json:"patient_id" binding:"required"`
	ChargeID    *uuid.UUID       `json:"charge_id"`
	DoctorID    *uuid.UUID       `json:"doctor_id"`
	Description string           `json:"description" binding:"max=500"`
	ServiceDate *time.Time       `json:"service_date"`
	BaseAmount  *decimal.Decimal `json:"base_amount"`
	Discount    billing.Discount `json:"discount"`
	TaxPercent  *decimal.Decimal `json:"tax_percent"`
	Details     JSONMap          `json:"details"`
}

type UpdateBillRequest struct {
	DoctorID    *uuid.UUID        `json:"doctor_id"`
	Description *string           `json:"description" binding:"omitempty,max=500"`
	ServiceDate *time.Time        `json:"service_date"`
	BaseAmount  *decimal.Decimal  `json:"base_amount"`
	Discount    *billing.Discount `json:"discount"`
	TaxPercent  *decimal.Decimal  `json:"tax_percent"`
	Details     JSONMap           `json:"details"`
}

// DiscountFor returns the bill's stored discount, or the requested one.
func (r *UpdateBillRequest) DiscountFor(b *Bill) billing.Discount {
	if r.Discount != nil {
		return *r.Discount
	}
	return billing.AmountOff(b.DiscountAmount)
}

type BillFilter struct {
	ListFilter
	Status billing.Status `form:"status" binding:"omitempty,oneof=unpaid partially_paid paid"`
}
