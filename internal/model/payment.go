package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/hms-api/internal/billing"
)

type Payment struct {
	Base
	BillID          uuid.UUID           `db:"bill_id" json:"bill_id"`
	Amount          decimal.Decimal     `db:"amount" json:"amount"`
	Mode            billing.PaymentMode `db:"mode" json:"mode"`
	ReferenceNumber *string             `db:"reference_number" json:"reference_number,omitempty"`
	Purpose         billing.Purpose     `db:"purpose" json:"purpose"`
	PaidAt          time.Time           `db:"paid_at" json:"paid_at"`
	Notes           string              `db:"notes" json:"notes,omitempty"`
	RecordedBy      *uuid.UUID          `db:"recorded_by" json:"recorded_by,omitempty"`
}

type RecordPaymentRequest struct {
	Amount          decimal.Decimal     `json:"amount"`
	Mode            billing.PaymentMode `json:"mode" binding:"required"`
	ReferenceNumber string              `json:"reference_number" binding:"max=100"`
	PaidAt          *time.Time          `json:"paid_at"`
	Notes           string              `json:"notes" binding:"max=500"`
	ToCredit        bool                `json:"to_credit"`
}

// Input converts the request into a ledger entry.
func (r *RecordPaymentRequest) Input() billing.PaymentInput {
	purpose := billing.PurposePayment
	if r.ToCredit {
		purpose = billing.PurposeCredit
	}
	return billing.PaymentInput{
		Amount:          r.Amount,
		Mode:            r.Mode,
		ReferenceNumber: strings.TrimSpace(r.ReferenceNumber),
		Purpose:         purpose,
	}
}

// NewPayment builds the payment row for a validated request.
func (r *RecordPaymentRequest) NewPayment(billID uuid.UUID, recordedBy uuid.UUID, now time.Time) *Payment {
	in := r.Input()
	p := &Payment{
		Base:    Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BillID:  billID,
		Amount:  in.Amount,
		Mode:    in.Mode,
		Purpose: in.Purpose,
		PaidAt:  now,
		Notes:   r.Notes,
	}
	if r.PaidAt != nil {
		p.PaidAt = *r.PaidAt
	}
	if in.ReferenceNumber != "" {
		p.ReferenceNumber = &in.ReferenceNumber
	}
	if recordedBy != uuid.Nil {
		p.RecordedBy = &recordedBy
	}
	return p
}

// PaymentResult is returned after a payment is recorded or removed.
type PaymentResult struct {
	Payment   *Payment        `json:"payment"`
	Bill      *Bill           `json:"bill"`
	DueAmount decimal.Decimal `json:"due_amount"`
}

// Receipt is the data printed on a payment receipt.
type Receipt struct {
	Organization *Organization   `json:"organization"`
	Bill         *Bill           `json:"bill"`
	Payments     []*Payment      `json:"payments"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	DueAmount    decimal.Decimal `json:"due_amount"`
	Status       billing.Status  `json:"status"`
	GeneratedAt  time.Time       `json:"generated_at"`
}
