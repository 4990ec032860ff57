package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount = errors.New("payment amount must be greater than zero")
	ErrReferenceRequired = errors.New("reference number is required for non-cash payments")
	ErrUnknownMode       = errors.New("unknown payment mode")
	ErrUnknownPurpose    = errors.New("unknown payment purpose")
	ErrExceedsDue        = errors.New("payment amount exceeds due amount")
)

type Status string

const (
	StatusUnpaid        Status = "unpaid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
)

type PaymentMode string

const (
	ModeCash         PaymentMode = "Cash"
	ModeCard         PaymentMode = "Card"
	ModeUPI          PaymentMode = "UPI"
	ModeBankTransfer PaymentMode = "BankTransfer"
	ModeCheque       PaymentMode = "Cheque"
	ModeOnline       PaymentMode = "Online"
)

var knownModes = map[PaymentMode]bool{
	ModeCash:         true,
	ModeCard:         true,
	ModeUPI:          true,
	ModeBankTransfer: true,
	ModeCheque:       true,
	ModeOnline:       true,
}

// Valid reports whether m is one of the accepted payment modes.
func (m PaymentMode) Valid() bool {
	return knownModes[m]
}

// Purpose separates ordinary payments from credit top-ups. Credit entries
// raise an admission's credit limit and never count towards the paid amount.
type Purpose string

const (
	PurposePayment Purpose = "payment"
	PurposeCredit  Purpose = "credit"
)

// PaymentInput is a payment about to be applied to a bill.
type PaymentInput struct {
	Amount          decimal.Decimal
	Mode            PaymentMode
	ReferenceNumber string
	Purpose         Purpose
}

// StatusFor derives the bill status from its net and paid amounts.
func StatusFor(net, paid decimal.Decimal) Status {
	switch {
	case paid.GreaterThanOrEqual(net):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartiallyPaid
	default:
		return StatusUnpaid
	}
}

// Ledger tracks the running balance of one bill.
type Ledger struct {
	Net  decimal.Decimal
	Paid decimal.Decimal
}

// NewLedger starts from the amount already paid and adds any payments made
// in the current session.
func NewLedger(net, priorPaid decimal.Decimal, session ...decimal.Decimal) Ledger {
	paid := priorPaid
	for _, amt := range session {
		paid = paid.Add(amt)
	}
	return Ledger{Net: net, Paid: paid}
}

func (l Ledger) Due() decimal.Decimal {
	return l.Net.Sub(l.Paid)
}

func (l Ledger) Status() Status {
	return StatusFor(l.Net, l.Paid)
}

// Validate checks p against the ledger without applying it.
func (l Ledger) Validate(p PaymentInput) error {
	if !p.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if err := CheckAmount(p.Amount); err != nil {
		return err
	}
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, p.Mode)
	}
	if p.Mode != ModeCash && strings.TrimSpace(p.ReferenceNumber) == "" {
		return ErrReferenceRequired
	}

	switch p.Purpose {
	case PurposePayment, "":
		if p.Amount.GreaterThan(l.Due()) {
			return ErrExceedsDue
		}
	case PurposeCredit:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPurpose, p.Purpose)
	}
	return nil
}

// Apply validates p and returns the ledger after it.
func (l Ledger) Apply(p PaymentInput) (Ledger, error) {
	if err := l.Validate(p); err != nil {
		return l, err
	}
	if p.Purpose == PurposeCredit {
		return l, nil
	}
	return Ledger{Net: l.Net, Paid: l.Paid.Add(p.Amount)}, nil
}

// Remove reverses a previously applied payment.
func (l Ledger) Remove(amount decimal.Decimal, purpose Purpose) Ledger {
	if purpose == PurposeCredit {
		return l
	}
	paid := l.Paid.Sub(amount)
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	return Ledger{Net: l.Net, Paid: paid}
}
