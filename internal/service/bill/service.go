// Package bill implements the bill workflow shared by ambulance bookings,
// pathology and radiology bills and IPD admissions.
package bill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/hms-api/internal/billing"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/catalog"
	"github.com/jwalitptl/hms-api/internal/service/employee"
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	"github.com/jwalitptl/hms-api/internal/tenant"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

// Gate decides whether the record owning a bill still accepts changes.
// Printing is never gated.
type Gate interface {
	Allow() error
}

type openGate struct{}

func (openGate) Allow() error { return nil }

// Open is the gate of stand-alone bills.
var Open Gate = openGate{}

const (
	msgPaidBill          = "paid bills cannot be edited"
	msgBillHasPayments   = "bills with payments cannot be deleted"
	msgNoReceipt         = "a receipt is available once the bill has a payment"
	msgPaymentEdit       = "editing a payment is not supported; delete it and record a new one"
	msgCreditOnlyForIPD  = "only IPD payments can be added to credit"
	msgNetBelowPaid      = "net amount must not fall below the amount already paid"
	msgBaseAmountMissing = "base_amount or charge_id is required"
)

type Service struct {
	repo      repository.BillRepository
	orgs      repository.OrganizationRepository
	catalog   *catalog.Service
	patients  *patient.Service
	employees *employee.Service
	recorder  lifecycle.Recorder
	auditor   audit.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	repo repository.BillRepository,
	orgs repository.OrganizationRepository,
	catalogService *catalog.Service,
	patients *patient.Service,
	employees *employee.Service,
	auditor audit.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:      repo,
		orgs:      orgs,
		catalog:   catalogService,
		patients:  patients,
		employees: employees,
		recorder:  lifecycle.NewRecorder(m, auditor),
		auditor:   auditor,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Prepare validates req and builds an unsaved bill with its totals.
func (s *Service) Prepare(ctx context.Context, orgID uuid.UUID, kind model.BillKind, req *model.CreateBillRequest) (*model.Bill, error) {
	if !kind.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown bill kind %q", kind), nil)
	}

	p, err := s.patients.Active(ctx, orgID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if req.DoctorID != nil {
		if _, err := s.employees.Doctor(ctx, orgID, *req.DoctorID); err != nil {
			return nil, err
		}
	}

	var base, taxPercent decimal.Decimal
	description := req.Description
	switch {
	case req.ChargeID != nil:
		charge, err := s.catalog.GetCharge(ctx, orgID, *req.ChargeID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.BadRequest("unknown charge", err)
			}
			return nil, err
		}
		base, taxPercent = charge.Amount, charge.TaxPercent
		if description == "" {
			description = charge.Name
		}
	case req.BaseAmount == nil:
		return nil, apperrors.BadRequest(msgBaseAmountMissing, nil)
	}
	if req.BaseAmount != nil {
		base = *req.BaseAmount
	}
	if req.TaxPercent != nil {
		taxPercent = *req.TaxPercent
	}

	totals, err := billing.Calculate(base, req.Discount, taxPercent)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	now := s.now()
	b := &model.Bill{
		Base:           model.Base{ID: uuid.New()},
		OrganizationID: orgID,
		Kind:           kind,
		BillNumber:     model.NewBillNumber(kind, now),
		PatientID:      p.ID,
		PatientName:    p.FullName(),
		ChargeID:       req.ChargeID,
		DoctorID:       req.DoctorID,
		Description:    description,
		ServiceDate:    now,
		Details:        req.Details,
		PaidAmount:     decimal.Zero,
	}
	if req.ServiceDate != nil {
		b.ServiceDate = *req.ServiceDate
	}
	b.ApplyTotals(totals)
	return b, nil
}

// NewBillEvent builds the outbox event describing b.
func NewBillEvent(eventType string, b *model.Bill, admissionID *uuid.UUID, status string) (*model.OutboxEvent, error) {
	return model.NewOutboxEvent(b.OrganizationID, eventType, model.BillEvent{
		BillID:      b.ID,
		BillNumber:  b.BillNumber,
		Kind:        b.Kind,
		PatientID:   b.PatientID,
		NetAmount:   b.NetAmount,
		AdmissionID: admissionID,
		Status:      status,
	})
}

// Opened records a bill that has just been saved.
func (s *Service) Opened(ctx context.Context, b *model.Bill) {
	s.metrics.BillsCreated.WithLabelValues(string(b.Kind)).Inc()
	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: b.OrganizationID,
		Action:         model.AuditActionCreate,
		EntityType:     model.AuditEntityBill,
		EntityID:       b.ID,
		Details:        map[string]interface{}{"kind": b.Kind, "bill_number": b.BillNumber},
	})
}

func (s *Service) Create(ctx context.Context, orgID uuid.UUID, kind model.BillKind, req *model.CreateBillRequest) (*model.BillDetails, error) {
	b, err := s.Prepare(ctx, orgID, kind, req)
	if err != nil {
		return nil, err
	}

	event, err := NewBillEvent(model.EventBillCreated, b, nil, string(b.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to build bill event: %w", err)
	}
	if err := s.repo.Create(ctx, b, event); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}

	s.Opened(ctx, b)
	return details(b, []*model.Payment{}, Open), nil
}

func details(b *model.Bill, payments []*model.Payment, gate Gate) *model.BillDetails {
	return &model.BillDetails{
		Bill:         b,
		DueAmount:    b.DueAmount(),
		Payments:     payments,
		Capabilities: model.CapabilitiesFor(b, len(payments)).Gate(gate.Allow() == nil),
	}
}

// Get returns the bill with its payments and the actions currently allowed.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID, gate Gate) (*model.BillDetails, error) {
	b, err := s.repo.Get(ctx, orgID, kind, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return details(b, payments, gate), nil
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, kind model.BillKind, filter model.BillFilter) ([]*model.Bill, int, error) {
	return s.repo.List(ctx, orgID, kind, filter)
}

// Update recalculates the totals. Paid bills are frozen.
func (s *Service) Update(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID, req *model.UpdateBillRequest, gate Gate) (*model.BillDetails, error) {
	if err := gate.Allow(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, orgID, kind, id, gate)
	if err != nil {
		return nil, err
	}
	b := current.Bill
	if err := lifecycle.RequireActive(b.SoftDelete, "bill"); err != nil {
		return nil, err
	}
	if !current.Capabilities.CanEdit {
		return nil, apperrors.Conflict(msgPaidBill)
	}

	if req.DoctorID != nil {
		if _, err := s.employees.Doctor(ctx, orgID, *req.DoctorID); err != nil {
			return nil, err
		}
		b.DoctorID = req.DoctorID
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.ServiceDate != nil {
		b.ServiceDate = *req.ServiceDate
	}
	if req.Details != nil {
		b.Details = req.Details
	}

	base, taxPercent := b.BaseAmount, b.TaxPercent
	if req.BaseAmount != nil {
		base = *req.BaseAmount
	}
	if req.TaxPercent != nil {
		taxPercent = *req.TaxPercent
	}
	totals, err := billing.Calculate(base, req.DiscountFor(b), taxPercent)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if totals.Net.LessThan(b.PaidAmount) {
		return nil, apperrors.BadRequest(msgNetBelowPaid, nil)
	}
	b.ApplyTotals(totals)

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionUpdate,
		EntityType:     model.AuditEntityBill,
		EntityID:       b.ID,
		Details:        map[string]interface{}{"net_amount": b.NetAmount.String()},
	})
	return details(b, current.Payments, gate), nil
}

// Delete soft-deletes a bill that has no payments.
func (s *Service) Delete(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID, gate Gate) error {
	if err := gate.Allow(); err != nil {
		return err
	}

	current, err := s.Get(ctx, orgID, kind, id, gate)
	if err != nil {
		return err
	}
	if err := lifecycle.Check(current.SoftDelete, model.TransitionDelete); err != nil {
		return err
	}
	if len(current.Payments) > 0 {
		return apperrors.Conflict(msgBillHasPayments)
	}

	event, err := NewBillEvent(model.EventBillDeleted, current.Bill, nil, "deleted")
	if err != nil {
		return fmt.Errorf("failed to build bill event: %w", err)
	}
	if err := s.repo.SetDeleted(ctx, orgID, kind, id, true, event); err != nil {
		return err
	}

	s.recorder.Record(ctx, orgID, model.AuditEntityBill, id, model.TransitionDelete)
	return nil
}

func ledgerError(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	for _, known := range []error{
		billing.ErrNonPositiveAmount,
		billing.ErrReferenceRequired,
		billing.ErrUnknownMode,
		billing.ErrUnknownPurpose,
		billing.ErrExceedsDue,
		billing.ErrTooManyDecimals,
		billing.ErrAmountTooLarge,
	} {
		if errors.Is(err, known) {
			return apperrors.BadRequest(err.Error(), err)
		}
	}
	return err
}

// RecordPayment applies a payment to the bill's ledger. Credit payments
// leave the balance alone and raise the admission's credit limit instead.
func (s *Service) RecordPayment(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID, req *model.RecordPaymentRequest, gate Gate) (*model.PaymentResult, error) {
	if err := gate.Allow(); err != nil {
		return nil, err
	}
	if req.ToCredit && kind != model.BillKindIPD {
		return nil, apperrors.BadRequest(msgCreditOnlyForIPD, nil)
	}

	current, err := s.repo.Get(ctx, orgID, kind, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireActive(current.SoftDelete, "bill"); err != nil {
		return nil, err
	}
	p, err := s.patients.Get(ctx, orgID, current.PatientID)
	if err != nil {
		return nil, err
	}

	var actor uuid.UUID
	if scope, ok := tenant.FromContext(ctx); ok {
		actor = scope.StaffID
	}

	payment, b, err := s.repo.RecordPayment(ctx, orgID, id, func(locked *model.Bill) (*model.Payment, *model.OutboxEvent, error) {
		l, err := locked.Ledger().Apply(req.Input())
		if err != nil {
			return nil, nil, ledgerError(err)
		}
		locked.ApplyLedger(l)

		payment := req.NewPayment(locked.ID, actor, s.now())
		event, err := model.NewOutboxEvent(orgID, model.EventPaymentRecorded, paymentEvent(locked, payment, p))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build payment event: %w", err)
		}
		return payment, event, nil
	})
	if err != nil {
		return nil, err
	}

	amount, _ := payment.Amount.Float64()
	s.metrics.PaymentsRecorded.WithLabelValues(string(kind), string(payment.Mode), string(payment.Purpose)).Inc()
	s.metrics.PaymentAmount.WithLabelValues(string(kind), string(payment.Purpose)).Add(amount)
	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionPaymentRecorded,
		EntityType:     model.AuditEntityBill,
		EntityID:       b.ID,
		Details: map[string]interface{}{
			"payment_id": payment.ID,
			"amount":     payment.Amount.String(),
			"mode":       payment.Mode,
			"purpose":    payment.Purpose,
		},
	})

	return &model.PaymentResult{Payment: payment, Bill: b, DueAmount: b.DueAmount()}, nil
}

func paymentEvent(b *model.Bill, payment *model.Payment, p *model.Patient) model.PaymentEvent {
	return model.PaymentEvent{
		BillID:       b.ID,
		BillNumber:   b.BillNumber,
		Kind:         b.Kind,
		PaymentID:    payment.ID,
		Amount:       payment.Amount,
		Mode:         payment.Mode,
		Purpose:      payment.Purpose,
		PaidAmount:   b.PaidAmount,
		DueAmount:    b.DueAmount(),
		BillStatus:   b.Status,
		PatientName:  p.FullName(),
		PatientEmail: p.Email,
		PaidAt:       payment.PaidAt,
	}
}

func (s *Service) ListPayments(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID) ([]*model.Payment, error) {
	b, err := s.repo.Get(ctx, orgID, kind, id)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, b.ID)
}

// DeletePayment removes a payment and recomputes the bill's paid amount and
// status in the same transaction.
func (s *Service) DeletePayment(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id, paymentID uuid.UUID, gate Gate) (*model.PaymentResult, error) {
	if err := gate.Allow(); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, orgID, kind, id); err != nil {
		return nil, err
	}

	payment, b, err := s.repo.DeletePayment(ctx, orgID, id, paymentID, func(locked *model.Bill, payment *model.Payment) (*model.OutboxEvent, error) {
		locked.ApplyLedger(locked.Ledger().Remove(payment.Amount, payment.Purpose))
		return model.NewOutboxEvent(orgID, model.EventPaymentDeleted, model.PaymentEvent{
			BillID:     locked.ID,
			BillNumber: locked.BillNumber,
			Kind:       locked.Kind,
			PaymentID:  payment.ID,
			Amount:     payment.Amount,
			Mode:       payment.Mode,
			Purpose:    payment.Purpose,
			PaidAmount: locked.PaidAmount,
			DueAmount:  locked.DueAmount(),
			BillStatus: locked.Status,
			PaidAt:     payment.PaidAt,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentsDeleted.WithLabelValues(string(kind)).Inc()
	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionPaymentDeleted,
		EntityType:     model.AuditEntityBill,
		EntityID:       b.ID,
		Details:        map[string]interface{}{"payment_id": payment.ID, "amount": payment.Amount.String()},
	})

	return &model.PaymentResult{Payment: payment, Bill: b, DueAmount: b.DueAmount()}, nil
}

// EditPayment is not offered. Payments are corrected by deleting and
// recording them again.
func (s *Service) EditPayment() error {
	return apperrors.Unsupported(msgPaymentEdit)
}

// Receipt returns the data printed on a payment receipt.
func (s *Service) Receipt(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID) (*model.Receipt, error) {
	d, err := s.Get(ctx, orgID, kind, id, Open)
	if err != nil {
		return nil, err
	}
	if !d.Capabilities.CanPrint {
		return nil, apperrors.Conflict(msgNoReceipt)
	}

	org, err := s.orgs.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}

	return &model.Receipt{
		Organization: org,
		Bill:         d.Bill,
		Payments:     d.Payments,
		TotalPaid:    d.PaidAmount,
		DueAmount:    d.DueAmount,
		Status:       d.Status,
		GeneratedAt:  s.now(),
	}, nil
}
