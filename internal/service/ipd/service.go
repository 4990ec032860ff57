// Package ipd runs in-patient admissions: the admission bill, the
// consultant register, operations and the discharge gate over all of them.
package ipd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/bill"
	"github.com/jwalitptl/hms-api/internal/service/employee"
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

// ReasonDischarged is reported for every change attempted after discharge.
const ReasonDischarged = "admission is discharged"

// Capabilities is the discharge gate of one admission. It is derived once
// per request and handed to every mutation that touches the admission.
type Capabilities struct {
	CanMutate bool   `json:"can_mutate"`
	Reason    string `json:"reason,omitempty"`
}

func CapabilitiesOf(a *model.Admission) Capabilities {
	if a.DischargeStatus == model.DischargePending {
		return Capabilities{CanMutate: true}
	}
	return Capabilities{Reason: ReasonDischarged}
}

// Allow makes Capabilities usable as a bill.Gate.
func (c Capabilities) Allow() error {
	if c.CanMutate {
		return nil
	}
	return apperrors.Conflict(c.Reason)
}

// AdmissionDetails is the admission with its bill and gate.
type AdmissionDetails struct {
	*model.Admission
	Bill         *model.BillDetails `json:"bill"`
	Capabilities Capabilities       `json:"capabilities"`
}

type Service struct {
	repo      repository.AdmissionRepository
	bills     *bill.Service
	employees *employee.Service
	recorder  lifecycle.Recorder
	auditor   audit.Logger
	now       func() time.Time
}

func NewService(repo repository.AdmissionRepository, bills *bill.Service, employees *employee.Service, auditor audit.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		bills:     bills,
		employees: employees,
		recorder:  lifecycle.NewRecorder(m, auditor),
		auditor:   auditor,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Admit opens an admission together with its IPD bill.
func (s *Service) Admit(ctx context.Context, orgID uuid.UUID, req *model.CreateAdmissionRequest) (*AdmissionDetails, error) {
	if req.CreditLimit.IsNegative() {
		return nil, apperrors.BadRequest("credit limit must not be negative", nil)
	}

	admittedAt := s.now()
	if req.AdmittedAt != nil {
		admittedAt = *req.AdmittedAt
	}

	base, tax := req.BaseAmount, req.TaxPercent
	b, err := s.bills.Prepare(ctx, orgID, model.BillKindIPD, &model.CreateBillRequest{
		PatientID:   req.PatientID,
		DoctorID:    &req.DoctorID,
		Description: req.Diagnosis,
		ServiceDate: &admittedAt,
		BaseAmount:  &base,
		Discount:    req.Discount,
		TaxPercent:  &tax,
	})
	if err != nil {
		return nil, err
	}

	a := &model.Admission{
		Base:            model.Base{ID: uuid.New()},
		OrganizationID:  orgID,
		PatientID:       b.PatientID,
		PatientName:     b.PatientName,
		DoctorID:        req.DoctorID,
		BillID:          b.ID,
		AdmittedAt:      admittedAt,
		BedNumber:       req.BedNumber,
		Ward:            req.Ward,
		Diagnosis:       req.Diagnosis,
		DischargeStatus: model.DischargePending,
		CreditLimit:     req.CreditLimit,
	}

	event, err := bill.NewBillEvent(model.EventAdmissionCreated, b, &a.ID, string(a.DischargeStatus))
	if err != nil {
		return nil, fmt.Errorf("failed to build admission event: %w", err)
	}
	if err := s.repo.Create(ctx, a, b, event); err != nil {
		return nil, fmt.Errorf("failed to create admission: %w", err)
	}

	s.bills.Opened(ctx, b)
	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionCreate,
		EntityType:     model.AuditEntityAdmission,
		EntityID:       a.ID,
		Details:        map[string]interface{}{"bill_id": b.ID},
	})

	caps := CapabilitiesOf(a)
	return &AdmissionDetails{
		Admission: a,
		Bill: &model.BillDetails{
			Bill:         b,
			DueAmount:    b.DueAmount(),
			Payments:     []*model.Payment{},
			Capabilities: model.CapabilitiesFor(b, 0).Gate(caps.CanMutate),
		},
		Capabilities: caps,
	}, nil
}

func (s *Service) load(ctx context.Context, orgID, id uuid.UUID) (*model.Admission, Capabilities, error) {
	a, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, Capabilities{}, err
	}
	return a, CapabilitiesOf(a), nil
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*AdmissionDetails, error) {
	a, caps, err := s.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	b, err := s.bills.Get(ctx, orgID, model.BillKindIPD, a.BillID, caps)
	if err != nil {
		return nil, err
	}
	return &AdmissionDetails{Admission: a, Bill: b, Capabilities: caps}, nil
}

func (s *Service) Capabilities(ctx context.Context, orgID, id uuid.UUID) (Capabilities, error) {
	_, caps, err := s.load(ctx, orgID, id)
	return caps, err
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, filter model.AdmissionFilter) ([]*model.Admission, int, error) {
	return s.repo.List(ctx, orgID, filter)
}

func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, req *model.UpdateAdmissionRequest) (*model.Admission, error) {
	a, caps, err := s.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := caps.Allow(); err != nil {
		return nil, err
	}
	if req.DoctorID != nil {
		if _, err := s.employees.Doctor(ctx, orgID, *req.DoctorID); err != nil {
			return nil, err
		}
	}

	req.Apply(a)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update admission: %w", err)
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionUpdate,
		EntityType:     model.AuditEntityAdmission,
		EntityID:       a.ID,
	})
	return a, nil
}

// UpdateBill changes the charges of the admission's bill. Consultant fees
// and operation charges are not added to it automatically.
func (s *Service) UpdateBill(ctx context.Context, orgID, id uuid.UUID, req *model.UpdateBillRequest) (*model.BillDetails, error) {
	a, caps, err := s.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.bills.Update(ctx, orgID, model.BillKindIPD, a.BillID, req, caps)
}

// Discharge closes the admission. It is one-way: a discharged admission
// cannot be discharged again or reopened.
func (s *Service) Discharge(ctx context.Context, orgID, id uuid.UUID, req *model.DischargeRequest) (*AdmissionDetails, error) {
	if req.Status == model.DischargePending || !req.Status.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid discharge status %q", req.Status), nil)
	}

	a, caps, err := s.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !caps.CanMutate {
		return nil, apperrors.Conflict("admission is already discharged")
	}

	dischargedAt := s.now()
	if req.DischargedAt != nil {
		dischargedAt = *req.DischargedAt
	}
	if dischargedAt.Before(a.AdmittedAt) {
		return nil, apperrors.BadRequest("discharge must not be before admission", nil)
	}

	current, err := s.bills.Get(ctx, orgID, model.BillKindIPD, a.BillID, caps)
	if err != nil {
		return nil, err
	}

	a.DischargeStatus = req.Status
	a.DischargedAt = &dischargedAt
	event, err := bill.NewBillEvent(model.EventAdmissionDischarged, current.Bill, &a.ID, string(a.DischargeStatus))
	if err != nil {
		return nil, fmt.Errorf("failed to build discharge event: %w", err)
	}
	if err := s.repo.Discharge(ctx, a, event); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Conflict("admission is already discharged")
		}
		return nil, err
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionDischarge,
		EntityType:     model.AuditEntityAdmission,
		EntityID:       a.ID,
		Details:        map[string]interface{}{"status": a.DischargeStatus},
	})

	caps = CapabilitiesOf(a)
	current.Capabilities = model.CapabilitiesFor(current.Bill, len(current.Payments)).Gate(caps.CanMutate)
	return &AdmissionDetails{Admission: a, Bill: current, Capabilities: caps}, nil
}

func (s *Service) RecordPayment(ctx context.Context, orgID, id uuid.UUID, req *model.RecordPaymentRequest) (*model.PaymentResult, error) {
	a, caps, err := s.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.bills.RecordPayment(ctx, orgID, model.BillKindIPD, a.BillID, req, caps)
}

func (s *Service) ListPayments(ctx context.Context, orgID, id uuid.UUID) ([]*model.Payment, error) {
	a, _, err := s.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.bills.ListPayments(ctx, orgID, model.BillKindIPD, a.BillID)
}

func (s *Service) DeletePayment(ctx context.Context, orgID, id, paymentID uuid.UUID) (*model.PaymentResult, error) {
	a, caps, err := s.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.bills.DeletePayment(ctx, orgID, model.BillKindIPD, a.BillID, paymentID, caps)
}

// Receipt stays available after discharge.
func (s *Service) Receipt(ctx context.Context, orgID, id uuid.UUID) (*model.Receipt, error) {
	a, _, err := s.load(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.bills.Receipt(ctx, orgID, model.BillKindIPD, a.BillID)
}

func (s *Service) EditPayment() error {
	return s.bills.EditPayment()
}
