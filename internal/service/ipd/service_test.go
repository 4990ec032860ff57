package ipd_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/billing"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/bill"
	"github.com/jwalitptl/hms-api/internal/service/catalog"
	"github.com/jwalitptl/hms-api/internal/service/employee"
	"github.com/jwalitptl/hms-api/internal/service/ipd"
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/security"
)

type fixture struct {
	store     *memory.Store
	svc       *ipd.Service
	metrics   *metrics.Metrics
	orgID     uuid.UUID
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	recorder := lifecycle.NewRecorder(m, audit.Nop())

	org := &model.Organization{Name: "City Hospital", OrgMode: model.OrgModeHospitalFirst}
	require.NoError(t, store.Organizations().Create(ctx, org))
	p := &model.Patient{OrganizationID: org.ID, FirstName: "Ravi", LastName: "Kumar", Phone: "9000000002"}
	require.NoError(t, store.Patients().Create(ctx, p))
	doctor := &model.Staff{OrganizationID: org.ID, FirstName: "Leela", Email: "leela@example.com", Doctor: &model.Doctor{}}
	require.NoError(t, store.Staff().Create(ctx, doctor))

	employees := employee.NewService(store.Staff(), security.NewBcryptHasher(4), recorder)
	bills := bill.NewService(
		store.Bills(),
		store.Organizations(),
		catalog.NewService(store.Catalog()),
		patient.NewService(store.Patients(), recorder),
		employees,
		audit.Nop(),
		m,
	)

	return &fixture{
		store:     store,
		svc:       ipd.NewService(store.Admissions(), bills, employees, audit.Nop(), m),
		metrics:   m,
		orgID:     org.ID,
		patientID: p.ID,
		doctorID:  doctor.ID,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func (f *fixture) admit(t *testing.T) *ipd.AdmissionDetails {
	t.Helper()
	admitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d, err := f.svc.Admit(context.Background(), f.orgID, &model.CreateAdmissionRequest{
		PatientID:   f.patientID,
		DoctorID:    f.doctorID,
		AdmittedAt:  &admitted,
		BedNumber:   "B-12",
		Ward:        "General",
		CreditLimit: dec("5000"),
		BaseAmount:  dec("1500"),
		Discount:    billing.AmountOff(dec("100")),
		TaxPercent:  dec("12"),
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) discharge(t *testing.T, id uuid.UUID) {
	t.Helper()
	_, err := f.svc.Discharge(context.Background(), f.orgID, id, &model.DischargeRequest{Status: model.DischargeDischarged})
	require.NoError(t, err)
}

func cash(amount string) *model.RecordPaymentRequest {
	return &model.RecordPaymentRequest{Amount: dec(amount), Mode: billing.ModeCash}
}

func TestAdmit_OpensBill(t *testing.T) {
	f := newFixture(t)

	d := f.admit(t)

	assert.Equal(t, model.DischargePending, d.DischargeStatus)
	assert.Equal(t, ipd.Capabilities{CanMutate: true}, d.Capabilities)
	assert.Equal(t, d.Bill.ID, d.BillID)
	assert.Equal(t, model.BillKindIPD, d.Bill.Kind)
	assertDecimal(t, "1568", d.Bill.NetAmount)

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAdmissionCreated, events[0].EventType)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BillsCreated.WithLabelValues("ipd")))
}

func TestAdmit_RejectsNegativeCredit(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Admit(context.Background(), f.orgID, &model.CreateAdmissionRequest{
		PatientID:   f.patientID,
		DoctorID:    f.doctorID,
		CreditLimit: dec("-1"),
	})
	assertCode(t, err, apperrors.ErrBadRequest)
}

func TestPayments_SettleAdmissionBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admit(t)

	res, err := f.svc.RecordPayment(ctx, f.orgID, a.ID, cash("1000"))
	require.NoError(t, err)
	assertDecimal(t, "568", res.DueAmount)

	res, err = f.svc.RecordPayment(ctx, f.orgID, a.ID, cash("568"))
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, res.Bill.Status)

	payments, err := f.svc.ListPayments(ctx, f.orgID, a.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestPayments_CreditRaisesLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admit(t)

	req := cash("2000")
	req.ToCredit = true
	res, err := f.svc.RecordPayment(ctx, f.orgID, a.ID, req)
	require.NoError(t, err)
	assertDecimal(t, "1568", res.DueAmount)

	got, err := f.svc.Get(ctx, f.orgID, a.ID)
	require.NoError(t, err)
	assertDecimal(t, "7000", got.CreditLimit)

	_, err = f.svc.DeletePayment(ctx, f.orgID, a.ID, res.Payment.ID)
	require.NoError(t, err)
	got, err = f.svc.Get(ctx, f.orgID, a.ID)
	require.NoError(t, err)
	assertDecimal(t, "5000", got.CreditLimit)
}

func TestDischarge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admit(t)

	t.Run("pending is not a discharge status", func(t *testing.T) {
		_, err := f.svc.Discharge(ctx, f.orgID, a.ID, &model.DischargeRequest{Status: model.DischargePending})
		assertCode(t, err, apperrors.ErrBadRequest)
	})

	t.Run("before admission", func(t *testing.T) {
		early := a.AdmittedAt.Add(-time.Hour)
		_, err := f.svc.Discharge(ctx, f.orgID, a.ID, &model.DischargeRequest{Status: model.DischargeReferred, DischargedAt: &early})
		assertCode(t, err, apperrors.ErrBadRequest)
	})

	t.Run("closes the admission", func(t *testing.T) {
		d, err := f.svc.Discharge(ctx, f.orgID, a.ID, &model.DischargeRequest{Status: model.DischargeReferred})
		require.NoError(t, err)
		assert.Equal(t, model.DischargeReferred, d.DischargeStatus)
		require.NotNil(t, d.DischargedAt)
		assert.Equal(t, ipd.Capabilities{Reason: ipd.ReasonDischarged}, d.Capabilities)
		assert.False(t, d.Bill.Capabilities.CanEdit)

		events := f.store.Events()
		assert.Equal(t, model.EventAdmissionDischarged, events[len(events)-1].EventType)
	})

	t.Run("twice", func(t *testing.T) {
		_, err := f.svc.Discharge(ctx, f.orgID, a.ID, &model.DischargeRequest{Status: model.DischargeDischarged})
		assertCode(t, err, apperrors.ErrConflict)
	})
}

func TestDischargeGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admit(t)

	paid, err := f.svc.RecordPayment(ctx, f.orgID, a.ID, cash("100"))
	require.NoError(t, err)
	entry, err := f.svc.AddConsultant(ctx, f.orgID, a.ID, &model.ConsultantEntryRequest{
		DoctorID:  f.doctorID,
		VisitDate: a.AdmittedAt,
		Fee:       dec("500"),
	})
	require.NoError(t, err)
	op, err := f.svc.AddOperation(ctx, f.orgID, a.ID, &model.OperationRequest{
		ProcedureName: "Appendectomy",
		OperationDate: a.AdmittedAt,
		Charge:        dec("20000"),
	})
	require.NoError(t, err)

	f.discharge(t, a.ID)

	ward := "ICU"
	fee := dec("700")
	mutations := map[string]func() error{
		"update": func() error {
			_, err := f.svc.Update(ctx, f.orgID, a.ID, &model.UpdateAdmissionRequest{Ward: &ward})
			return err
		},
		"update bill": func() error {
			_, err := f.svc.UpdateBill(ctx, f.orgID, a.ID, &model.UpdateBillRequest{})
			return err
		},
		"record payment": func() error {
			_, err := f.svc.RecordPayment(ctx, f.orgID, a.ID, cash("1"))
			return err
		},
		"delete payment": func() error {
			_, err := f.svc.DeletePayment(ctx, f.orgID, a.ID, paid.Payment.ID)
			return err
		},
		"add consultant": func() error {
			_, err := f.svc.AddConsultant(ctx, f.orgID, a.ID, &model.ConsultantEntryRequest{DoctorID: f.doctorID, VisitDate: time.Now()})
			return err
		},
		"update consultant": func() error {
			_, err := f.svc.UpdateConsultant(ctx, f.orgID, a.ID, entry.ID, &model.UpdateConsultantEntryRequest{Fee: &fee})
			return err
		},
		"delete consultant": func() error {
			return f.svc.DeleteConsultant(ctx, f.orgID, a.ID, entry.ID)
		},
		"purge consultant": func() error {
			return f.svc.PurgeConsultant(ctx, f.orgID, a.ID, entry.ID, true)
		},
		"add operation": func() error {
			_, err := f.svc.AddOperation(ctx, f.orgID, a.ID, &model.OperationRequest{ProcedureName: "Suture", OperationDate: time.Now()})
			return err
		},
		"delete operation": func() error {
			return f.svc.DeleteOperation(ctx, f.orgID, a.ID, op.ID)
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			err := mutate()
			assertCode(t, err, apperrors.ErrConflict)
			appErr, _ := apperrors.As(err)
			assert.Equal(t, ipd.ReasonDischarged, appErr.Message)
		})
	}

	t.Run("receipt still prints", func(t *testing.T) {
		r, err := f.svc.Receipt(ctx, f.orgID, a.ID)
		require.NoError(t, err)
		assertDecimal(t, "100", r.TotalPaid)
	})

	t.Run("reads still work", func(t *testing.T) {
		entries, err := f.svc.ListConsultants(ctx, f.orgID, a.ID, false)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestConsultantLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admit(t)

	entry, err := f.svc.AddConsultant(ctx, f.orgID, a.ID, &model.ConsultantEntryRequest{
		DoctorID:  f.doctorID,
		VisitDate: a.AdmittedAt,
		Fee:       dec("500"),
		Notes:     "ward round",
	})
	require.NoError(t, err)

	// Purge requires a prior soft delete.
	assertCode(t, f.svc.PurgeConsultant(ctx, f.orgID, a.ID, entry.ID, true), apperrors.ErrConflict)

	require.NoError(t, f.svc.DeleteConsultant(ctx, f.orgID, a.ID, entry.ID))
	assertCode(t, f.svc.DeleteConsultant(ctx, f.orgID, a.ID, entry.ID), apperrors.ErrConflict)

	active, err := f.svc.ListConsultants(ctx, f.orgID, a.ID, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, f.svc.RestoreConsultant(ctx, f.orgID, a.ID, entry.ID))
	restored, err := f.svc.GetConsultant(ctx, f.orgID, a.ID, entry.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Equal(t, entry.DoctorID, restored.DoctorID)
	assert.Equal(t, entry.Notes, restored.Notes)
	assertDecimal(t, "500", restored.Fee)

	require.NoError(t, f.svc.DeleteConsultant(ctx, f.orgID, a.ID, entry.ID))
	err = f.svc.PurgeConsultant(ctx, f.orgID, a.ID, entry.ID, false)
	assertCode(t, err, apperrors.ErrBadRequest)
	appErr, _ := apperrors.As(err)
	assert.Equal(t, model.PermanentDeleteWarning, appErr.Message)

	require.NoError(t, f.svc.PurgeConsultant(ctx, f.orgID, a.ID, entry.ID, true))
	_, err = f.svc.GetConsultant(ctx, f.orgID, a.ID, entry.ID)
	assertCode(t, err, apperrors.ErrNotFound)
	assertCode(t, f.svc.RestoreConsultant(ctx, f.orgID, a.ID, entry.ID), apperrors.ErrNotFound)

	all, err := f.svc.ListConsultants(ctx, f.orgID, a.ID, true)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LifecycleTransitions.WithLabelValues(model.AuditEntityConsultant, string(model.TransitionPermanentDelete))))
}

func TestConsultant_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admit(t)

	_, err := f.svc.AddConsultant(ctx, f.orgID, a.ID, &model.ConsultantEntryRequest{DoctorID: f.doctorID, Fee: dec("-1")})
	assertCode(t, err, apperrors.ErrBadRequest)

	_, err = f.svc.AddConsultant(ctx, f.orgID, a.ID, &model.ConsultantEntryRequest{DoctorID: uuid.New()})
	assertCode(t, err, apperrors.ErrBadRequest)

	_, err = f.svc.AddConsultant(ctx, f.orgID, uuid.New(), &model.ConsultantEntryRequest{DoctorID: f.doctorID})
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestOperationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admit(t)

	op, err := f.svc.AddOperation(ctx, f.orgID, a.ID, &model.OperationRequest{
		ProcedureName: "Appendectomy",
		SurgeonID:     &f.doctorID,
		OperationDate: a.AdmittedAt,
		Charge:        dec("20000"),
	})
	require.NoError(t, err)

	charge := dec("22000")
	updated, err := f.svc.UpdateOperation(ctx, f.orgID, a.ID, op.ID, &model.UpdateOperationRequest{Charge: &charge})
	require.NoError(t, err)
	assertDecimal(t, "22000", updated.Charge)

	require.NoError(t, f.svc.DeleteOperation(ctx, f.orgID, a.ID, op.ID))
	_, err = f.svc.UpdateOperation(ctx, f.orgID, a.ID, op.ID, &model.UpdateOperationRequest{Charge: &charge})
	assertCode(t, err, apperrors.ErrConflict)

	require.NoError(t, f.svc.RestoreOperation(ctx, f.orgID, a.ID, op.ID))
	require.NoError(t, f.svc.DeleteOperation(ctx, f.orgID, a.ID, op.ID))
	require.NoError(t, f.svc.PurgeOperation(ctx, f.orgID, a.ID, op.ID, true))

	ops, err := f.svc.ListOperations(ctx, f.orgID, a.ID, true)
	require.NoError(t, err)
	assert.Empty(t, ops)

	// Operation charges are not rolled into the admission bill.
	got, err := f.svc.Get(ctx, f.orgID, a.ID)
	require.NoError(t, err)
	assertDecimal(t, "1568", got.Bill.NetAmount)
}

func TestCapabilities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.admit(t)

	caps, err := f.svc.Capabilities(ctx, f.orgID, a.ID)
	require.NoError(t, err)
	assert.NoError(t, caps.Allow())

	f.discharge(t, a.ID)

	caps, err = f.svc.Capabilities(ctx, f.orgID, a.ID)
	require.NoError(t, err)
	assert.False(t, caps.CanMutate)
	assertCode(t, caps.Allow(), apperrors.ErrConflict)

	_, err = f.svc.Capabilities(ctx, uuid.New(), a.ID)
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestList_FiltersByDischargeStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.admit(t)
	f.admit(t)
	f.discharge(t, first.ID)

	pending, total, err := f.svc.List(ctx, f.orgID, model.AdmissionFilter{
		ListFilter:      model.ListFilter{Page: 1, PageSize: 20},
		DischargeStatus: model.DischargePending,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NotEqual(t, first.ID, pending[0].ID)
}
