package bill_test

import (
	"context"
	"testing"

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
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	"github.com/jwalitptl/hms-api/internal/tenant"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/security"
)

type fixture struct {
	store     *memory.Store
	svc       *bill.Service
	metrics   *metrics.Metrics
	orgID     uuid.UUID
	patientID uuid.UUID
	doctorID  uuid.UUID
	staffID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	recorder := lifecycle.NewRecorder(m, audit.Nop())

	org := &model.Organization{Name: "City Hospital", OrgMode: model.OrgModeHospitalFirst}
	require.NoError(t, store.Organizations().Create(ctx, org))

	p := &model.Patient{OrganizationID: org.ID, FirstName: "Asha", LastName: "Rao", Phone: "9000000001", Email: "asha@example.com"}
	require.NoError(t, store.Patients().Create(ctx, p))

	doctor := &model.Staff{
		OrganizationID: org.ID,
		FirstName:      "Vikram",
		Email:          "vikram@example.com",
		Doctor:         &model.Doctor{Specializations: []string{"Cardiology"}},
	}
	require.NoError(t, store.Staff().Create(ctx, doctor))

	clerk := &model.Staff{OrganizationID: org.ID, FirstName: "Meena", Email: "meena@example.com"}
	require.NoError(t, store.Staff().Create(ctx, clerk))

	employees := employee.NewService(store.Staff(), security.NewBcryptHasher(4), recorder)
	svc := bill.NewService(
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
		svc:       svc,
		metrics:   m,
		orgID:     org.ID,
		patientID: p.ID,
		doctorID:  doctor.ID,
		staffID:   clerk.ID,
	}
}

func (f *fixture) ctx() context.Context {
	return tenant.NewContext(context.Background(), tenant.Scope{OrganizationID: f.orgID, StaffID: f.staffID})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
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

// createBill opens a bill of 1500 less 100 with 12% tax: net 1568.
func (f *fixture) createBill(t *testing.T, kind model.BillKind) *model.BillDetails {
	t.Helper()
	d, err := f.svc.Create(f.ctx(), f.orgID, kind, &model.CreateBillRequest{
		PatientID:  f.patientID,
		DoctorID:   &f.doctorID,
		BaseAmount: decPtr("1500"),
		Discount:   billing.AmountOff(dec("100")),
		TaxPercent: decPtr("12"),
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) pay(t *testing.T, kind model.BillKind, id uuid.UUID, amount string) *model.PaymentResult {
	t.Helper()
	res, err := f.svc.RecordPayment(f.ctx(), f.orgID, kind, id, &model.RecordPaymentRequest{
		Amount: dec(amount),
		Mode:   billing.ModeCash,
	}, bill.Open)
	require.NoError(t, err)
	return res
}

type closedGate struct{}

func (closedGate) Allow() error { return apperrors.Conflict("admission is discharged") }

func TestCreate_ComputesTotals(t *testing.T) {
	f := newFixture(t)

	d := f.createBill(t, model.BillKindPathology)

	assertDecimal(t, "1400", d.TaxableAmount)
	assertDecimal(t, "168", d.TaxAmount)
	assertDecimal(t, "1568", d.NetAmount)
	assertDecimal(t, "1568", d.DueAmount)
	assert.Equal(t, billing.StatusUnpaid, d.Status)
	assert.Equal(t, "Asha Rao", d.PatientName)
	assert.Contains(t, d.BillNumber, "PTH-")
	assert.Equal(t, model.BillCapabilities{CanEdit: true, CanDelete: true, CanPrint: false}, d.Capabilities)

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventBillCreated, events[0].EventType)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BillsCreated.WithLabelValues("pathology")))
}

func TestCreate_RequiresAmountOrCharge(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx(), f.orgID, model.BillKindRadiology, &model.CreateBillRequest{PatientID: f.patientID})
	assertCode(t, err, apperrors.ErrBadRequest)
}

func TestCreate_RejectsUnstorableAmounts(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  model.CreateBillRequest
	}{
		{"base with three places", model.CreateBillRequest{PatientID: f.patientID, BaseAmount: decPtr("100.005")}},
		{"discount with three places", model.CreateBillRequest{PatientID: f.patientID, BaseAmount: decPtr("100"), Discount: billing.AmountOff(dec("0.003"))}},
		{"tax percent too large", model.CreateBillRequest{PatientID: f.patientID, BaseAmount: decPtr("100"), TaxPercent: decPtr("1000")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.Create(f.ctx(), f.orgID, model.BillKindPathology, &req)
			assertCode(t, err, apperrors.ErrBadRequest)
		})
	}
}

func TestCreate_UsesChargeDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tax := &model.TaxCategory{OrganizationID: f.orgID, Name: "GST 5", Percent: dec("5")}
	require.NoError(t, f.store.Catalog().CreateTaxCategory(ctx, tax))
	charge := &model.Charge{OrganizationID: f.orgID, Name: "Chest X-Ray", TaxCategoryID: tax.ID, Amount: dec("800")}
	require.NoError(t, f.store.Catalog().CreateCharge(ctx, charge))

	d, err := f.svc.Create(f.ctx(), f.orgID, model.BillKindRadiology, &model.CreateBillRequest{
		PatientID: f.patientID,
		ChargeID:  &charge.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Chest X-Ray", d.Description)
	assertDecimal(t, "840", d.NetAmount)

	d, err = f.svc.Create(f.ctx(), f.orgID, model.BillKindRadiology, &model.CreateBillRequest{
		PatientID:  f.patientID,
		ChargeID:   &charge.ID,
		BaseAmount: decPtr("1000"),
	})
	require.NoError(t, err)
	assertDecimal(t, "1050", d.NetAmount)
}

func TestCreate_RejectsUnknownPatientAndNonDoctor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx(), f.orgID, model.BillKindAmbulance, &model.CreateBillRequest{
		PatientID:  uuid.New(),
		BaseAmount: decPtr("100"),
	})
	assertCode(t, err, apperrors.ErrBadRequest)

	_, err = f.svc.Create(f.ctx(), f.orgID, model.BillKindAmbulance, &model.CreateBillRequest{
		PatientID:  f.patientID,
		DoctorID:   &f.staffID,
		BaseAmount: decPtr("100"),
	})
	assertCode(t, err, apperrors.ErrBadRequest)
}

func TestRecordPayment_TwoPaymentsSettleBill(t *testing.T) {
	f := newFixture(t)
	d := f.createBill(t, model.BillKindPathology)

	res := f.pay(t, model.BillKindPathology, d.ID, "1000")
	assertDecimal(t, "568", res.DueAmount)
	assert.Equal(t, billing.StatusPartiallyPaid, res.Bill.Status)
	require.NotNil(t, res.Payment.RecordedBy)
	assert.Equal(t, f.staffID, *res.Payment.RecordedBy)

	res, err := f.svc.RecordPayment(f.ctx(), f.orgID, model.BillKindPathology, d.ID, &model.RecordPaymentRequest{
		Amount:          dec("568"),
		Mode:            billing.ModeUPI,
		ReferenceNumber: "UPI-778812",
	}, bill.Open)
	require.NoError(t, err)
	assertDecimal(t, "0", res.DueAmount)
	assert.Equal(t, billing.StatusPaid, res.Bill.Status)

	got, err := f.svc.Get(f.ctx(), f.orgID, model.BillKindPathology, d.ID, bill.Open)
	require.NoError(t, err)
	assert.Len(t, got.Payments, 2)
	assert.Equal(t, model.BillCapabilities{CanEdit: false, CanDelete: false, CanPrint: true}, got.Capabilities)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentsRecorded.WithLabelValues("pathology", "Cash", "payment")))
}

func TestRecordPayment_Rejections(t *testing.T) {
	f := newFixture(t)
	d := f.createBill(t, model.BillKindAmbulance)

	tests := []struct {
		name string
		req  model.RecordPaymentRequest
	}{
		{"over due", model.RecordPaymentRequest{Amount: dec("1568.01"), Mode: billing.ModeCash}},
		{"zero", model.RecordPaymentRequest{Amount: dec("0"), Mode: billing.ModeCash}},
		{"card without reference", model.RecordPaymentRequest{Amount: dec("10"), Mode: billing.ModeCard}},
		{"credit outside IPD", model.RecordPaymentRequest{Amount: dec("10"), Mode: billing.ModeCash, ToCredit: true}},
		{"below a paisa", model.RecordPaymentRequest{Amount: dec("0.001"), Mode: billing.ModeCash}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.RecordPayment(f.ctx(), f.orgID, model.BillKindAmbulance, d.ID, &req, bill.Open)
			assertCode(t, err, apperrors.ErrBadRequest)
		})
	}

	payments, err := f.svc.ListPayments(f.ctx(), f.orgID, model.BillKindAmbulance, d.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestRecordPayment_WrongKindIsNotFound(t *testing.T) {
	f := newFixture(t)
	d := f.createBill(t, model.BillKindAmbulance)

	_, err := f.svc.RecordPayment(f.ctx(), f.orgID, model.BillKindRadiology, d.ID, &model.RecordPaymentRequest{
		Amount: dec("10"),
		Mode:   billing.ModeCash,
	}, bill.Open)
	assertCode(t, err, apperrors.ErrNotFound)
}

func TestDeletePayment_RestoresBalance(t *testing.T) {
	f := newFixture(t)
	d := f.createBill(t, model.BillKindPathology)
	first := f.pay(t, model.BillKindPathology, d.ID, "1000")
	f.pay(t, model.BillKindPathology, d.ID, "568")

	res, err := f.svc.DeletePayment(f.ctx(), f.orgID, model.BillKindPathology, d.ID, first.Payment.ID, bill.Open)
	require.NoError(t, err)
	assertDecimal(t, "1000", res.DueAmount)
	assert.Equal(t, billing.StatusPartiallyPaid, res.Bill.Status)

	_, err = f.svc.DeletePayment(f.ctx(), f.orgID, model.BillKindPathology, d.ID, first.Payment.ID, bill.Open)
	assertCode(t, err, apperrors.ErrNotFound)

	events := f.store.Events()
	assert.Equal(t, model.EventPaymentDeleted, events[len(events)-1].EventType)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	d := f.createBill(t, model.BillKindRadiology)
	f.pay(t, model.BillKindRadiology, d.ID, "500")

	t.Run("recomputes totals", func(t *testing.T) {
		off := billing.PercentOff(dec("10"))
		got, err := f.svc.Update(f.ctx(), f.orgID, model.BillKindRadiology, d.ID, &model.UpdateBillRequest{
			Discount: &off,
		}, bill.Open)
		require.NoError(t, err)
		assertDecimal(t, "150", got.DiscountAmount)
		assertDecimal(t, "1512", got.NetAmount)
		assertDecimal(t, "500", got.PaidAmount)
		assertDecimal(t, "1012", got.DueAmount)
	})

	t.Run("net below paid", func(t *testing.T) {
		_, err := f.svc.Update(f.ctx(), f.orgID, model.BillKindRadiology, d.ID, &model.UpdateBillRequest{
			BaseAmount: decPtr("300"),
		}, bill.Open)
		assertCode(t, err, apperrors.ErrBadRequest)
	})

	t.Run("paid bill", func(t *testing.T) {
		f.pay(t, model.BillKindRadiology, d.ID, "1012")
		desc := "follow-up"
		_, err := f.svc.Update(f.ctx(), f.orgID, model.BillKindRadiology, d.ID, &model.UpdateBillRequest{
			Description: &desc,
		}, bill.Open)
		assertCode(t, err, apperrors.ErrConflict)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t)

	paid := f.createBill(t, model.BillKindAmbulance)
	f.pay(t, model.BillKindAmbulance, paid.ID, "1")
	err := f.svc.Delete(f.ctx(), f.orgID, model.BillKindAmbulance, paid.ID, bill.Open)
	assertCode(t, err, apperrors.ErrConflict)

	d := f.createBill(t, model.BillKindAmbulance)
	require.NoError(t, f.svc.Delete(f.ctx(), f.orgID, model.BillKindAmbulance, d.ID, bill.Open))

	err = f.svc.Delete(f.ctx(), f.orgID, model.BillKindAmbulance, d.ID, bill.Open)
	assertCode(t, err, apperrors.ErrConflict)

	bills, total, err := f.svc.List(f.ctx(), f.orgID, model.BillKindAmbulance, model.BillFilter{ListFilter: model.ListFilter{Page: 1, PageSize: 20}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, paid.ID, bills[0].ID)

	_, total, err = f.svc.List(f.ctx(), f.orgID, model.BillKindAmbulance, model.BillFilter{ListFilter: model.ListFilter{IncludeDeleted: true, Page: 1, PageSize: 20}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, err = f.svc.RecordPayment(f.ctx(), f.orgID, model.BillKindAmbulance, d.ID, &model.RecordPaymentRequest{
		Amount: dec("1"),
		Mode:   billing.ModeCash,
	}, bill.Open)
	assertCode(t, err, apperrors.ErrConflict)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LifecycleTransitions.WithLabelValues(model.AuditEntityBill, string(model.TransitionDelete))))
}

func TestReceipt(t *testing.T) {
	f := newFixture(t)
	d := f.createBill(t, model.BillKindPathology)

	_, err := f.svc.Receipt(f.ctx(), f.orgID, model.BillKindPathology, d.ID)
	assertCode(t, err, apperrors.ErrConflict)

	f.pay(t, model.BillKindPathology, d.ID, "1000")
	r, err := f.svc.Receipt(f.ctx(), f.orgID, model.BillKindPathology, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "City Hospital", r.Organization.Name)
	assertDecimal(t, "1000", r.TotalPaid)
	assertDecimal(t, "568", r.DueAmount)
	assert.Len(t, r.Payments, 1)
}

func TestClosedGate(t *testing.T) {
	f := newFixture(t)
	d := f.createBill(t, model.BillKindPathology)
	res := f.pay(t, model.BillKindPathology, d.ID, "100")

	got, err := f.svc.Get(f.ctx(), f.orgID, model.BillKindPathology, d.ID, closedGate{})
	require.NoError(t, err)
	assert.False(t, got.Capabilities.CanEdit)
	assert.False(t, got.Capabilities.CanDelete)
	assert.True(t, got.Capabilities.CanPrint)

	_, err = f.svc.RecordPayment(f.ctx(), f.orgID, model.BillKindPathology, d.ID, &model.RecordPaymentRequest{
		Amount: dec("1"),
		Mode:   billing.ModeCash,
	}, closedGate{})
	assertCode(t, err, apperrors.ErrConflict)

	_, err = f.svc.DeletePayment(f.ctx(), f.orgID, model.BillKindPathology, d.ID, res.Payment.ID, closedGate{})
	assertCode(t, err, apperrors.ErrConflict)

	_, err = f.svc.Update(f.ctx(), f.orgID, model.BillKindPathology, d.ID, &model.UpdateBillRequest{}, closedGate{})
	assertCode(t, err, apperrors.ErrConflict)

	assertCode(t, f.svc.Delete(f.ctx(), f.orgID, model.BillKindPathology, d.ID, closedGate{}), apperrors.ErrConflict)
}

func TestEditPayment_Unsupported(t *testing.T) {
	f := newFixture(t)
	assertCode(t, f.svc.EditPayment(), apperrors.ErrUnsupported)
}
