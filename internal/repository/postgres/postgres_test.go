package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/billing"
	"github.com/jwalitptl/hms-api/internal/model"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

func newMockBase(t *testing.T) (BaseRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBaseRepository(sqlx.NewDb(db, "postgres")), mock
}

var billColumns = []string{
	"id", "organization_id", "kind", "bill_number", "patient_id", "patient_name",
	"charge_id", "doctor_id", "description", "service_date", "details",
	"base_amount", "discount_amount", "tax_percent", "taxable_amount",
	"tax_amount", "net_amount", "paid_amount", "status",
	"is_deleted", "deleted_at", "created_at", "updated_at",
}

func billRow(billID, orgID uuid.UUID, kind model.BillKind, net, paid string, status billing.Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(billColumns).AddRow(
		billID.String(), orgID.String(), string(kind), "PTH-20260101-a1b2c3", uuid.NewString(), "Asha Rao",
		nil, nil, "CBC", now, []byte(`{}`),
		net, "0", "0", net,
		"0", net, paid, string(status),
		false, nil, now, now,
	)
}

func TestBillRepository_RecordPaymentCommitsEverything(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBillRepository(base)
	orgID, billID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bills b").
		WithArgs(billID.String(), orgID.String()).
		WillReturnRows(billRow(billID, orgID, model.BillKindPathology, "1568", "0", billing.StatusUnpaid))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bills SET paid_amount").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payment, bill, err := repo.RecordPayment(context.Background(), orgID, billID,
		func(b *model.Bill) (*model.Payment, *model.OutboxEvent, error) {
			req := model.RecordPaymentRequest{Amount: decimal.NewFromInt(1000), Mode: billing.ModeCash}
			l, err := b.Ledger().Apply(req.Input())
			if err != nil {
				return nil, nil, err
			}
			b.ApplyLedger(l)
			event, err := model.NewOutboxEvent(orgID, model.EventPaymentRecorded, map[string]string{"bill": b.BillNumber})
			return req.NewPayment(b.ID, uuid.Nil, time.Now()), event, err
		})

	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartiallyPaid, bill.Status)
	assert.True(t, bill.DueAmount().Equal(decimal.NewFromInt(568)))
	assert.Equal(t, billID, payment.BillID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillRepository_RecordCreditRaisesCreditLimit(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBillRepository(base)
	orgID, billID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bills b").
		WillReturnRows(billRow(billID, orgID, model.BillKindIPD, "500", "0", billing.StatusUnpaid))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bills SET paid_amount").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE admissions SET credit_limit = credit_limit \\+").
		WithArgs("2000", billID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, bill, err := repo.RecordPayment(context.Background(), orgID, billID,
		func(b *model.Bill) (*model.Payment, *model.OutboxEvent, error) {
			req := model.RecordPaymentRequest{Amount: decimal.NewFromInt(2000), Mode: billing.ModeCash, ToCredit: true}
			return req.NewPayment(b.ID, uuid.Nil, time.Now()), nil, nil
		})

	require.NoError(t, err)
	assert.Equal(t, billing.StatusUnpaid, bill.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillRepository_RecordPaymentRollsBackOnRejection(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBillRepository(base)
	orgID, billID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bills b").
		WillReturnRows(billRow(billID, orgID, model.BillKindRadiology, "100", "100", billing.StatusPaid))
	mock.ExpectRollback()

	_, _, err := repo.RecordPayment(context.Background(), orgID, billID,
		func(b *model.Bill) (*model.Payment, *model.OutboxEvent, error) {
			_, err := b.Ledger().Apply(billing.PaymentInput{Amount: decimal.NewFromInt(1), Mode: billing.ModeCash})
			return nil, nil, err
		})

	assert.ErrorIs(t, err, billing.ErrExceedsDue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillRepository_RecordPaymentOnMissingBill(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBillRepository(base)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bills b").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.RecordPayment(context.Background(), uuid.New(), uuid.New(),
		func(b *model.Bill) (*model.Payment, *model.OutboxEvent, error) {
			t.Fatal("callback must not run without a bill")
			return nil, nil, nil
		})

	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillRepository_DeleteMissingPayment(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBillRepository(base)
	orgID, billID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bills b").
		WillReturnRows(billRow(billID, orgID, model.BillKindAmbulance, "100", "40", billing.StatusPartiallyPaid))
	mock.ExpectQuery("FROM payments").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.DeletePayment(context.Background(), orgID, billID, uuid.New(),
		func(b *model.Bill, p *model.Payment) (*model.OutboxEvent, error) {
			return nil, nil
		})

	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetDeleted_NoRowsIsNotFound(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewPatientRepository(base)

	mock.ExpectExec("UPDATE patients").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetDeleted(context.Background(), uuid.New(), uuid.New(), true)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPurge_OnlyTouchesDeletedRows(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewAdmissionRepository(base)

	mock.ExpectExec("DELETE FROM ipd_operations WHERE id = \\$1 AND admission_id = \\$2 AND is_deleted").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.PurgeOperation(context.Background(), uuid.New(), uuid.New()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepository_DischargeTwiceIsNotFound(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewAdmissionRepository(base)

	mock.ExpectBegin()
	mock.ExpectExec("discharge_status = 'pending'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	now := time.Now()
	err := repo.Discharge(context.Background(), &model.Admission{
		Base:            model.Base{ID: uuid.New()},
		DischargeStatus: model.DischargeDischarged,
		DischargedAt:    &now,
	}, nil)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillRepository_ListSearchesFullPatientName(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBillRepository(base)
	orgID, billID := uuid.New(), uuid.New()

	fullName := `\(p\.first_name \|\| ' ' \|\| p\.last_name\) ILIKE \$5`
	args := []driver.Value{orgID.String(), "pathology", false, "Asha Rao", "%Asha Rao%", ""}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bills b .*" + fullName).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM bills b .*" + fullName).
		WithArgs(append(args, 20, 0)...).
		WillReturnRows(billRow(billID, orgID, model.BillKindPathology, "1568", "0", billing.StatusUnpaid))

	bills, total, err := repo.List(context.Background(), orgID, model.BillKindPathology, model.BillFilter{
		ListFilter: model.ListFilter{Search: "Asha Rao", Page: 1, PageSize: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, bills, 1)
	assert.Equal(t, "Asha Rao", bills[0].PatientName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, "%Asha Rao%", likePattern("Asha Rao"))
	assert.Equal(t, `%50\%\_off\\%`, likePattern(`50%_off\`))
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewOutboxRepository(base)
	id := uuid.New()

	mock.ExpectExec("UPDATE outbox_events").
		WithArgs("FAILED", "redis unavailable", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), id, "redis unavailable"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetPendingEventsSkipsTypes(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewOutboxRepository(base)
	columns := []string{"id", "organization_id", "event_type", "payload", "status", "error_message", "created_at", "processed_at", "updated_at"}

	mock.ExpectQuery("SELECT (.+) FROM outbox_events").
		WithArgs("PENDING", "{}", 10).
		WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectQuery("SELECT (.+) FROM outbox_events").
		WithArgs("PENDING", `{"PAYMENT_RECORDED"}`, 10).
		WillReturnRows(sqlmock.NewRows(columns))

	events, err := repo.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = repo.GetPendingEvents(context.Background(), 10, model.EventPaymentRecorded)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_DeleteProcessedBefore(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewOutboxRepository(base)

	mock.ExpectExec("DELETE FROM outbox_events").WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteProcessedBefore(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestOutboxRepository_CreateRejectsEmptyPayload(t *testing.T) {
	base, _ := newMockBase(t)
	repo := NewOutboxRepository(base)

	assert.Error(t, repo.Create(context.Background(), &model.OutboxEvent{EventType: model.EventBillCreated}))
}

func TestMigrator_LoadSortsAndSkips(t *testing.T) {
	m := NewMigrator(nil, fstest.MapFS{
		"010_tables.sql":  {Data: []byte("SELECT 10;")},
		"002_second.sql":  {Data: []byte("SELECT 2;")},
		"001_first.sql":   {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("docs")},
		"notes_draft.sql": {Data: []byte("SELECT 0;")},
	})

	migrations, err := m.Load()
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{migrations[0].Version, migrations[1].Version, migrations[2].Version})
	assert.Equal(t, "SELECT 1;", migrations[0].SQL)
}

func TestMigrator_LoadRejectsDuplicateVersions(t *testing.T) {
	m := NewMigrator(nil, fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"1_b.sql":   {Data: []byte("SELECT 1;")},
	})

	_, err := m.Load()
	assert.Error(t, err)
}

func TestMigrator_UpSkipsApplied(t *testing.T) {
	base, mock := newMockBase(t)
	m := NewMigrator(base.GetDB(), fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE a (id INT);")},
		"002_more.sql": {Data: []byte("CREATE TABLE b (id INT);")},
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS _migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, name, applied_at FROM _migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "name", "applied_at"}).AddRow(1, "001_init.sql", time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO _migrations").WithArgs(2, "002_more.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := m.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotFound_WrapsOtherErrors(t *testing.T) {
	err := notFound("bill", errors.New("connection reset"))
	assert.False(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "failed to get bill")
}

func TestStaffRepository_DuplicateEmailIsConflict(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewStaffRepository(base)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO staff").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Staff{OrganizationID: uuid.New(), FirstName: "Ravi", Email: "ravi@example.com"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}
