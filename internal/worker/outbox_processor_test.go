package worker

import (
	"context"
	"errors"
	"sync"
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
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

type published struct {
	channel string
	payload []byte
}

type fakeBroker struct {
	mu       sync.Mutex
	messages []published
	fail     map[string]error
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fail[channel]; err != nil {
		return err
	}
	b.messages = append(b.messages, published{channel, message})
	return nil
}

func (b *fakeBroker) Close() error { return nil }

type mail struct{ to, subject, body string }

type fakeMailer struct {
	sent []mail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail{to, subject, body})
	return nil
}

type fixture struct {
	store   *memory.Store
	broker  *fakeBroker
	mailer  *fakeMailer
	metrics *metrics.Metrics
	proc    *OutboxProcessor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewStore(),
		broker:  &fakeBroker{fail: map[string]error{}},
		mailer:  &fakeMailer{},
		metrics: metrics.NewMetrics("test", prometheus.NewRegistry()),
	}
	var err error
	f.proc, err = NewOutboxProcessor(f.store.Outbox(), f.broker, f.mailer,
		OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, logger.Nop(), f.metrics)
	require.NoError(t, err)
	return f
}

func (f *fixture) add(t *testing.T, eventType string, payload interface{}) *model.OutboxEvent {
	t.Helper()
	ev, err := model.NewOutboxEvent(uuid.New(), eventType, payload)
	require.NoError(t, err)
	require.NoError(t, f.store.Outbox().Create(context.Background(), ev))
	return ev
}

func paymentEvent(email string) model.PaymentEvent {
	return model.PaymentEvent{
		BillID:       uuid.New(),
		BillNumber:   "PTH-20260301-a1b2c3",
		Kind:         model.BillKindPathology,
		PaymentID:    uuid.New(),
		Amount:       decimal.NewFromInt(1000),
		Mode:         billing.ModeCash,
		Purpose:      billing.PurposePayment,
		PaidAmount:   decimal.NewFromInt(1000),
		DueAmount:    decimal.NewFromInt(568),
		BillStatus:   billing.StatusPartiallyPaid,
		PatientName:  "Asha Rao",
		PatientEmail: email,
		PaidAt:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func statuses(f *fixture) map[uuid.UUID]model.OutboxStatus {
	out := map[uuid.UUID]model.OutboxStatus{}
	for _, e := range f.store.Events() {
		out[e.ID] = e.Status
	}
	return out
}

func TestProcessBatch_PublishesAndMailsReceipt(t *testing.T) {
	f := newFixture(t)
	created := f.add(t, model.EventBillCreated, model.BillEvent{BillNumber: "PTH-20260301-a1b2c3"})
	paid := f.add(t, model.EventPaymentRecorded, paymentEvent("asha@example.com"))

	n, err := f.proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, f.broker.messages, 2)
	assert.Equal(t, "hms.BILL_CREATED", f.broker.messages[0].channel)
	assert.Equal(t, "hms.PAYMENT_RECORDED", f.broker.messages[1].channel)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "asha@example.com", f.mailer.sent[0].to)
	assert.Contains(t, f.mailer.sent[0].body, "Balance due:  568.00")

	st := statuses(f)
	assert.Equal(t, model.OutboxStatusProcessed, st[created.ID])
	assert.Equal(t, model.OutboxStatusProcessed, st[paid.ID])
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.OutboxEventsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReceiptsSent))

	n, err = f.proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessBatch_NoEmailNoReceipt(t *testing.T) {
	f := newFixture(t)
	f.add(t, model.EventPaymentRecorded, paymentEvent(""))

	_, err := f.proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.mailer.sent)
	assert.Len(t, f.broker.messages, 1)
}

func TestProcessBatch_FailureMarksFailedWithoutRetry(t *testing.T) {
	f := newFixture(t)
	f.broker.fail["hms.BILL_DELETED"] = errors.New("connection refused")
	bad := f.add(t, model.EventBillDeleted, model.BillEvent{})
	good := f.add(t, model.EventBillCreated, model.BillEvent{})

	n, err := f.proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st := statuses(f)
	assert.Equal(t, model.OutboxStatusFailed, st[bad.ID])
	assert.Equal(t, model.OutboxStatusProcessed, st[good.ID])
	for _, e := range f.store.Events() {
		if e.ID == bad.ID {
			require.NotNil(t, e.ErrorMessage)
			assert.Contains(t, *e.ErrorMessage, "connection refused")
		}
	}

	delete(f.broker.fail, "hms.BILL_DELETED")
	n, err = f.proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "failed rows are not picked up again")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OutboxEventsFailed))
}

func TestProcessBatch_MailFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp: 550 mailbox unavailable")
	ev := f.add(t, model.EventPaymentRecorded, paymentEvent("asha@example.com"))

	n, err := f.proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.OutboxStatusFailed, statuses(f)[ev.ID])
}

func TestProcessBatch_OpenMailBreakerDefersReceipts(t *testing.T) {
	f := newFixture(t)
	proc, err := NewOutboxProcessor(f.store.Outbox(), f.broker, f.mailer,
		OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second, MailMaxFailures: 1, MailCooldown: time.Hour},
		logger.Nop(), f.metrics)
	require.NoError(t, err)

	f.mailer.err = errors.New("dial tcp: connection refused")
	first := f.add(t, model.EventPaymentRecorded, paymentEvent("asha@example.com"))
	_, err = proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.OutboxStatusFailed, statuses(f)[first.ID])

	second := f.add(t, model.EventPaymentRecorded, paymentEvent("ravi@example.com"))
	other := f.add(t, model.EventBillCreated, model.BillEvent{})
	n, err := proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st := statuses(f)
	assert.Equal(t, model.OutboxStatusPending, st[second.ID])
	assert.Equal(t, model.OutboxStatusProcessed, st[other.ID])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OutboxEventsFailed))
	payments := 0
	for _, m := range f.broker.messages {
		if m.channel == "hms.PAYMENT_RECORDED" {
			payments++
		}
	}
	assert.Equal(t, 1, payments, "deferred event is not published")
}

func TestProcessBatch_DeferredReceiptsDoNotBlockOtherEvents(t *testing.T) {
	f := newFixture(t)
	proc, err := NewOutboxProcessor(f.store.Outbox(), f.broker, f.mailer,
		OutboxProcessorConfig{BatchSize: 2, PollInterval: time.Second, MailMaxFailures: 1, MailCooldown: time.Hour},
		logger.Nop(), f.metrics)
	require.NoError(t, err)

	f.mailer.err = errors.New("dial tcp: connection refused")
	f.add(t, model.EventPaymentRecorded, paymentEvent("asha@example.com"))
	_, err = proc.ProcessBatch(context.Background())
	require.NoError(t, err)

	var deferred []*model.OutboxEvent
	for i := 0; i < 3; i++ {
		deferred = append(deferred, f.add(t, model.EventPaymentRecorded, paymentEvent("ravi@example.com")))
	}
	created := f.add(t, model.EventBillCreated, model.BillEvent{})
	discharged := f.add(t, model.EventAdmissionDischarged, model.BillEvent{})

	n, err := proc.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st := statuses(f)
	assert.Equal(t, model.OutboxStatusProcessed, st[created.ID])
	assert.Equal(t, model.OutboxStatusProcessed, st[discharged.ID])
	for _, ev := range deferred {
		assert.Equal(t, model.OutboxStatusPending, st[ev.ID])
	}
}

func TestNewOutboxProcessor_InvalidConfig(t *testing.T) {
	_, err := NewOutboxProcessor(nil, nil, nil, OutboxProcessorConfig{PollInterval: time.Second}, logger.Nop(), nil)
	assert.Error(t, err)
	_, err = NewOutboxProcessor(nil, nil, nil, OutboxProcessorConfig{BatchSize: 1}, logger.Nop(), nil)
	assert.Error(t, err)
}

func TestReceipt_Credit(t *testing.T) {
	ev := paymentEvent("asha@example.com")
	ev.Purpose = billing.PurposeCredit
	ev.Kind = model.BillKindIPD

	subject, body := Receipt(ev)
	assert.Equal(t, "Payment receipt for PTH-20260301-a1b2c3", subject)
	assert.Contains(t, body, "advance of 1000.00 by Cash")
	assert.Contains(t, body, "partially paid")
}

func TestCleanup(t *testing.T) {
	f := newFixture(t)
	f.add(t, model.EventBillCreated, model.BillEvent{})
	f.broker.fail["hms.BILL_DELETED"] = errors.New("down")
	f.add(t, model.EventBillDeleted, model.BillEvent{})
	_, err := f.proc.ProcessBatch(context.Background())
	require.NoError(t, err)

	w := NewOutboxCleanupWorker(f.store.Outbox(), time.Hour, time.Minute, logger.Nop())

	deleted, err := w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	deleted, err = w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	require.Len(t, f.store.Events(), 1)
	assert.Equal(t, model.OutboxStatusFailed, f.store.Events()[0].Status)
}
