// Package worker runs the background jobs of the outbox worker binary.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/circuitbreaker"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MailMaxFailures and MailCooldown configure the breaker in front of the
	// mailer. Zero values use the breaker defaults.
	MailMaxFailures int
	MailCooldown    time.Duration
}

// errMailDeferred leaves a payment event pending while the mail breaker is open.
var errMailDeferred = errors.New("receipt mail deferred")

// OutboxProcessor publishes pending outbox rows and mails payment receipts.
// A row that can not be handled is marked FAILED and left alone. While the
// mail breaker is open, payment events stay PENDING and unpublished and
// later batches fetch past them.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	mailer  email.Mailer
	breaker *circuitbreaker.CircuitBreaker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	mailer email.Mailer,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.BatchSize <= 0 {
		return nil, errors.New("batch size must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, errors.New("poll interval must be greater than 0")
	}

	return &OutboxProcessor{
		repo:   repo,
		broker: broker,
		mailer: mailer,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "mail",
			MaxFailures: config.MailMaxFailures,
			Cooldown:    config.MailCooldown,
		}),
		config:  config,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Start polls until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "batch_size", p.config.BatchSize, "poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch handles one batch of pending events and returns how many
// were handled successfully.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	// Deferred payment events would otherwise fill every batch while the
	// breaker is open.
	var skip []string
	if p.breaker.State() == circuitbreaker.StateOpen {
		skip = append(skip, model.EventPaymentRecorded)
	}

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize, skip...)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return 0, fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	processed := 0
	for _, event := range events {
		err := p.processEvent(ctx, event)
		if errors.Is(err, errMailDeferred) {
			p.logger.Debug("Receipt deferred, mail breaker open", "event_id", event.ID.String())
			continue
		}
		if err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
			continue
		}
		processed++
	}
	return processed, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := p.handle(ctx, event)
	if errors.Is(err, errMailDeferred) {
		return err
	}
	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			p.logger.Error(markErr, "Failed to update event status", "event_id", event.ID.String())
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (p *OutboxProcessor) handle(ctx context.Context, event *model.OutboxEvent) error {
	var receipt *model.PaymentEvent
	if event.EventType == model.EventPaymentRecorded {
		var payment model.PaymentEvent
		if err := json.Unmarshal(event.Payload, &payment); err != nil {
			return fmt.Errorf("decode payment event: %w", err)
		}
		if payment.PatientEmail != "" {
			if p.breaker.State() == circuitbreaker.StateOpen {
				return errMailDeferred
			}
			receipt = &payment
		}
	}

	if err := p.broker.Publish(ctx, messaging.Channel(event.EventType), event.Payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if receipt == nil {
		return nil
	}

	subject, body := Receipt(*receipt)
	err := p.breaker.Execute(func() error {
		return p.mailer.Send(ctx, receipt.PatientEmail, subject, body)
	})
	if err != nil {
		return fmt.Errorf("receipt: %w", err)
	}
	p.metrics.ReceiptsSent.Inc()
	return nil
}
