package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}
	return insertOutbox(ctx, r.db, event)
}

// GetPendingEvents returns the oldest pending events first.
func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int, skipTypes ...string) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, organization_id, event_type, payload, status, error_message,
			created_at, processed_at, updated_at
		FROM outbox_events
		WHERE status = $1 AND NOT (event_type = ANY($2::text[]))
		ORDER BY created_at ASC
		LIMIT $3
	`

	// a nil array would be NULL and match nothing
	skip := pq.StringArray(append([]string{}, skipTypes...))

	events := []*model.OutboxEvent{}
	if err := r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, skip, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $1, error_message = NULL, processed_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, id)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return expectRows("outbox event", result)
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusFailed, reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return expectRows("outbox event", result)
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = $1
		AND processed_at < $2
	`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
