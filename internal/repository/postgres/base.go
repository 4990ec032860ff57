package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/hms-api/internal/model"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notFound converts sql.ErrNoRows into a not found AppError and wraps
// everything else.
func notFound(resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to get %s: %w", resource, err)
}

// expectRows turns a zero-row update into a not found error.
func expectRows(resource string, result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound(resource, nil)
	}
	return nil
}

// setDeleted flips the soft delete flag of one row of table scoped by
// scopeColumn = scopeID.
func setDeleted(ctx context.Context, db sqlx.ExecerContext, table, scopeColumn string, scopeID, id uuid.UUID, deleted bool, resource string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = $1,
			deleted_at = CASE WHEN $1 THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $2 AND %s = $3
	`, table, scopeColumn)

	result, err := db.ExecContext(ctx, query, deleted, id, scopeID)
	if err != nil {
		return fmt.Errorf("failed to update %s deleted flag: %w", resource, err)
	}
	return expectRows(resource, result)
}

// purge removes a soft-deleted row. Active rows are left alone and reported
// as not found.
func purge(ctx context.Context, db sqlx.ExecerContext, table, scopeColumn string, scopeID, id uuid.UUID, resource string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND %s = $2 AND is_deleted`, table, scopeColumn)

	result, err := db.ExecContext(ctx, query, id, scopeID)
	if err != nil {
		return fmt.Errorf("failed to permanently delete %s: %w", resource, err)
	}
	return expectRows(resource, result)
}

// insertOutbox writes event as part of the surrounding transaction.
func insertOutbox(ctx context.Context, tx sqlx.ExecerContext, event *model.OutboxEvent) error {
	if event == nil {
		return nil
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	event.Status = model.OutboxStatusPending

	query := `
		INSERT INTO outbox_events (
			id, organization_id, event_type, payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		event.ID,
		event.OrganizationID,
		event.EventType,
		string(event.Payload),
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// uniqueViolation reports a duplicate key as a conflict.
func uniqueViolation(message string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.Conflict(message)
	}
	return err
}

// likePattern builds an ILIKE pattern for a search term.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches search anywhere in the column, treating LIKE
// wildcards in the input literally.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
