// Package audit writes the journal of lifecycle and payment actions.
package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/tenant"
)

// Logger records audit entries. Services depend on this instead of the
// concrete journal.
type Logger interface {
	Log(ctx context.Context, entry model.AuditEntry)
}

// Journal writes one JSON line per audit entry through zap.
type Journal struct {
	log *zap.Logger
}

// NewJournal opens a JSON journal writing to path ("stdout" and "stderr"
// are accepted too).
func NewJournal(path string) (*Journal, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "at"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.MessageKey = "event"
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Journal{log: log.Named("audit")}, nil
}

// NewWithLogger wraps an existing zap logger.
func NewWithLogger(log *zap.Logger) *Journal {
	return &Journal{log: log}
}

// Nop discards every entry.
func Nop() *Journal {
	return &Journal{log: zap.NewNop()}
}

// Log fills the actor and request id from ctx when the entry leaves them
// empty.
func (j *Journal) Log(ctx context.Context, entry model.AuditEntry) {
	if scope, ok := tenant.FromContext(ctx); ok {
		if entry.StaffID == uuid.Nil {
			entry.StaffID = scope.StaffID
		}
		if entry.RequestID == "" {
			entry.RequestID = scope.RequestID
		}
	}

	fields := []zap.Field{
		zap.String("organization_id", entry.OrganizationID.String()),
		zap.String("staff_id", entry.StaffID.String()),
		zap.String("action", entry.Action),
		zap.String("entity_type", entry.EntityType),
		zap.String("entity_id", entry.EntityID.String()),
	}
	if entry.RequestID != "" {
		fields = append(fields, zap.String("request_id", entry.RequestID))
	}
	if len(entry.Details) > 0 {
		fields = append(fields, zap.Any("details", entry.Details))
	}
	j.log.Info(entry.Action, fields...)
}

// Sync flushes buffered entries.
func (j *Journal) Sync() error {
	return j.log.Sync()
}
