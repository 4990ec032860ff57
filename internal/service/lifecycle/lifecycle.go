// Package lifecycle applies the soft delete state machine on behalf of the
// services that own soft-deletable records.
package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

// Check reports whether t may be applied to a record in state s.
func Check(s model.SoftDelete, t model.Transition) error {
	if _, err := s.Lifecycle().Next(t); err != nil {
		return &apperrors.AppError{Code: apperrors.ErrConflict, Message: err.Error(), Err: err}
	}
	return nil
}

// Confirm rejects a permanent delete that was not explicitly confirmed.
func Confirm(confirmed bool) error {
	if !confirmed {
		return apperrors.BadRequest(model.PermanentDeleteWarning, nil)
	}
	return nil
}

// RequireActive rejects changes to a soft-deleted record.
func RequireActive(s model.SoftDelete, resource string) error {
	if s.IsDeleted {
		return apperrors.Conflict(resource + " is deleted")
	}
	return nil
}

// Recorder counts transitions and writes them to the audit journal.
type Recorder struct {
	metrics *metrics.Metrics
	auditor audit.Logger
}

func NewRecorder(m *metrics.Metrics, auditor audit.Logger) Recorder {
	return Recorder{metrics: m, auditor: auditor}
}

func (r Recorder) Record(ctx context.Context, orgID uuid.UUID, entity string, id uuid.UUID, t model.Transition) {
	r.metrics.LifecycleTransitions.WithLabelValues(entity, string(t)).Inc()
	r.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         string(t),
		EntityType:     entity,
		EntityID:       id,
	})
}
