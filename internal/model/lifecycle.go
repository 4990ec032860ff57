package model

import (
	"errors"
	"fmt"
)

// LifecycleState is the soft-delete state of a record.
type LifecycleState string

const (
	StateActive             LifecycleState = "active"
	StateDeleted            LifecycleState = "deleted"
	StatePermanentlyDeleted LifecycleState = "permanently_deleted"
)

// Transition is an action moving a record between lifecycle states.
type Transition string

const (
	TransitionDelete          Transition = "delete"
	TransitionRestore         Transition = "restore"
	TransitionPermanentDelete Transition = "permanent_delete"
)

var (
	ErrAlreadyDeleted     = errors.New("record is already deleted")
	ErrNotDeleted         = errors.New("record is not deleted")
	ErrDeleteBeforePurge  = errors.New("record must be deleted before it can be permanently deleted")
	ErrPermanentlyDeleted = errors.New("record was permanently deleted")
	ErrUnknownTransition  = errors.New("unknown lifecycle transition")
)

// PermanentDeleteWarning is returned when a permanent delete arrives without
// explicit confirmation.
const PermanentDeleteWarning = "permanent delete cannot be undone; repeat the request with confirm=true"

// Next returns the state reached by applying t to s.
//
//	active  --delete-->           deleted
//	deleted --restore-->          active
//	deleted --permanent_delete--> permanently_deleted (terminal)
func (s LifecycleState) Next(t Transition) (LifecycleState, error) {
	if s == StatePermanentlyDeleted {
		return s, ErrPermanentlyDeleted
	}

	switch t {
	case TransitionDelete:
		if s == StateDeleted {
			return s, ErrAlreadyDeleted
		}
		return StateDeleted, nil
	case TransitionRestore:
		if s != StateDeleted {
			return s, ErrNotDeleted
		}
		return StateActive, nil
	case TransitionPermanentDelete:
		if s != StateDeleted {
			return s, ErrDeleteBeforePurge
		}
		return StatePermanentlyDeleted, nil
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownTransition, t)
	}
}
