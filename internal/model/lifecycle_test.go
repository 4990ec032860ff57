package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_Transitions(t *testing.T) {
	tests := []struct {
		from    LifecycleState
		t       Transition
		want    LifecycleState
		wantErr error
	}{
		{StateActive, TransitionDelete, StateDeleted, nil},
		{StateDeleted, TransitionRestore, StateActive, nil},
		{StateDeleted, TransitionPermanentDelete, StatePermanentlyDeleted, nil},
		{StateDeleted, TransitionDelete, StateDeleted, ErrAlreadyDeleted},
		{StateActive, TransitionRestore, StateActive, ErrNotDeleted},
		{StateActive, TransitionPermanentDelete, StateActive, ErrDeleteBeforePurge},
		{StatePermanentlyDeleted, TransitionRestore, StatePermanentlyDeleted, ErrPermanentlyDeleted},
		{StatePermanentlyDeleted, TransitionDelete, StatePermanentlyDeleted, ErrPermanentlyDeleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.t), func(t *testing.T) {
			got, err := tt.from.Next(tt.t)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLifecycle_DeleteThenRestoreReturnsToActive(t *testing.T) {
	s := SoftDelete{}.Lifecycle()

	s, err := s.Next(TransitionDelete)
	require.NoError(t, err)
	s, err = s.Next(TransitionRestore)
	require.NoError(t, err)

	assert.Equal(t, StateActive, s)
}

func TestLifecycle_UnknownTransition(t *testing.T) {
	_, err := StateActive.Next("archive")
	assert.ErrorIs(t, err, ErrUnknownTransition)
}

func TestListFilter_Offset(t *testing.T) {
	assert.Equal(t, 0, ListFilter{Page: 0, PageSize: 20}.Offset())
	assert.Equal(t, 0, ListFilter{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, ListFilter{Page: 3, PageSize: 20}.Offset())
}
