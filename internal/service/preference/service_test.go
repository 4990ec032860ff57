package preference

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/fieldselector"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

func TestToggleAndReset(t *testing.T) {
	svc := NewService(time.Hour)
	staff := uuid.New()

	defaults, err := svc.Get(staff, "ipd_operations")
	require.NoError(t, err)
	assert.Equal(t, fieldselector.ActionsKey, defaults.Columns[len(defaults.Columns)-1])
	assert.NotContains(t, defaults.Columns, "notes")

	got, err := svc.Toggle(staff, "ipd_operations", "notes")
	require.NoError(t, err)
	assert.Contains(t, got.Columns, "notes")
	assert.Equal(t, fieldselector.ActionsKey, got.Columns[len(got.Columns)-1])

	again, err := svc.Get(staff, "ipd_operations")
	require.NoError(t, err)
	assert.Equal(t, got.Columns, again.Columns)

	other, err := svc.Get(uuid.New(), "ipd_operations")
	require.NoError(t, err)
	assert.Equal(t, defaults.Columns, other.Columns)

	reset, err := svc.Reset(staff, "ipd_operations")
	require.NoError(t, err)
	assert.Equal(t, defaults.Columns, reset.Columns)
}

func TestToggleTwiceRestoresLayout(t *testing.T) {
	svc := NewService(time.Hour)
	staff := uuid.New()

	before, err := svc.Get(staff, "ipd_operations")
	require.NoError(t, err)
	_, err = svc.Toggle(staff, "ipd_operations", "charge")
	require.NoError(t, err)
	after, err := svc.Toggle(staff, "ipd_operations", "charge")
	require.NoError(t, err)

	assert.Equal(t, before.Columns, after.Columns)
}

func TestErrors(t *testing.T) {
	svc := NewService(time.Hour)
	staff := uuid.New()

	_, err := svc.Get(staff, "wards")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Reset(staff, "wards")
	assert.True(t, apperrors.IsNotFound(err))

	for _, column := range []string{"nope", fieldselector.ActionsKey} {
		_, err = svc.Toggle(staff, "ipd_operations", column)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrBadRequest, appErr.Code, column)
	}
}
