package fieldselector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForModule_Defaults(t *testing.T) {
	s, err := ForModule("ambulance")
	require.NoError(t, err)

	assert.Equal(t, []string{"bill_number", "patient_name", "service_date", "net_amount", "status", ActionsKey}, s.Columns())
}

func TestForModule_Unknown(t *testing.T) {
	_, err := ForModule("pharmacy")
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestToggle_AddsInUniverseOrderWithActionsLast(t *testing.T) {
	s, err := ForModule("ambulance")
	require.NoError(t, err)

	require.NoError(t, s.Toggle("vehicle_number"))
	assert.Equal(t, []string{"bill_number", "patient_name", "vehicle_number", "service_date", "net_amount", "status", ActionsKey}, s.Columns())

	require.NoError(t, s.Toggle("status"))
	cols := s.Columns()
	assert.Equal(t, ActionsKey, cols[len(cols)-1])
	assert.NotContains(t, cols, "status")
}

func TestToggle_Rejections(t *testing.T) {
	s, err := ForModule("employees")
	require.NoError(t, err)
	before := s.Clone()

	assert.ErrorIs(t, s.Toggle(ActionsKey), ErrReservedKey)
	assert.ErrorIs(t, s.Toggle("salary"), ErrUnknownKey)
	assert.True(t, s.Equal(before))
}

func TestToggle_TwiceIsIdentity(t *testing.T) {
	for _, module := range Modules() {
		def, err := Lookup(module)
		require.NoError(t, err)

		for _, key := range def.Keys {
			s := New(def)
			before := s.Clone()

			require.NoError(t, s.Toggle(key))
			assert.False(t, s.Equal(before), "%s/%s: single toggle changed nothing", module, key)
			require.NoError(t, s.Toggle(key))
			assert.True(t, s.Equal(before), "%s/%s", module, key)
		}
	}
}

func TestToggle_Commutes(t *testing.T) {
	def, err := Lookup("pathology")
	require.NoError(t, err)

	for _, a := range def.Keys {
		for _, b := range def.Keys {
			ab, ba := New(def), New(def)

			require.NoError(t, ab.Toggle(a))
			require.NoError(t, ab.Toggle(b))
			require.NoError(t, ba.Toggle(b))
			require.NoError(t, ba.Toggle(a))

			assert.Equal(t, ab.Columns(), ba.Columns(), "toggle %s,%s", a, b)
		}
	}
}

func TestFromVisible_DropsUnknownKeys(t *testing.T) {
	def, err := Lookup("ipd_operations")
	require.NoError(t, err)

	s := FromVisible(def, []string{"charge", "anaesthetist", ActionsKey, "procedure_name"})
	assert.Equal(t, []string{"procedure_name", "charge"}, s.VisibleKeys())
	assert.Equal(t, []string{"procedure_name", "charge", ActionsKey}, s.Columns())
}

func TestAvailable(t *testing.T) {
	s, err := ForModule("ipd_consultants")
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Key: "doctor", Visible: true},
		{Key: "visit_date", Visible: true},
		{Key: "fee", Visible: true},
		{Key: "notes", Visible: false},
	}, s.Available())
}
