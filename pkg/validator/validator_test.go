package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhone(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type contact struct {
		Phone string `validate:"phone"`
	}

	for _, ok := range []string{"9000000001", "+91 98450 12345", "080-2345-6789", "1234567"} {
		assert.NoError(t, v.Struct(contact{Phone: ok}), ok)
	}
	for _, bad := range []string{"", "12345", "98450-", "call me", "+", "123456789012345678901"} {
		assert.Error(t, v.Struct(contact{Phone: bad}), bad)
	}
}

func TestRegisterGin_Idempotent(t *testing.T) {
	require.NoError(t, RegisterGin())
	require.NoError(t, RegisterGin())
}
