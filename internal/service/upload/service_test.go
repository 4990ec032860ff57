package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

func patientsConfig() model.UploadConfig {
	return model.UploadConfig{
		Template: model.UploadTemplate{Columns: []model.UploadColumn{
			{Key: "first_name", Label: "First Name", Required: true},
			{Key: "phone", Label: "Phone", Required: true},
		}},
		Upload: model.UploadTarget{URL: "/api/v1/patients/upload", Accept: []string{".xlsx", ".csv"}},
	}
}

func TestConfig(t *testing.T) {
	svc, err := NewService(map[string]model.UploadConfig{"patients": patientsConfig()})
	require.NoError(t, err)

	cfg, err := svc.Config("patients")
	require.NoError(t, err)
	assert.Equal(t, "patients", cfg.Entity)
	assert.Len(t, cfg.Template.Columns, 2)

	_, err = svc.Config("employees")
	assert.True(t, apperrors.IsNotFound(err))

	assert.Equal(t, []string{"patients"}, svc.Entities())
}

func TestNewService_RejectsInvalidConfig(t *testing.T) {
	bad := patientsConfig()
	bad.Upload.Accept = []string{"xlsx"}

	_, err := NewService(map[string]model.UploadConfig{"patients": bad})
	assert.Error(t, err)
}
