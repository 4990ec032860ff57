package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// UploadColumn is one column of a bulk upload template.
type UploadColumn struct {
	Key      string `json:"key" mapstructure:"key" validate:"required,max=64"`
	Label    string `json:"label" mapstructure:"label" validate:"required,max=128"`
	Required bool   `json:"required" mapstructure:"required"`
}

type UploadTemplate struct {
	Columns []UploadColumn `json:"columns" mapstructure:"columns" validate:"required,min=1,unique=Key,dive"`
}

type UploadTarget struct {
	URL    string   `json:"url" mapstructure:"url" validate:"required"`
	Accept []string `json:"accept" mapstructure:"accept" validate:"required,min=1,dive,startswith=.,min=2,max=10"`
}

// UploadConfig describes the spreadsheet template and upload endpoint of
// one entity's bulk import screen.
type UploadConfig struct {
	Entity   string         `json:"entity" mapstructure:"entity" validate:"required,max=64"`
	Template UploadTemplate `json:"template" mapstructure:"template" validate:"required"`
	Upload   UploadTarget   `json:"upload" mapstructure:"upload" validate:"required"`
}

var uploadValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config against its schema.
func (c *UploadConfig) Validate() error {
	if err := uploadValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid upload config %q: %w", c.Entity, err)
	}
	return nil
}

// ValidateUploadConfigs validates every config and checks that each is
// registered under its own entity name. A missing entity is filled in from
// the key.
func ValidateUploadConfigs(configs map[string]UploadConfig) error {
	for key, cfg := range configs {
		if cfg.Entity == "" {
			cfg.Entity = key
			configs[key] = cfg
		}
		if cfg.Entity != key {
			return fmt.Errorf("upload config %q declares entity %q", key, cfg.Entity)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
