// Package upload serves the bulk import screen configuration of each entity.
package upload

import (
	"sort"

	"github.com/jwalitptl/hms-api/internal/model"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type Service struct {
	configs map[string]model.UploadConfig
}

// NewService validates configs and keeps them for lookups.
func NewService(configs map[string]model.UploadConfig) (*Service, error) {
	copied := make(map[string]model.UploadConfig, len(configs))
	for k, v := range configs {
		copied[k] = v
	}
	if err := model.ValidateUploadConfigs(copied); err != nil {
		return nil, err
	}
	return &Service{configs: copied}, nil
}

func (s *Service) Config(entity string) (*model.UploadConfig, error) {
	cfg, ok := s.configs[entity]
	if !ok {
		return nil, apperrors.NotFound("upload config", nil)
	}
	return &cfg, nil
}

// Entities lists the configured entities in name order.
func (s *Service) Entities() []string {
	out := make([]string, 0, len(s.configs))
	for k := range s.configs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
