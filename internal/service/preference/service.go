// Package preference keeps each staff member's list column choices for the
// lifetime of their session.
package preference

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hms-api/internal/fieldselector"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// Columns is what the column picker of one list screen needs.
type Columns struct {
	Module    string                 `json:"module"`
	Columns   []string               `json:"columns"`
	Available []fieldselector.Column `json:"available"`
}

func columnsOf(s *fieldselector.Set) *Columns {
	return &Columns{Module: s.Module(), Columns: s.Columns(), Available: s.Available()}
}

type Service struct {
	cache *cache.Cache
	ttl   time.Duration
	// serialises read-modify-write of a single entry
	mu sync.Mutex
}

// NewService stores preferences for ttl after their last change.
func NewService(ttl time.Duration) *Service {
	return &Service{cache: cache.New(ttl, 2*ttl), ttl: ttl}
}

func key(staffID uuid.UUID, module string) string {
	return fmt.Sprintf("%s:%s", staffID, module)
}

func (s *Service) load(staffID uuid.UUID, module string) (*fieldselector.Set, error) {
	def, err := fieldselector.Lookup(module)
	if err != nil {
		return nil, apperrors.NotFound("column module", err)
	}
	if keys, ok := s.cache.Get(key(staffID, module)); ok {
		return fieldselector.FromVisible(def, keys.([]string)), nil
	}
	return fieldselector.New(def), nil
}

func (s *Service) Get(staffID uuid.UUID, module string) (*Columns, error) {
	set, err := s.load(staffID, module)
	if err != nil {
		return nil, err
	}
	return columnsOf(set), nil
}

// Toggle flips the visibility of one column and returns the new layout.
func (s *Service) Toggle(staffID uuid.UUID, module, column string) (*Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load(staffID, module)
	if err != nil {
		return nil, err
	}
	if err := set.Toggle(column); err != nil {
		if errors.Is(err, fieldselector.ErrUnknownKey) || errors.Is(err, fieldselector.ErrReservedKey) {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		return nil, err
	}

	s.cache.Set(key(staffID, module), set.VisibleKeys(), s.ttl)
	return columnsOf(set), nil
}

// Reset drops the stored choice so the module defaults apply again.
func (s *Service) Reset(staffID uuid.UUID, module string) (*Columns, error) {
	set, err := fieldselector.ForModule(module)
	if err != nil {
		return nil, apperrors.NotFound("column module", err)
	}
	s.cache.Delete(key(staffID, module))
	return columnsOf(set), nil
}
