// Package memory implements the repository interfaces in process memory.
// Service and handler tests run against it.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// Store holds every table. Each repository returned by its accessors shares
// the same data and lock.
type Store struct {
	mu sync.Mutex

	orgs         map[uuid.UUID]model.Organization
	staff        map[uuid.UUID]model.Staff
	patients     map[uuid.UUID]model.Patient
	appointments map[uuid.UUID]model.Appointment
	items        map[model.CatalogKind]map[uuid.UUID]model.CatalogItem
	taxes        map[uuid.UUID]model.TaxCategory
	charges      map[uuid.UUID]model.Charge
	bills        map[uuid.UUID]model.Bill
	payments     map[uuid.UUID][]model.Payment
	admissions   map[uuid.UUID]model.Admission
	consultants  map[uuid.UUID]model.ConsultantEntry
	operations   map[uuid.UUID]model.Operation
	outbox       []*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		orgs:         make(map[uuid.UUID]model.Organization),
		staff:        make(map[uuid.UUID]model.Staff),
		patients:     make(map[uuid.UUID]model.Patient),
		appointments: make(map[uuid.UUID]model.Appointment),
		items:        make(map[model.CatalogKind]map[uuid.UUID]model.CatalogItem),
		taxes:        make(map[uuid.UUID]model.TaxCategory),
		charges:      make(map[uuid.UUID]model.Charge),
		bills:        make(map[uuid.UUID]model.Bill),
		payments:     make(map[uuid.UUID][]model.Payment),
		admissions:   make(map[uuid.UUID]model.Admission),
		consultants:  make(map[uuid.UUID]model.ConsultantEntry),
		operations:   make(map[uuid.UUID]model.Operation),
	}
}

func notFound(resource string) error {
	return apperrors.NotFound(resource, nil)
}

func stamp(b *model.Base) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
}

func markDeleted(s *model.SoftDelete, deleted bool) {
	s.IsDeleted = deleted
	s.DeletedAt = nil
	if deleted {
		now := time.Now().UTC()
		s.DeletedAt = &now
	}
}

// matches reports whether any of fields contains search, ignoring case.
func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// paginate sorts items newest first and cuts the requested page.
func paginate[T any](items []T, created func(T) time.Time, page, pageSize int) ([]T, int) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
	total := len(items)
	if pageSize <= 0 {
		return items, total
	}
	offset := model.ListFilter{Page: page, PageSize: pageSize}.Offset()
	if offset >= total {
		return []T{}, total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}
	return items[offset:end], total
}

// Events returns a copy of every outbox event written so far.
func (s *Store) Events() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		out = append(out, *e)
	}
	return out
}

func (s *Store) appendEvent(event *model.OutboxEvent) {
	if event == nil {
		return
	}
	e := *event
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Status = model.OutboxStatusPending
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	s.outbox = append(s.outbox, &e)
}

func (s *Store) patientName(id uuid.UUID) string {
	p, ok := s.patients[id]
	if !ok {
		return ""
	}
	return p.FullName()
}
