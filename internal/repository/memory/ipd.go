package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type admissionRepository struct{ *Store }

func (s *Store) Admissions() repository.AdmissionRepository {
	return admissionRepository{s}
}

func (r admissionRepository) Create(ctx context.Context, a *model.Admission, bill *model.Bill, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&bill.Base)
	r.putBill(bill)
	stamp(&a.Base)
	a.BillID = bill.ID
	r.admissions[a.ID] = *a
	r.appendEvent(event)
	return nil
}

func (r admissionRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admissions[id]
	if !ok || a.OrganizationID != orgID {
		return nil, notFound("admission")
	}
	a.PatientName = r.patientName(a.PatientID)
	return &a, nil
}

func (r admissionRepository) pending(a *model.Admission) (model.Admission, bool) {
	old, ok := r.admissions[a.ID]
	if !ok || old.OrganizationID != a.OrganizationID || old.DischargeStatus != model.DischargePending {
		return old, false
	}
	return old, true
}

func (r admissionRepository) Update(ctx context.Context, a *model.Admission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.pending(a)
	if !ok {
		return notFound("admission")
	}
	old.DoctorID = a.DoctorID
	old.BedNumber = a.BedNumber
	old.Ward = a.Ward
	old.Diagnosis = a.Diagnosis
	old.UpdatedAt = time.Now().UTC()
	a.UpdatedAt = old.UpdatedAt
	r.admissions[a.ID] = old
	return nil
}

func (r admissionRepository) Discharge(ctx context.Context, a *model.Admission, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.pending(a)
	if !ok {
		return notFound("admission")
	}
	old.DischargeStatus = a.DischargeStatus
	old.DischargedAt = a.DischargedAt
	old.UpdatedAt = time.Now().UTC()
	a.UpdatedAt = old.UpdatedAt
	r.admissions[a.ID] = old
	r.appendEvent(event)
	return nil
}

func (r admissionRepository) List(ctx context.Context, orgID uuid.UUID, filter model.AdmissionFilter) ([]*model.Admission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Admission
	for _, a := range r.admissions {
		a := a
		a.PatientName = r.patientName(a.PatientID)
		switch {
		case a.OrganizationID != orgID:
		case filter.DischargeStatus != "" && a.DischargeStatus != filter.DischargeStatus:
		case !matches(filter.Search, a.PatientName, a.BedNumber):
		default:
			out = append(out, &a)
		}
	}
	items, total := paginate(out, func(a *model.Admission) time.Time { return a.AdmittedAt }, filter.Page, filter.PageSize)
	return items, total, nil
}

func (r admissionRepository) CreateConsultant(ctx context.Context, e *model.ConsultantEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&e.Base)
	r.consultants[e.ID] = *e
	return nil
}

func (r admissionRepository) GetConsultant(ctx context.Context, admissionID, id uuid.UUID) (*model.ConsultantEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.consultants[id]
	if !ok || e.AdmissionID != admissionID {
		return nil, notFound("consultant entry")
	}
	return &e, nil
}

func (r admissionRepository) UpdateConsultant(ctx context.Context, e *model.ConsultantEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.consultants[e.ID]
	if !ok || old.AdmissionID != e.AdmissionID || old.IsDeleted {
		return notFound("consultant entry")
	}
	e.UpdatedAt = time.Now().UTC()
	r.consultants[e.ID] = *e
	return nil
}

func (r admissionRepository) SetConsultantDeleted(ctx context.Context, admissionID, id uuid.UUID, deleted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.consultants[id]
	if !ok || e.AdmissionID != admissionID {
		return notFound("consultant entry")
	}
	markDeleted(&e.SoftDelete, deleted)
	e.UpdatedAt = time.Now().UTC()
	r.consultants[id] = e
	return nil
}

func (r admissionRepository) PurgeConsultant(ctx context.Context, admissionID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.consultants[id]
	if !ok || e.AdmissionID != admissionID || !e.IsDeleted {
		return notFound("consultant entry")
	}
	delete(r.consultants, id)
	return nil
}

func (r admissionRepository) ListConsultants(ctx context.Context, admissionID uuid.UUID, includeDeleted bool) ([]*model.ConsultantEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.ConsultantEntry{}
	for _, e := range r.consultants {
		e := e
		if e.AdmissionID == admissionID && (includeDeleted || !e.IsDeleted) {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.Before(out[j].VisitDate) })
	return out, nil
}

func (r admissionRepository) CreateOperation(ctx context.Context, o *model.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&o.Base)
	r.operations[o.ID] = *o
	return nil
}

func (r admissionRepository) GetOperation(ctx context.Context, admissionID, id uuid.UUID) (*model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.operations[id]
	if !ok || o.AdmissionID != admissionID {
		return nil, notFound("operation")
	}
	return &o, nil
}

func (r admissionRepository) UpdateOperation(ctx context.Context, o *model.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.operations[o.ID]
	if !ok || old.AdmissionID != o.AdmissionID || old.IsDeleted {
		return notFound("operation")
	}
	o.UpdatedAt = time.Now().UTC()
	r.operations[o.ID] = *o
	return nil
}

func (r admissionRepository) SetOperationDeleted(ctx context.Context, admissionID, id uuid.UUID, deleted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.operations[id]
	if !ok || o.AdmissionID != admissionID {
		return notFound("operation")
	}
	markDeleted(&o.SoftDelete, deleted)
	o.UpdatedAt = time.Now().UTC()
	r.operations[id] = o
	return nil
}

func (r admissionRepository) PurgeOperation(ctx context.Context, admissionID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.operations[id]
	if !ok || o.AdmissionID != admissionID || !o.IsDeleted {
		return notFound("operation")
	}
	delete(r.operations, id)
	return nil
}

func (r admissionRepository) ListOperations(ctx context.Context, admissionID uuid.UUID, includeDeleted bool) ([]*model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Operation{}
	for _, o := range r.operations {
		o := o
		if o.AdmissionID == admissionID && (includeDeleted || !o.IsDeleted) {
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OperationDate.Before(out[j].OperationDate) })
	return out, nil
}

type outboxRepository struct{ *Store }

func (s *Store) Outbox() repository.OutboxRepository {
	return outboxRepository{s}
}

func (r outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendEvent(event)
	return nil
}

func (r outboxRepository) GetPendingEvents(ctx context.Context, limit int, skipTypes ...string) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.OutboxEvent{}
	for _, e := range r.outbox {
		if e.Status != model.OutboxStatusPending || slices.Contains(skipTypes, e.EventType) {
			continue
		}
		c := *e
		out = append(out, &c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r outboxRepository) find(id uuid.UUID) *model.OutboxEvent {
	for _, e := range r.outbox {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (r outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.find(id)
	if e == nil {
		return notFound("outbox event")
	}
	now := time.Now().UTC()
	e.Status = model.OutboxStatusProcessed
	e.ErrorMessage = nil
	e.ProcessedAt = &now
	e.UpdatedAt = now
	return nil
}

func (r outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.find(id)
	if e == nil {
		return notFound("outbox event")
	}
	e.Status = model.OutboxStatusFailed
	e.ErrorMessage = &reason
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (r outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.outbox[:0]
	var n int64
	for _, e := range r.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.outbox = kept
	return n, nil
}
