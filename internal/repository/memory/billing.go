package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/hms-api/internal/billing"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type billRepository struct{ *Store }

func (s *Store) Bills() repository.BillRepository {
	return billRepository{s}
}

func (s *Store) getBill(id uuid.UUID) (*model.Bill, bool) {
	b, ok := s.bills[id]
	if !ok {
		return nil, false
	}
	b.PatientName = s.patientName(b.PatientID)
	b.Details = cloneDetails(b.Details)
	return &b, true
}

func cloneDetails(m model.JSONMap) model.JSONMap {
	if m == nil {
		return nil
	}
	out := make(model.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) putBill(b *model.Bill) {
	c := *b
	c.Details = cloneDetails(b.Details)
	s.bills[b.ID] = c
}

func (r billRepository) Create(ctx context.Context, b *model.Bill, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&b.Base)
	r.putBill(b)
	r.appendEvent(event)
	return nil
}

func (r billRepository) Get(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID) (*model.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.getBill(id)
	if !ok || b.OrganizationID != orgID || b.Kind != kind {
		return nil, notFound("bill")
	}
	return b, nil
}

func (r billRepository) Update(ctx context.Context, b *model.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.bills[b.ID]
	if !ok || old.OrganizationID != b.OrganizationID {
		return notFound("bill")
	}
	b.UpdatedAt = time.Now().UTC()
	b.PaidAmount = old.PaidAmount
	r.putBill(b)
	return nil
}

func (r billRepository) SetDeleted(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID, deleted bool, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok || b.OrganizationID != orgID {
		return notFound("bill")
	}
	markDeleted(&b.SoftDelete, deleted)
	b.UpdatedAt = time.Now().UTC()
	r.bills[id] = b
	r.appendEvent(event)
	return nil
}

func (r billRepository) List(ctx context.Context, orgID uuid.UUID, kind model.BillKind, filter model.BillFilter) ([]*model.Bill, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Bill
	for id := range r.bills {
		b, _ := r.getBill(id)
		switch {
		case b.OrganizationID != orgID || b.Kind != kind:
		case b.IsDeleted && !filter.IncludeDeleted:
		case filter.Status != "" && b.Status != filter.Status:
		case !matches(filter.Search, b.BillNumber, b.PatientName):
		default:
			out = append(out, b)
		}
	}
	items, total := paginate(out, func(b *model.Bill) time.Time { return b.CreatedAt }, filter.Page, filter.PageSize)
	return items, total, nil
}

func (r billRepository) ListPayments(ctx context.Context, billID uuid.UUID) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Payment{}
	for _, p := range r.payments[billID] {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (r billRepository) lock(orgID, billID uuid.UUID) (*model.Bill, error) {
	b, ok := r.getBill(billID)
	if !ok || b.OrganizationID != orgID || b.IsDeleted {
		return nil, notFound("bill")
	}
	return b, nil
}

func (r billRepository) adjustCredit(billID uuid.UUID, delta func(cur model.Admission) model.Admission) {
	for id, a := range r.admissions {
		if a.BillID == billID {
			r.admissions[id] = delta(a)
		}
	}
}

func (r billRepository) RecordPayment(ctx context.Context, orgID, billID uuid.UUID, fn repository.RecordPaymentFunc) (*model.Payment, *model.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.lock(orgID, billID)
	if err != nil {
		return nil, nil, err
	}
	payment, event, err := fn(b)
	if err != nil {
		return nil, nil, err
	}

	r.payments[billID] = append(r.payments[billID], *payment)
	b.UpdatedAt = time.Now().UTC()
	r.putBill(b)
	if payment.Purpose == billing.PurposeCredit {
		r.adjustCredit(billID, func(a model.Admission) model.Admission {
			a.CreditLimit = a.CreditLimit.Add(payment.Amount)
			return a
		})
	}
	r.appendEvent(event)
	return payment, b, nil
}

func (r billRepository) DeletePayment(ctx context.Context, orgID, billID, paymentID uuid.UUID, fn repository.DeletePaymentFunc) (*model.Payment, *model.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.lock(orgID, billID)
	if err != nil {
		return nil, nil, err
	}

	payments := r.payments[billID]
	idx := -1
	for i, p := range payments {
		if p.ID == paymentID {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil, notFound("payment")
	}
	payment := payments[idx]

	event, err := fn(b, &payment)
	if err != nil {
		return nil, nil, err
	}

	r.payments[billID] = append(payments[:idx:idx], payments[idx+1:]...)
	b.UpdatedAt = time.Now().UTC()
	r.putBill(b)
	if payment.Purpose == billing.PurposeCredit {
		r.adjustCredit(billID, func(a model.Admission) model.Admission {
			a.CreditLimit = a.CreditLimit.Sub(payment.Amount)
			if a.CreditLimit.IsNegative() {
				a.CreditLimit = decimal.Zero
			}
			return a
		})
	}
	r.appendEvent(event)
	return &payment, b, nil
}
