package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type organizationRepository struct{ *Store }

func (s *Store) Organizations() repository.OrganizationRepository {
	return organizationRepository{s}
}

func (r organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&org.Base)
	r.orgs[org.ID] = *org
	return nil
}

func (r organizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.orgs[id]
	if !ok {
		return nil, notFound("organization")
	}
	return &org, nil
}

func (r organizationRepository) Update(ctx context.Context, org *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[org.ID]; !ok {
		return notFound("organization")
	}
	org.UpdatedAt = time.Now().UTC()
	r.orgs[org.ID] = *org
	return nil
}

// Delete cascades to the organization's people, bills and admissions.
func (r organizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[id]; !ok {
		return notFound("organization")
	}
	delete(r.orgs, id)
	for k, v := range r.staff {
		if v.OrganizationID == id {
			delete(r.staff, k)
		}
	}
	for k, v := range r.patients {
		if v.OrganizationID == id {
			delete(r.patients, k)
		}
	}
	for k, v := range r.bills {
		if v.OrganizationID == id {
			delete(r.bills, k)
			delete(r.payments, k)
		}
	}
	for k, v := range r.admissions {
		if v.OrganizationID == id {
			delete(r.admissions, k)
		}
	}
	return nil
}

func (r organizationRepository) List(ctx context.Context, filter model.ListFilter) ([]*model.Organization, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Organization
	for _, o := range r.orgs {
		o := o
		if matches(filter.Search, o.Name, o.Email) {
			out = append(out, &o)
		}
	}
	items, total := paginate(out, func(o *model.Organization) time.Time { return o.CreatedAt }, filter.Page, filter.PageSize)
	return items, total, nil
}

type staffRepository struct{ *Store }

func (s *Store) Staff() repository.StaffRepository {
	return staffRepository{s}
}

func cloneStaff(st model.Staff) *model.Staff {
	if st.Doctor != nil {
		d := *st.Doctor
		d.Specializations = append([]string(nil), st.Doctor.Specializations...)
		st.Doctor = &d
	}
	return &st
}

func (r staffRepository) Create(ctx context.Context, st *model.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.staff {
		if other.OrganizationID == st.OrganizationID && other.Email == st.Email {
			return apperrors.Conflict("staff email already exists")
		}
	}
	stamp(&st.Base)
	if st.Doctor != nil {
		st.Doctor.StaffID = st.ID
	}
	r.staff[st.ID] = *cloneStaff(*st)
	return nil
}

func (r staffRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.staff[id]
	if !ok || st.OrganizationID != orgID {
		return nil, notFound("staff")
	}
	return cloneStaff(st), nil
}

func (r staffRepository) Update(ctx context.Context, st *model.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.staff[st.ID]
	if !ok || old.OrganizationID != st.OrganizationID {
		return notFound("staff")
	}
	st.UpdatedAt = time.Now().UTC()
	if st.Doctor == nil {
		st.Doctor = old.Doctor
	}
	r.staff[st.ID] = *cloneStaff(*st)
	return nil
}

func (r staffRepository) SetDeleted(ctx context.Context, orgID, id uuid.UUID, deleted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.staff[id]
	if !ok || st.OrganizationID != orgID {
		return notFound("staff")
	}
	markDeleted(&st.SoftDelete, deleted)
	st.UpdatedAt = time.Now().UTC()
	r.staff[id] = st
	return nil
}

func (r staffRepository) List(ctx context.Context, orgID uuid.UUID, filter model.StaffFilter) ([]*model.Staff, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Staff
	for _, st := range r.staff {
		switch {
		case st.OrganizationID != orgID:
		case st.IsDeleted && !filter.IncludeDeleted:
		case filter.DoctorsOnly && st.Doctor == nil:
		case !matches(filter.Search, st.FirstName+" "+st.LastName, st.Email, st.Phone):
		default:
			out = append(out, cloneStaff(st))
		}
	}
	items, total := paginate(out, func(s *model.Staff) time.Time { return s.CreatedAt }, filter.Page, filter.PageSize)
	return items, total, nil
}

func (r staffRepository) ListSpecializations(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, st := range r.staff {
		if st.OrganizationID != orgID || st.IsDeleted || st.Doctor == nil {
			continue
		}
		for _, name := range st.Doctor.Specializations {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

type patientRepository struct{ *Store }

func (s *Store) Patients() repository.PatientRepository {
	return patientRepository{s}
}

func (r patientRepository) Create(ctx context.Context, p *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&p.Base)
	r.patients[p.ID] = *p
	return nil
}

func (r patientRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok || p.OrganizationID != orgID {
		return nil, notFound("patient")
	}
	return &p, nil
}

func (r patientRepository) Update(ctx context.Context, p *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.patients[p.ID]
	if !ok || old.OrganizationID != p.OrganizationID {
		return notFound("patient")
	}
	p.UpdatedAt = time.Now().UTC()
	r.patients[p.ID] = *p
	return nil
}

func (r patientRepository) SetDeleted(ctx context.Context, orgID, id uuid.UUID, deleted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok || p.OrganizationID != orgID {
		return notFound("patient")
	}
	markDeleted(&p.SoftDelete, deleted)
	p.UpdatedAt = time.Now().UTC()
	r.patients[id] = p
	return nil
}

func (r patientRepository) List(ctx context.Context, orgID uuid.UUID, filter model.ListFilter) ([]*model.Patient, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Patient
	for _, p := range r.patients {
		p := p
		if p.OrganizationID != orgID || (p.IsDeleted && !filter.IncludeDeleted) {
			continue
		}
		if matches(filter.Search, p.FirstName+" "+p.LastName, p.Phone, p.Email) {
			out = append(out, &p)
		}
	}
	items, total := paginate(out, func(p *model.Patient) time.Time { return p.CreatedAt }, filter.Page, filter.PageSize)
	return items, total, nil
}

type appointmentRepository struct{ *Store }

func (s *Store) Appointments() repository.AppointmentRepository {
	return appointmentRepository{s}
}

func (r appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&a.Base)
	r.appointments[a.ID] = *a
	return nil
}

func (r appointmentRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.OrganizationID != orgID {
		return nil, notFound("appointment")
	}
	return &a, nil
}

func (r appointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.appointments[a.ID]
	if !ok || old.OrganizationID != a.OrganizationID {
		return notFound("appointment")
	}
	a.UpdatedAt = time.Now().UTC()
	r.appointments[a.ID] = *a
	return nil
}

func (r appointmentRepository) List(ctx context.Context, orgID uuid.UUID, filter model.AppointmentFilter) ([]*model.Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.appointments {
		a := a
		switch {
		case a.OrganizationID != orgID:
		case filter.PatientID != nil && a.PatientID != *filter.PatientID:
		case filter.DoctorID != nil && a.DoctorID != *filter.DoctorID:
		case filter.Status != "" && a.Status != filter.Status:
		case filter.From != nil && a.ScheduledAt.Before(*filter.From):
		case filter.To != nil && a.ScheduledAt.After(*filter.To):
		default:
			out = append(out, &a)
		}
	}
	items, total := paginate(out, func(a *model.Appointment) time.Time { return a.ScheduledAt }, filter.Page, filter.PageSize)
	return items, total, nil
}
