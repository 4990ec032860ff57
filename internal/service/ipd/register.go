package ipd

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// gate loads the admission and fails when it no longer accepts changes.
func (s *Service) gate(ctx context.Context, orgID, admissionID uuid.UUID) error {
	_, caps, err := s.load(ctx, orgID, admissionID)
	if err != nil {
		return err
	}
	return caps.Allow()
}

func (s *Service) AddConsultant(ctx context.Context, orgID, admissionID uuid.UUID, req *model.ConsultantEntryRequest) (*model.ConsultantEntry, error) {
	if err := s.gate(ctx, orgID, admissionID); err != nil {
		return nil, err
	}
	if req.Fee.IsNegative() {
		return nil, apperrors.BadRequest("fee must not be negative", nil)
	}
	if _, err := s.employees.Doctor(ctx, orgID, req.DoctorID); err != nil {
		return nil, err
	}

	e := &model.ConsultantEntry{
		AdmissionID: admissionID,
		DoctorID:    req.DoctorID,
		VisitDate:   req.VisitDate,
		Fee:         req.Fee,
		Notes:       req.Notes,
	}
	if err := s.repo.CreateConsultant(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create consultant entry: %w", err)
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionCreate,
		EntityType:     model.AuditEntityConsultant,
		EntityID:       e.ID,
	})
	return e, nil
}

func (s *Service) ListConsultants(ctx context.Context, orgID, admissionID uuid.UUID, includeDeleted bool) ([]*model.ConsultantEntry, error) {
	if _, _, err := s.load(ctx, orgID, admissionID); err != nil {
		return nil, err
	}
	return s.repo.ListConsultants(ctx, admissionID, includeDeleted)
}

func (s *Service) GetConsultant(ctx context.Context, orgID, admissionID, id uuid.UUID) (*model.ConsultantEntry, error) {
	if _, _, err := s.load(ctx, orgID, admissionID); err != nil {
		return nil, err
	}
	return s.repo.GetConsultant(ctx, admissionID, id)
}

func (s *Service) UpdateConsultant(ctx context.Context, orgID, admissionID, id uuid.UUID, req *model.UpdateConsultantEntryRequest) (*model.ConsultantEntry, error) {
	if err := s.gate(ctx, orgID, admissionID); err != nil {
		return nil, err
	}
	e, err := s.repo.GetConsultant(ctx, admissionID, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireActive(e.SoftDelete, "consultant entry"); err != nil {
		return nil, err
	}
	if req.Fee != nil && req.Fee.IsNegative() {
		return nil, apperrors.BadRequest("fee must not be negative", nil)
	}
	if req.DoctorID != nil {
		if _, err := s.employees.Doctor(ctx, orgID, *req.DoctorID); err != nil {
			return nil, err
		}
	}

	req.Apply(e)
	if err := s.repo.UpdateConsultant(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update consultant entry: %w", err)
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionUpdate,
		EntityType:     model.AuditEntityConsultant,
		EntityID:       e.ID,
	})
	return e, nil
}

func (s *Service) DeleteConsultant(ctx context.Context, orgID, admissionID, id uuid.UUID) error {
	return s.consultantTransition(ctx, orgID, admissionID, id, model.TransitionDelete, false)
}

func (s *Service) RestoreConsultant(ctx context.Context, orgID, admissionID, id uuid.UUID) error {
	return s.consultantTransition(ctx, orgID, admissionID, id, model.TransitionRestore, false)
}

func (s *Service) PurgeConsultant(ctx context.Context, orgID, admissionID, id uuid.UUID, confirmed bool) error {
	return s.consultantTransition(ctx, orgID, admissionID, id, model.TransitionPermanentDelete, confirmed)
}

func (s *Service) consultantTransition(ctx context.Context, orgID, admissionID, id uuid.UUID, t model.Transition, confirmed bool) error {
	if err := s.gate(ctx, orgID, admissionID); err != nil {
		return err
	}
	if t == model.TransitionPermanentDelete {
		if err := lifecycle.Confirm(confirmed); err != nil {
			return err
		}
	}

	e, err := s.repo.GetConsultant(ctx, admissionID, id)
	if err != nil {
		return err
	}
	if err := lifecycle.Check(e.SoftDelete, t); err != nil {
		return err
	}

	if t == model.TransitionPermanentDelete {
		err = s.repo.PurgeConsultant(ctx, admissionID, id)
	} else {
		err = s.repo.SetConsultantDeleted(ctx, admissionID, id, t == model.TransitionDelete)
	}
	if err != nil {
		return err
	}

	s.recorder.Record(ctx, orgID, model.AuditEntityConsultant, id, t)
	return nil
}

func (s *Service) AddOperation(ctx context.Context, orgID, admissionID uuid.UUID, req *model.OperationRequest) (*model.Operation, error) {
	if err := s.gate(ctx, orgID, admissionID); err != nil {
		return nil, err
	}
	if req.Charge.IsNegative() {
		return nil, apperrors.BadRequest("charge must not be negative", nil)
	}
	if req.SurgeonID != nil {
		if _, err := s.employees.Doctor(ctx, orgID, *req.SurgeonID); err != nil {
			return nil, err
		}
	}

	o := &model.Operation{
		AdmissionID:   admissionID,
		ProcedureName: req.ProcedureName,
		SurgeonID:     req.SurgeonID,
		OperationDate: req.OperationDate,
		Charge:        req.Charge,
		Notes:         req.Notes,
	}
	if err := s.repo.CreateOperation(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create operation: %w", err)
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionCreate,
		EntityType:     model.AuditEntityOperation,
		EntityID:       o.ID,
	})
	return o, nil
}

func (s *Service) ListOperations(ctx context.Context, orgID, admissionID uuid.UUID, includeDeleted bool) ([]*model.Operation, error) {
	if _, _, err := s.load(ctx, orgID, admissionID); err != nil {
		return nil, err
	}
	return s.repo.ListOperations(ctx, admissionID, includeDeleted)
}

func (s *Service) GetOperation(ctx context.Context, orgID, admissionID, id uuid.UUID) (*model.Operation, error) {
	if _, _, err := s.load(ctx, orgID, admissionID); err != nil {
		return nil, err
	}
	return s.repo.GetOperation(ctx, admissionID, id)
}

func (s *Service) UpdateOperation(ctx context.Context, orgID, admissionID, id uuid.UUID, req *model.UpdateOperationRequest) (*model.Operation, error) {
	if err := s.gate(ctx, orgID, admissionID); err != nil {
		return nil, err
	}
	o, err := s.repo.GetOperation(ctx, admissionID, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireActive(o.SoftDelete, "operation"); err != nil {
		return nil, err
	}
	if req.Charge != nil && req.Charge.IsNegative() {
		return nil, apperrors.BadRequest("charge must not be negative", nil)
	}
	if req.SurgeonID != nil {
		if _, err := s.employees.Doctor(ctx, orgID, *req.SurgeonID); err != nil {
			return nil, err
		}
	}

	req.Apply(o)
	if err := s.repo.UpdateOperation(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to update operation: %w", err)
	}

	s.auditor.Log(ctx, model.AuditEntry{
		OrganizationID: orgID,
		Action:         model.AuditActionUpdate,
		EntityType:     model.AuditEntityOperation,
		EntityID:       o.ID,
	})
	return o, nil
}

func (s *Service) DeleteOperation(ctx context.Context, orgID, admissionID, id uuid.UUID) error {
	return s.operationTransition(ctx, orgID, admissionID, id, model.TransitionDelete, false)
}

func (s *Service) RestoreOperation(ctx context.Context, orgID, admissionID, id uuid.UUID) error {
	return s.operationTransition(ctx, orgID, admissionID, id, model.TransitionRestore, false)
}

func (s *Service) PurgeOperation(ctx context.Context, orgID, admissionID, id uuid.UUID, confirmed bool) error {
	return s.operationTransition(ctx, orgID, admissionID, id, model.TransitionPermanentDelete, confirmed)
}

func (s *Service) operationTransition(ctx context.Context, orgID, admissionID, id uuid.UUID, t model.Transition, confirmed bool) error {
	if err := s.gate(ctx, orgID, admissionID); err != nil {
		return err
	}
	if t == model.TransitionPermanentDelete {
		if err := lifecycle.Confirm(confirmed); err != nil {
			return err
		}
	}

	o, err := s.repo.GetOperation(ctx, admissionID, id)
	if err != nil {
		return err
	}
	if err := lifecycle.Check(o.SoftDelete, t); err != nil {
		return err
	}

	if t == model.TransitionPermanentDelete {
		err = s.repo.PurgeOperation(ctx, admissionID, id)
	} else {
		err = s.repo.SetOperationDeleted(ctx, admissionID, id, t == model.TransitionDelete)
	}
	if err != nil {
		return err
	}

	s.recorder.Record(ctx, orgID, model.AuditEntityOperation, id, t)
	return nil
}
