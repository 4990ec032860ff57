package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/billing"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type billRepository struct {
	BaseRepository
}

func NewBillRepository(base BaseRepository) repository.BillRepository {
	return &billRepository{base}
}

const billSelect = `
	SELECT b.id, b.organization_id, b.kind, b.bill_number, b.patient_id,
		TRIM(p.first_name || ' ' || p.last_name) AS patient_name,
		b.charge_id, b.doctor_id, b.description, b.service_date, b.details,
		b.base_amount, b.discount_amount, b.tax_percent, b.taxable_amount,
		b.tax_amount, b.net_amount, b.paid_amount, b.status,
		b.is_deleted, b.deleted_at, b.created_at, b.updated_at
	FROM bills b
	JOIN patients p ON p.id = b.patient_id
`

const paymentColumns = `id, bill_id, amount, mode, reference_number, purpose, paid_at, notes, recorded_by, created_at, updated_at`

func insertBill(ctx context.Context, tx *sqlx.Tx, b *model.Bill) error {
	query := `
		INSERT INTO bills (
			id, organization_id, kind, bill_number, patient_id, charge_id, doctor_id,
			description, service_date, details, base_amount, discount_amount, tax_percent,
			taxable_amount, tax_amount, net_amount, paid_amount, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt

	_, err := tx.ExecContext(ctx, query,
		b.ID,
		b.OrganizationID,
		b.Kind,
		b.BillNumber,
		b.PatientID,
		b.ChargeID,
		b.DoctorID,
		b.Description,
		b.ServiceDate,
		b.Details,
		b.BaseAmount,
		b.DiscountAmount,
		b.TaxPercent,
		b.TaxableAmount,
		b.TaxAmount,
		b.NetAmount,
		b.PaidAmount,
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

func (r *billRepository) Create(ctx context.Context, b *model.Bill, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertBill(ctx, tx, b); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, event)
	})
}

func (r *billRepository) Get(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID) (*model.Bill, error) {
	var b model.Bill
	query := billSelect + ` WHERE b.id = $1 AND b.organization_id = $2 AND b.kind = $3`
	if err := r.db.GetContext(ctx, &b, query, id, orgID, kind); err != nil {
		return nil, notFound("bill", err)
	}
	return &b, nil
}

func (r *billRepository) Update(ctx context.Context, b *model.Bill) error {
	query := `
		UPDATE bills
		SET doctor_id = $1, description = $2, service_date = $3, details = $4,
			base_amount = $5, discount_amount = $6, tax_percent = $7, taxable_amount = $8,
			tax_amount = $9, net_amount = $10, status = $11, updated_at = $12
		WHERE id = $13 AND organization_id = $14
	`
	b.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		b.DoctorID,
		b.Description,
		b.ServiceDate,
		b.Details,
		b.BaseAmount,
		b.DiscountAmount,
		b.TaxPercent,
		b.TaxableAmount,
		b.TaxAmount,
		b.NetAmount,
		b.Status,
		b.UpdatedAt,
		b.ID,
		b.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	return expectRows("bill", result)
}

func (r *billRepository) SetDeleted(ctx context.Context, orgID uuid.UUID, kind model.BillKind, id uuid.UUID, deleted bool, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := setDeleted(ctx, tx, "bills", "organization_id", orgID, id, deleted, "bill"); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, event)
	})
}

func (r *billRepository) List(ctx context.Context, orgID uuid.UUID, kind model.BillKind, filter model.BillFilter) ([]*model.Bill, int, error) {
	where := `
		WHERE b.organization_id = $1 AND b.kind = $2
		AND ($3 OR NOT b.is_deleted)
		AND ($4 = '' OR b.bill_number ILIKE $5 OR (p.first_name || ' ' || p.last_name) ILIKE $5)
		AND ($6 = '' OR b.status = $6)
	`
	args := []interface{}{orgID, kind, filter.IncludeDeleted, filter.Search, likePattern(filter.Search), string(filter.Status)}

	var total int
	countQuery := `SELECT COUNT(*) FROM bills b JOIN patients p ON p.id = b.patient_id ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bills: %w", err)
	}

	bills := []*model.Bill{}
	query := billSelect + where + ` ORDER BY b.created_at DESC LIMIT $7 OFFSET $8`
	if err := r.db.SelectContext(ctx, &bills, query, append(args, filter.PageSize, filter.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, total, nil
}

func (r *billRepository) ListPayments(ctx context.Context, billID uuid.UUID) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE bill_id = $1 ORDER BY paid_at, created_at`

	payments := []*model.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, billID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func lockBill(ctx context.Context, tx *sqlx.Tx, orgID, billID uuid.UUID) (*model.Bill, error) {
	var b model.Bill
	query := billSelect + ` WHERE b.id = $1 AND b.organization_id = $2 AND NOT b.is_deleted FOR UPDATE OF b`
	if err := tx.GetContext(ctx, &b, query, billID, orgID); err != nil {
		return nil, notFound("bill", err)
	}
	return &b, nil
}

func updateBillPaid(ctx context.Context, tx *sqlx.Tx, b *model.Bill) error {
	b.UpdatedAt = time.Now().UTC()
	_, err := tx.ExecContext(ctx, `
		UPDATE bills SET paid_amount = $1, status = $2, updated_at = $3 WHERE id = $4`,
		b.PaidAmount, b.Status, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill balance: %w", err)
	}
	return nil
}

func (r *billRepository) RecordPayment(ctx context.Context, orgID, billID uuid.UUID, fn repository.RecordPaymentFunc) (*model.Payment, *model.Bill, error) {
	var (
		payment *model.Payment
		bill    *model.Bill
	)

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if bill, err = lockBill(ctx, tx, orgID, billID); err != nil {
			return err
		}

		var event *model.OutboxEvent
		if payment, event, err = fn(bill); err != nil {
			return err
		}

		query := `
			INSERT INTO payments (` + paymentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, query,
			payment.ID,
			payment.BillID,
			payment.Amount,
			payment.Mode,
			payment.ReferenceNumber,
			payment.Purpose,
			payment.PaidAt,
			payment.Notes,
			payment.RecordedBy,
			payment.CreatedAt,
			payment.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		if err := updateBillPaid(ctx, tx, bill); err != nil {
			return err
		}

		if payment.Purpose == billing.PurposeCredit {
			if _, err := tx.ExecContext(ctx, `
				UPDATE admissions SET credit_limit = credit_limit + $1, updated_at = NOW()
				WHERE bill_id = $2`, payment.Amount, bill.ID,
			); err != nil {
				return fmt.Errorf("failed to raise credit limit: %w", err)
			}
		}

		return insertOutbox(ctx, tx, event)
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, bill, nil
}

func (r *billRepository) DeletePayment(ctx context.Context, orgID, billID, paymentID uuid.UUID, fn repository.DeletePaymentFunc) (*model.Payment, *model.Bill, error) {
	var (
		payment model.Payment
		bill    *model.Bill
	)

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if bill, err = lockBill(ctx, tx, orgID, billID); err != nil {
			return err
		}

		query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND bill_id = $2`
		if err := tx.GetContext(ctx, &payment, query, paymentID, billID); err != nil {
			return notFound("payment", err)
		}

		event, err := fn(bill, &payment)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, payment.ID); err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}

		if err := updateBillPaid(ctx, tx, bill); err != nil {
			return err
		}

		if payment.Purpose == billing.PurposeCredit {
			if _, err := tx.ExecContext(ctx, `
				UPDATE admissions SET credit_limit = GREATEST(credit_limit - $1, 0), updated_at = NOW()
				WHERE bill_id = $2`, payment.Amount, bill.ID,
			); err != nil {
				return fmt.Errorf("failed to lower credit limit: %w", err)
			}
		}

		return insertOutbox(ctx, tx, event)
	})
	if err != nil {
		return nil, nil, err
	}
	return &payment, bill, nil
}
