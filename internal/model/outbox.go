package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/hms-api/internal/billing"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types written to the outbox.
const (
	EventBillCreated         = "BILL_CREATED"
	EventBillDeleted         = "BILL_DELETED"
	EventPaymentRecorded     = "PAYMENT_RECORDED"
	EventPaymentDeleted      = "PAYMENT_DELETED"
	EventAdmissionCreated    = "ADMISSION_CREATED"
	EventAdmissionDischarged = "ADMISSION_DISCHARGED"
)

type OutboxEvent struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	EventType      string          `db:"event_type" json:"event_type"`
	Payload        json.RawMessage `db:"payload" json:"payload"`
	Status         OutboxStatus    `db:"status" json:"status"`
	ErrorMessage   *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt    *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// NewOutboxEvent marshals payload into a pending event.
func NewOutboxEvent(orgID uuid.UUID, eventType string, payload interface{}) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &OutboxEvent{
		ID:             uuid.New(),
		OrganizationID: orgID,
		EventType:      eventType,
		Payload:        data,
		Status:         OutboxStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// BillEvent is the payload of bill and admission events.
type BillEvent struct {
	BillID      uuid.UUID       `json:"bill_id"`
	BillNumber  string          `json:"bill_number"`
	Kind        BillKind        `json:"kind"`
	PatientID   uuid.UUID       `json:"patient_id"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	AdmissionID *uuid.UUID      `json:"admission_id,omitempty"`
	Status      string          `json:"status,omitempty"`
}

// PaymentEvent is the payload of payment events. PatientEmail is set when a
// receipt should be mailed.
type PaymentEvent struct {
	BillID       uuid.UUID           `json:"bill_id"`
	BillNumber   string              `json:"bill_number"`
	Kind         BillKind            `json:"kind"`
	PaymentID    uuid.UUID           `json:"payment_id"`
	Amount       decimal.Decimal     `json:"amount"`
	Mode         billing.PaymentMode `json:"mode"`
	Purpose      billing.Purpose     `json:"purpose"`
	PaidAmount   decimal.Decimal     `json:"paid_amount"`
	DueAmount    decimal.Decimal     `json:"due_amount"`
	BillStatus   billing.Status      `json:"bill_status"`
	PatientName  string              `json:"patient_name"`
	PatientEmail string              `json:"patient_email,omitempty"`
	PaidAt       time.Time           `json:"paid_at"`
}
