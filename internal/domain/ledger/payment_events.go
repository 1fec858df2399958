package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared"
)

// PaymentRecordedEvent is raised when a payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID        `json:"payment_id"`
	PaymentNumber string           `json:"payment_number"`
	PartyID       uuid.UUID        `json:"party_id"`
	Direction     PaymentDirection `json:"direction"`
	Method        PaymentMethod    `json:"method"`
	Amount        decimal.Decimal  `json:"amount"`
	PaidAt        time.Time        `json:"paid_at"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "PaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "Payment", p.ID, p.CompanyID),
		PaymentID:       p.ID,
		PaymentNumber:   p.PaymentNumber,
		PartyID:         p.PartyID,
		Direction:       p.Direction,
		Method:          p.Method,
		Amount:          p.Amount,
		PaidAt:          p.PaidAt,
	}
}

// PaymentReversedEvent is raised when a payment is reversed
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	PaymentNumber  string          `json:"payment_number"`
	PartyID        uuid.UUID       `json:"party_id"`
	Amount         decimal.Decimal `json:"amount"`
	ReversalReason string          `json:"reversal_reason"`
	ReversedAt     time.Time       `json:"reversed_at"`
}

// EventType returns the event type name
func (e *PaymentReversedEvent) EventType() string {
	return "PaymentReversed"
}

// NewPaymentReversedEvent creates a new PaymentReversedEvent
func NewPaymentReversedEvent(p *Payment) *PaymentReversedEvent {
	reversedAt := time.Now()
	if p.ReversedAt != nil {
		reversedAt = *p.ReversedAt
	}
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentReversed", "Payment", p.ID, p.CompanyID),
		PaymentID:       p.ID,
		PaymentNumber:   p.PaymentNumber,
		PartyID:         p.PartyID,
		Amount:          p.Amount,
		ReversalReason:  p.ReversalReason,
		ReversedAt:      reversedAt,
	}
}
