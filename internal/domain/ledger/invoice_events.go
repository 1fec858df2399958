package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared"
)

// InvoiceIssuedEvent is raised when a new invoice is issued
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	DocumentNumber string          `json:"document_number"`
	DocumentType   DocumentType    `json:"document_type"`
	PartyID        uuid.UUID       `json:"party_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// EventType returns the event type name
func (e *InvoiceIssuedEvent) EventType() string {
	return "InvoiceIssued"
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceIssued", "Invoice", inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		DocumentNumber:  inv.DocumentNumber,
		DocumentType:    inv.DocumentType,
		PartyID:         inv.PartyID,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoicePartiallyPaidEvent is raised when a payment settles part of an invoice
type InvoicePartiallyPaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	DocumentNumber string          `json:"document_number"`
	AppliedAmount  decimal.Decimal `json:"applied_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
}

// EventType returns the event type name
func (e *InvoicePartiallyPaidEvent) EventType() string {
	return "InvoicePartiallyPaid"
}

// NewInvoicePartiallyPaidEvent creates a new InvoicePartiallyPaidEvent
func NewInvoicePartiallyPaidEvent(inv *Invoice, applied decimal.Decimal) *InvoicePartiallyPaidEvent {
	return &InvoicePartiallyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePartiallyPaid", "Invoice", inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		DocumentNumber:  inv.DocumentNumber,
		AppliedAmount:   applied,
		PaidAmount:      inv.PaidAmount,
		PendingAmount:   inv.PendingAmount,
	}
}

// InvoicePaidEvent is raised when an invoice becomes fully settled
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	DocumentNumber string          `json:"document_number"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return "InvoicePaid"
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		DocumentNumber:  inv.DocumentNumber,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoicePaymentRevertedEvent is raised when a reversal restores invoice amounts
type InvoicePaymentRevertedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	DocumentNumber string          `json:"document_number"`
	RevertedAmount decimal.Decimal `json:"reverted_amount"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
}

// EventType returns the event type name
func (e *InvoicePaymentRevertedEvent) EventType() string {
	return "InvoicePaymentReverted"
}

// NewInvoicePaymentRevertedEvent creates a new InvoicePaymentRevertedEvent
func NewInvoicePaymentRevertedEvent(inv *Invoice, reverted decimal.Decimal) *InvoicePaymentRevertedEvent {
	return &InvoicePaymentRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaymentReverted", "Invoice", inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		DocumentNumber:  inv.DocumentNumber,
		RevertedAmount:  reverted,
		PendingAmount:   inv.PendingAmount,
	}
}

// InvoiceCancelledEvent is raised when an unpaid invoice is soft-cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID `json:"invoice_id"`
	DocumentNumber string    `json:"document_number"`
	CancelReason   string    `json:"cancel_reason"`
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return "InvoiceCancelled"
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCancelled", "Invoice", inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		DocumentNumber:  inv.DocumentNumber,
		CancelReason:    inv.CancelReason,
	}
}
