package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
)

// DocumentType distinguishes sale invoices (money owed to the company)
// from purchase invoices (money the company owes)
type DocumentType string

const (
	DocumentTypeSale     DocumentType = "SALE"
	DocumentTypePurchase DocumentType = "PURCHASE"
)

// IsValid checks if the document type is valid
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeSale || t == DocumentTypePurchase
}

// String returns the string representation
func (t DocumentType) String() string {
	return string(t)
}

// BalanceSign returns the sign with which this document's pending amount
// contributes to the party balance: +1 for sales (party owes company),
// -1 for purchases (company owes party).
func (t DocumentType) BalanceSign() decimal.Decimal {
	if t == DocumentTypePurchase {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// PaymentStatus represents how much of an invoice has been settled
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING" // Nothing paid yet
	PaymentStatusPartial PaymentStatus = "PARTIAL" // 0 < paid < total
	PaymentStatusPaid    PaymentStatus = "PAID"    // Fully settled
)

// IsValid checks if the status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s PaymentStatus) String() string {
	return string(s)
}

// Open reports whether the invoice can still receive payments
func (s PaymentStatus) Open() bool {
	return s == PaymentStatusPending || s == PaymentStatusPartial
}

// Invoice represents a sale or purchase document aggregate root.
// TotalAmount is immutable once issued; PaidAmount and PendingAmount are
// mutated exclusively by the ledger writer.
type Invoice struct {
	shared.CompanyAggregateRoot
	DocumentNumber string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_company_number,priority:2"`
	DocumentType   DocumentType    `gorm:"type:varchar(20);not null;index"`
	PartyID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartyName      string          `gorm:"type:varchar(200);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PendingAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentStatus  PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate        *time.Time      `gorm:"index"`
	IssuedAt       time.Time       `gorm:"not null"`
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new invoice
func NewInvoice(
	companyID uuid.UUID,
	documentNumber string,
	documentType DocumentType,
	partyID uuid.UUID,
	partyName string,
	totalAmount valueobject.Money,
	issuedAt time.Time,
	dueDate *time.Time,
) (*Invoice, error) {
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if len(documentNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot exceed 50 characters")
	}
	if !documentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Document type is not valid")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if partyName == "" {
		return nil, shared.NewDomainError("INVALID_PARTY_NAME", "Party name cannot be empty")
	}
	if totalAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	total := totalAmount.RoundMinor().Amount()
	inv := &Invoice{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		DocumentNumber:       documentNumber,
		DocumentType:         documentType,
		PartyID:              partyID,
		PartyName:            partyName,
		TotalAmount:          total,
		PaidAmount:           decimal.Zero,
		PendingAmount:        total,
		PaymentStatus:        PaymentStatusPending,
		IssuedAt:             issuedAt,
		DueDate:              dueDate,
	}

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return inv, nil
}

// ApplyPayment records a settled amount against the invoice.
// The amount must not exceed the pending amount; allocation capping is the
// allocation engine's job, this is the last line of defense.
func (inv *Invoice) ApplyPayment(amount valueobject.Money) error {
	if inv.CancelledAt != nil {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply payment to a cancelled invoice")
	}
	if !inv.PaymentStatus.Open() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.PaymentStatus))
	}
	amt := amount.RoundMinor().Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amt.GreaterThan(inv.PendingAmount) {
		return shared.NewDomainError("EXCEEDS_PENDING", fmt.Sprintf("Payment amount %s exceeds pending amount %s", amt.StringFixed(2), inv.PendingAmount.StringFixed(2)))
	}

	inv.PaidAmount = inv.PaidAmount.Add(amt)
	inv.PendingAmount = inv.TotalAmount.Sub(inv.PaidAmount)
	inv.refreshPaymentStatus()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	if inv.PaymentStatus == PaymentStatusPaid {
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.AddDomainEvent(NewInvoicePartiallyPaidEvent(inv, amt))
	}

	return nil
}

// RevertPayment removes a previously applied amount, used by payment reversal.
// It restores paid/pending amounts and recomputes the status.
func (inv *Invoice) RevertPayment(amount valueobject.Money) error {
	amt := amount.RoundMinor().Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Reverted amount must be positive")
	}
	if amt.GreaterThan(inv.PaidAmount) {
		return shared.NewDomainError("EXCEEDS_PAID", fmt.Sprintf("Reverted amount %s exceeds paid amount %s", amt.StringFixed(2), inv.PaidAmount.StringFixed(2)))
	}

	inv.PaidAmount = inv.PaidAmount.Sub(amt)
	inv.PendingAmount = inv.TotalAmount.Sub(inv.PaidAmount)
	inv.refreshPaymentStatus()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaymentRevertedEvent(inv, amt))

	return nil
}

// Cancel soft-cancels the invoice. Invoices that have received payments
// cannot be cancelled; reverse the payments first.
func (inv *Invoice) Cancel(reason string) error {
	if inv.CancelledAt != nil {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	if inv.PaidAmount.GreaterThan(decimal.Zero) {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot cancel invoice with recorded payments")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.PendingAmount = decimal.Zero
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

func (inv *Invoice) refreshPaymentStatus() {
	switch {
	case inv.PaidAmount.IsZero():
		inv.PaymentStatus = PaymentStatusPending
	case inv.PendingAmount.IsZero():
		inv.PaymentStatus = PaymentStatusPaid
	default:
		inv.PaymentStatus = PaymentStatusPartial
	}
}

// IsOpen returns true if the invoice can still receive payments
func (inv *Invoice) IsOpen() bool {
	return inv.CancelledAt == nil && inv.PaymentStatus.Open()
}

// IsOverdue returns true if the invoice is past due date and not settled
func (inv *Invoice) IsOverdue() bool {
	if !inv.IsOpen() || inv.DueDate == nil {
		return false
	}
	return time.Now().After(*inv.DueDate)
}

// GetTotalAmountMoney returns total amount as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.TotalAmount)
}

// GetPaidAmountMoney returns paid amount as Money
func (inv *Invoice) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.PaidAmount)
}

// GetPendingAmountMoney returns pending amount as Money
func (inv *Invoice) GetPendingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.PendingAmount)
}

// AsOpenInvoice converts the invoice into the allocation engine's view
func (inv *Invoice) AsOpenInvoice() OpenInvoice {
	return OpenInvoice{
		ID:             inv.ID,
		CompanyID:      inv.CompanyID,
		PartyID:        inv.PartyID,
		DocumentNumber: inv.DocumentNumber,
		PendingAmount:  inv.PendingAmount,
		DueDate:        inv.DueDate,
		CreatedAt:      inv.CreatedAt,
	}
}
