package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
)

// PaymentDirection tells whether money flows into or out of the company
type PaymentDirection string

const (
	PaymentDirectionIn  PaymentDirection = "IN"  // Money received from a party
	PaymentDirectionOut PaymentDirection = "OUT" // Money paid to a party
)

// IsValid checks if the direction is valid
func (d PaymentDirection) IsValid() bool {
	return d == PaymentDirectionIn || d == PaymentDirectionOut
}

// String returns the string representation
func (d PaymentDirection) String() string {
	return string(d)
}

// BalanceDelta returns the signed effect of a payment of the given amount
// on the party balance. A payment in reduces what the party owes the
// company; a payment out reduces what the company owes the party.
func (d PaymentDirection) BalanceDelta(amount decimal.Decimal) decimal.Decimal {
	if d == PaymentDirectionIn {
		return amount.Neg()
	}
	return amount
}

// PaymentMethod is how the money moved
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCard         PaymentMethod = "CARD"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodUPI, PaymentMethodCard:
		return true
	}
	return false
}

// String returns the string representation
func (m PaymentMethod) String() string {
	return string(m)
}

// RequiresBankLeg reports whether a payment using this method must reference
// a bank account and produce a bank transaction. Everything except cash does.
func (m PaymentMethod) RequiresBankLeg() bool {
	return m.IsValid() && m != PaymentMethodCash
}

// PaymentState represents the lifecycle state of a payment
type PaymentState string

const (
	PaymentStateCompleted PaymentState = "COMPLETED"
	PaymentStateReversed  PaymentState = "REVERSED"
)

// IsValid checks if the state is valid
func (s PaymentState) IsValid() bool {
	return s == PaymentStateCompleted || s == PaymentStateReversed
}

// String returns the string representation
func (s PaymentState) String() string {
	return string(s)
}

// PaymentAllocation is the portion of a payment assigned to one invoice.
// Allocations are ordered; Position preserves the plan order.
type PaymentAllocation struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceNumber string          `gorm:"type:varchar(50);not null"` // Denormalized for display
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Position      int             `gorm:"not null"`
	AllocatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocation) TableName() string {
	return "payment_allocations"
}

// GetAmountMoney returns the allocated amount as Money
func (a *PaymentAllocation) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(a.Amount)
}

// Payment represents a recorded money movement aggregate root.
// Once completed a payment is immutable except for the single
// reversal transition.
type Payment struct {
	shared.CompanyAggregateRoot
	PaymentNumber     string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_company_number,priority:2"`
	PartyID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	PartyName         string              `gorm:"type:varchar(200);not null"`
	Direction         PaymentDirection    `gorm:"type:varchar(10);not null"`
	Method            PaymentMethod       `gorm:"type:varchar(30);not null"`
	Amount            decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	AllocatedAmount   decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	UnallocatedAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null"` // Advance credit
	BankAccountID     *uuid.UUID          `gorm:"type:uuid;index"`
	BankTransactionID *uuid.UUID          `gorm:"type:uuid"`
	State             PaymentState        `gorm:"type:varchar(20);not null;default:'COMPLETED';index"`
	Allocations       []PaymentAllocation `gorm:"foreignKey:PaymentID;references:ID"`
	Reference         string              `gorm:"type:varchar(100)"` // Bank txn id, cheque number, UPI ref
	Remark            string              `gorm:"type:text"`
	PaidAt            time.Time           `gorm:"not null;index"`
	ReversedAt        *time.Time
	ReversalReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a new payment in COMPLETED state with no allocations yet.
// The ledger writer attaches allocations from the allocation plan before
// persisting.
func NewPayment(
	companyID uuid.UUID,
	paymentNumber string,
	partyID uuid.UUID,
	partyName string,
	direction PaymentDirection,
	method PaymentMethod,
	amount valueobject.Money,
	bankAccountID *uuid.UUID,
	paidAt time.Time,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if len(paymentNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot exceed 50 characters")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if partyName == "" {
		return nil, shared.NewDomainError("INVALID_PARTY_NAME", "Party name cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Payment direction is not valid")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAllocation("Payment amount must be positive")
	}
	if method.RequiresBankLeg() && (bankAccountID == nil || *bankAccountID == uuid.Nil) {
		return nil, ErrBankAccountRequired(method)
	}
	if !method.RequiresBankLeg() {
		bankAccountID = nil
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	amt := amount.RoundMinor().Amount()
	p := &Payment{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		PaymentNumber:        paymentNumber,
		PartyID:              partyID,
		PartyName:            partyName,
		Direction:            direction,
		Method:               method,
		Amount:               amt,
		AllocatedAmount:      decimal.Zero,
		UnallocatedAmount:    amt,
		BankAccountID:        bankAccountID,
		State:                PaymentStateCompleted,
		Allocations:          make([]PaymentAllocation, 0),
		PaidAt:               paidAt,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// AddAllocation assigns part of the payment amount to an invoice.
// The sum of all allocations never exceeds the payment amount.
func (p *Payment) AddAllocation(invoiceID uuid.UUID, invoiceNumber string, amount valueobject.Money) (*PaymentAllocation, error) {
	if p.State != PaymentStateCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot allocate payment in %s state", p.State))
	}
	if invoiceID == uuid.Nil {
		return nil, ErrInvalidAllocation("Invoice ID cannot be empty")
	}
	amt := amount.RoundMinor().Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAllocation("Allocation amount must be positive")
	}
	if amt.GreaterThan(p.UnallocatedAmount) {
		return nil, ErrInvalidAllocation(fmt.Sprintf("Allocation amount %s exceeds unallocated amount %s", amt.StringFixed(2), p.UnallocatedAmount.StringFixed(2)))
	}
	for _, alloc := range p.Allocations {
		if alloc.InvoiceID == invoiceID {
			return nil, ErrInvalidAllocation(fmt.Sprintf("Already allocated to invoice %s", invoiceNumber))
		}
	}

	allocation := PaymentAllocation{
		ID:            uuid.New(),
		PaymentID:     p.ID,
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
		Amount:        amt,
		Position:      len(p.Allocations),
		AllocatedAt:   time.Now(),
	}
	p.Allocations = append(p.Allocations, allocation)

	p.AllocatedAmount = p.AllocatedAmount.Add(amt)
	p.UnallocatedAmount = p.Amount.Sub(p.AllocatedAmount)
	p.UpdatedAt = time.Now()

	return &p.Allocations[len(p.Allocations)-1], nil
}

// AttachBankTransaction stores the reference to the bank transaction that
// carries this payment's bank leg.
func (p *Payment) AttachBankTransaction(bankTransactionID uuid.UUID) error {
	if !p.Method.RequiresBankLeg() {
		return shared.NewDomainError("INVALID_STATE", "Payment method has no bank leg")
	}
	if bankTransactionID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Bank transaction ID cannot be empty")
	}
	p.BankTransactionID = &bankTransactionID
	p.UpdatedAt = time.Now()
	return nil
}

// MarkReversed transitions the payment to REVERSED. Reversing an already
// reversed payment is a no-op; the caller treats it as success.
func (p *Payment) MarkReversed(reason string) bool {
	if p.State == PaymentStateReversed {
		return false
	}

	now := time.Now()
	p.State = PaymentStateReversed
	p.ReversedAt = &now
	p.ReversalReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentReversedEvent(p))

	return true
}

// BalanceDelta returns the signed party balance effect of this payment
func (p *Payment) BalanceDelta() decimal.Decimal {
	return p.Direction.BalanceDelta(p.Amount)
}

// IsReversed returns true if the payment has been reversed
func (p *Payment) IsReversed() bool {
	return p.State == PaymentStateReversed
}

// HasBankLeg returns true if the payment carries a bank transaction
func (p *Payment) HasBankLeg() bool {
	return p.Method.RequiresBankLeg()
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.Amount)
}

// GetUnallocatedAmountMoney returns the advance credit portion as Money
func (p *Payment) GetUnallocatedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.UnallocatedAmount)
}

// SetReference sets the external payment reference
func (p *Payment) SetReference(reference string) error {
	if len(reference) > 100 {
		return shared.NewDomainError("INVALID_REFERENCE", "Payment reference cannot exceed 100 characters")
	}
	p.Reference = reference
	p.UpdatedAt = time.Now()
	return nil
}

// SetRemark sets the remark
func (p *Payment) SetRemark(remark string) {
	p.Remark = remark
	p.UpdatedAt = time.Now()
}
