package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
)

// PartyType classifies the business relationship with a party
type PartyType string

const (
	PartyTypeCustomer PartyType = "CUSTOMER"
	PartyTypeVendor   PartyType = "VENDOR"
	PartyTypeSupplier PartyType = "SUPPLIER"
	PartyTypeBoth     PartyType = "BOTH" // Customer and vendor at once
)

// IsValid checks if the party type is valid
func (t PartyType) IsValid() bool {
	switch t {
	case PartyTypeCustomer, PartyTypeVendor, PartyTypeSupplier, PartyTypeBoth:
		return true
	}
	return false
}

// String returns the string representation
func (t PartyType) String() string {
	return string(t)
}

// Receivable reports whether balances of this party type count towards receivables
func (t PartyType) Receivable() bool {
	return t == PartyTypeCustomer || t == PartyTypeBoth
}

// Payable reports whether balances of this party type count towards payables
func (t PartyType) Payable() bool {
	return t == PartyTypeVendor || t == PartyTypeSupplier || t == PartyTypeBoth
}

// Party represents a customer/vendor/supplier aggregate root.
// CurrentBalance is signed: positive means the party owes the company,
// negative means the company owes the party. Only the ledger writer and
// party CRUD may change it.
type Party struct {
	shared.CompanyAggregateRoot
	Name           string          `gorm:"type:varchar(200);not null"`
	Type           PartyType       `gorm:"type:varchar(20);not null;index"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive       bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (Party) TableName() string {
	return "parties"
}

// NewParty creates a new party
func NewParty(companyID uuid.UUID, name string, partyType PartyType) (*Party, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PARTY_NAME", "Party name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_PARTY_NAME", "Party name cannot exceed 200 characters")
	}
	if !partyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PARTY_TYPE", "Party type is not valid")
	}

	p := &Party{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
		Type:                 partyType,
		CurrentBalance:       decimal.Zero,
		IsActive:             true,
	}

	p.AddDomainEvent(NewPartyCreatedEvent(p))

	return p, nil
}

// ApplyBalanceDelta applies a signed balance adjustment.
// Positive deltas increase what the party owes the company.
func (p *Party) ApplyBalanceDelta(delta decimal.Decimal) error {
	if !p.IsActive {
		return shared.NewDomainError("PARTY_INACTIVE", "Cannot adjust balance of an inactive party")
	}
	if delta.IsZero() {
		return nil
	}

	before := p.CurrentBalance
	p.CurrentBalance = p.CurrentBalance.Add(delta)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPartyBalanceChangedEvent(p, before, delta))

	return nil
}

// Deactivate soft-deletes the party. Payment history stays untouched.
func (p *Party) Deactivate() error {
	if !p.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Party is already inactive")
	}

	p.IsActive = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// GetCurrentBalanceMoney returns current balance as Money
func (p *Party) GetCurrentBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.CurrentBalance)
}

// OwesCompany returns true if the party owes money to the company
func (p *Party) OwesCompany() bool {
	return p.CurrentBalance.IsPositive()
}

// IsOwedByCompany returns true if the company owes money to the party
func (p *Party) IsOwedByCompany() bool {
	return p.CurrentBalance.IsNegative()
}
