package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
)

// BankAccount represents a company bank account with a running balance.
// The running balance only moves through ledger writer bank legs.
type BankAccount struct {
	shared.CompanyAggregateRoot
	AccountName    string          `gorm:"type:varchar(200);not null"`
	AccountNumber  string          `gorm:"type:varchar(50);not null"`
	BankName       string          `gorm:"type:varchar(200);not null"`
	PartyID        *uuid.UUID      `gorm:"type:uuid;index"` // Set when the account belongs to a party
	RunningBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive       bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (BankAccount) TableName() string {
	return "bank_accounts"
}

// NewBankAccount creates a new bank account
func NewBankAccount(companyID uuid.UUID, accountName, accountNumber, bankName string) (*BankAccount, error) {
	if accountName == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if accountNumber == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NUMBER", "Account number cannot be empty")
	}
	if bankName == "" {
		return nil, shared.NewDomainError("INVALID_BANK_NAME", "Bank name cannot be empty")
	}

	return &BankAccount{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		AccountName:          accountName,
		AccountNumber:        accountNumber,
		BankName:             bankName,
		RunningBalance:       decimal.Zero,
		IsActive:             true,
	}, nil
}

// ApplyPayment moves the running balance for a payment bank leg:
// payments in credit the account, payments out debit it.
func (b *BankAccount) ApplyPayment(direction PaymentDirection, amount valueobject.Money) error {
	if !b.IsActive {
		return shared.NewDomainError("BANK_ACCOUNT_INACTIVE", "Cannot post to an inactive bank account")
	}
	amt := amount.RoundMinor().Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Bank leg amount must be positive")
	}

	if direction == PaymentDirectionIn {
		b.RunningBalance = b.RunningBalance.Add(amt)
	} else {
		b.RunningBalance = b.RunningBalance.Sub(amt)
	}
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// RevertPayment undoes a previously applied bank leg
func (b *BankAccount) RevertPayment(direction PaymentDirection, amount valueobject.Money) error {
	amt := amount.RoundMinor().Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Bank leg amount must be positive")
	}

	if direction == PaymentDirectionIn {
		b.RunningBalance = b.RunningBalance.Sub(amt)
	} else {
		b.RunningBalance = b.RunningBalance.Add(amt)
	}
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// GetRunningBalanceMoney returns the running balance as Money
func (b *BankAccount) GetRunningBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(b.RunningBalance)
}

// BankTransactionType distinguishes credits from debits
type BankTransactionType string

const (
	BankTransactionTypeCredit BankTransactionType = "CREDIT"
	BankTransactionTypeDebit  BankTransactionType = "DEBIT"
)

// String returns the string representation
func (t BankTransactionType) String() string {
	return string(t)
}

// BankTransactionTypeForDirection maps a payment direction to the bank
// transaction type it produces
func BankTransactionTypeForDirection(direction PaymentDirection) BankTransactionType {
	if direction == PaymentDirectionIn {
		return BankTransactionTypeCredit
	}
	return BankTransactionTypeDebit
}

// BankTransaction is an append-only row recording one bank leg.
// Exactly one exists per completed bank-affecting payment; rows are
// never updated or deleted. A reversal appends a compensating row.
type BankTransaction struct {
	shared.BaseEntity
	CompanyID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	BankAccountID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	PaymentID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	Type            BankTransactionType `gorm:"type:varchar(10);not null"`
	Amount          decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Description     string              `gorm:"type:varchar(500)"`
	Reference       string              `gorm:"type:varchar(100)"`
	TransactionDate time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (BankTransaction) TableName() string {
	return "bank_transactions"
}

// NewBankTransaction creates a bank transaction for a payment bank leg.
// BalanceAfter snapshots the account running balance after the leg applied.
func NewBankTransaction(
	account *BankAccount,
	payment *Payment,
	txType BankTransactionType,
	amount valueobject.Money,
	description string,
) (*BankTransaction, error) {
	if account == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Bank account cannot be nil")
	}
	if payment == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment cannot be nil")
	}
	amt := amount.RoundMinor().Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}

	return &BankTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		CompanyID:       account.CompanyID,
		BankAccountID:   account.ID,
		PaymentID:       payment.ID,
		Type:            txType,
		Amount:          amt,
		BalanceAfter:    account.RunningBalance,
		Description:     description,
		Reference:       payment.Reference,
		TransactionDate: payment.PaidAt,
	}, nil
}
