package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared"
)

// PartyRepository defines the interface for party persistence
type PartyRepository interface {
	// FindByIDForCompany finds a party by ID within a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Party, error)

	// FindActiveForCompany finds active parties, optionally filtered by type
	FindActiveForCompany(ctx context.Context, companyID uuid.UUID, partyType *PartyType) ([]Party, error)

	// Save creates or updates a party
	Save(ctx context.Context, party *Party) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, party *Party) error
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForCompany finds an invoice by ID within a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error)

	// FindOpenByParty finds open (pending or partial, not cancelled) invoices
	// for a party ordered oldest-due-first
	FindOpenByParty(ctx context.Context, companyID, partyID uuid.UUID) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// SumPendingByParty sums pending amounts of open invoices for a party,
	// signed per document type (sales positive, purchases negative)
	SumPendingByParty(ctx context.Context, companyID, partyID uuid.UUID) (decimal.Decimal, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	PartyID   *uuid.UUID
	Direction *PaymentDirection
	Method    *PaymentMethod
	State     *PaymentState
	FromDate  *time.Time
	ToDate    *time.Time
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByIDForCompany finds a payment with its allocations
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Payment, error)

	// FindAllForCompany lists payments with filtering and pagination
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter PaymentFilter) ([]Payment, error)

	// CountForCompany counts payments matching the filter
	CountForCompany(ctx context.Context, companyID uuid.UUID, filter PaymentFilter) (int64, error)

	// FindCompletedByParty finds completed payments for a party, most recent
	// first, capped at limit. Used as the reconciliation candidate pool.
	FindCompletedByParty(ctx context.Context, companyID, partyID uuid.UUID, limit int) ([]Payment, error)

	// Save creates or updates a payment together with its allocations
	Save(ctx context.Context, payment *Payment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, payment *Payment) error

	// SumUnallocatedByParty sums advance credit held for a party across
	// completed payments, signed by direction
	SumUnallocatedByParty(ctx context.Context, companyID, partyID uuid.UUID) (decimal.Decimal, error)

	// ExistsByPaymentNumber checks if a payment number is taken for a company
	ExistsByPaymentNumber(ctx context.Context, companyID uuid.UUID, paymentNumber string) (bool, error)
}

// BankAccountRepository defines the interface for bank account persistence
type BankAccountRepository interface {
	// FindByIDForCompany finds a bank account by ID within a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*BankAccount, error)

	// FindFirstActiveForParty finds the party's first active bank account
	FindFirstActiveForParty(ctx context.Context, companyID, partyID uuid.UUID) (*BankAccount, error)

	// FindFirstActiveForCompany finds the company's first active bank account
	FindFirstActiveForCompany(ctx context.Context, companyID uuid.UUID) (*BankAccount, error)

	// Save creates or updates a bank account
	Save(ctx context.Context, account *BankAccount) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, account *BankAccount) error
}

// BankTransactionRepository defines the interface for the append-only
// bank transaction log
type BankTransactionRepository interface {
	// Append inserts a new bank transaction; rows are never updated
	Append(ctx context.Context, tx *BankTransaction) error

	// FindByPayment finds the transactions recorded for a payment
	FindByPayment(ctx context.Context, companyID, paymentID uuid.UUID) ([]BankTransaction, error)
}

// Repositories bundles every ledger repository. The transaction manager
// hands a transaction-bound set to the ledger writer.
type Repositories struct {
	Parties          PartyRepository
	Invoices         InvoiceRepository
	Payments         PaymentRepository
	BankAccounts     BankAccountRepository
	BankTransactions BankTransactionRepository
}

// TransactionManager executes a function against transaction-bound
// repositories as one atomic unit. An error from fn rolls everything back.
type TransactionManager interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
