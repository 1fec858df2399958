package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/ledgerline/backend/internal/domain/ledger"
)

// GormTransactionManager implements ledger.TransactionManager on top of
// gorm transactions. Every unit of work gets repositories bound to the
// transaction handle; an error from the function rolls everything back.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// NewLedgerRepositories builds the repository bundle bound to a DB handle
func NewLedgerRepositories(db *gorm.DB) ledger.Repositories {
	return ledger.Repositories{
		Parties:          NewGormPartyRepository(db),
		Invoices:         NewGormInvoiceRepository(db),
		Payments:         NewGormPaymentRepository(db),
		BankAccounts:     NewGormBankAccountRepository(db),
		BankTransactions: NewGormBankTransactionRepository(db),
	}
}

// InTransaction runs fn against transaction-bound repositories
func (m *GormTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, repos ledger.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewLedgerRepositories(tx))
	})
}
