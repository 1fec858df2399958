package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerline/backend/internal/domain/ledger"
)

// GormBankTransactionRepository implements the append-only bank
// transaction log using GORM. Rows are only ever inserted.
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// Append inserts a new bank transaction
func (r *GormBankTransactionRepository) Append(ctx context.Context, tx *ledger.BankTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// FindByPayment finds the transactions recorded for a payment, oldest first
func (r *GormBankTransactionRepository) FindByPayment(ctx context.Context, companyID, paymentID uuid.UUID) ([]ledger.BankTransaction, error) {
	var txs []ledger.BankTransaction
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND payment_id = ?", companyID, paymentID).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
