package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerline/backend/internal/domain/ledger"
)

// GormBankAccountRepository implements ledger.BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByIDForCompany finds a bank account by ID within a company
func (r *GormBankAccountRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*ledger.BankAccount, error) {
	var account ledger.BankAccount
	if err := r.db.WithContext(ctx).
		First(&account, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// FindFirstActiveForParty finds the party's first active bank account
func (r *GormBankAccountRepository) FindFirstActiveForParty(ctx context.Context, companyID, partyID uuid.UUID) (*ledger.BankAccount, error) {
	var account ledger.BankAccount
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND party_id = ? AND is_active = ?", companyID, partyID, true).
		Order("created_at ASC").
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// FindFirstActiveForCompany finds the company's first active own account,
// one not assigned to any party
func (r *GormBankAccountRepository) FindFirstActiveForCompany(ctx context.Context, companyID uuid.UUID) (*ledger.BankAccount, error) {
	var account ledger.BankAccount
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND party_id IS NULL AND is_active = ?", companyID, true).
		Order("created_at ASC").
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Save creates or updates a bank account
func (r *GormBankAccountRepository) Save(ctx context.Context, account *ledger.BankAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormBankAccountRepository) SaveWithLock(ctx context.Context, account *ledger.BankAccount) error {
	result := r.db.WithContext(ctx).
		Model(account).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(account)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrLedgerWriteConflict("bank account was modified by another writer")
	}
	return nil
}
