package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ledgerline/backend/internal/domain/ledger"
)

// GormPaymentRepository implements ledger.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForCompany finds a payment with its allocations
func (r *GormPaymentRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*ledger.Payment, error) {
	var payment ledger.Payment
	if err := r.db.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&payment, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// applyFilter translates a PaymentFilter into query conditions
func applyPaymentFilter(query *gorm.DB, filter ledger.PaymentFilter) *gorm.DB {
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.Direction != nil {
		query = query.Where("direction = ?", *filter.Direction)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.FromDate != nil {
		query = query.Where("paid_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("paid_at <= ?", *filter.ToDate)
	}
	return query
}

// FindAllForCompany lists payments with filtering and pagination
func (r *GormPaymentRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter ledger.PaymentFilter) ([]ledger.Payment, error) {
	var payments []ledger.Payment
	query := applyPaymentFilter(
		r.db.WithContext(ctx).Where("company_id = ?", companyID), filter)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("paid_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// CountForCompany counts payments matching the filter
func (r *GormPaymentRepository) CountForCompany(ctx context.Context, companyID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	var count int64
	query := applyPaymentFilter(
		r.db.WithContext(ctx).Model(&ledger.Payment{}).Where("company_id = ?", companyID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindCompletedByParty finds completed payments for a party, most recent
// first, capped at limit
func (r *GormPaymentRepository) FindCompletedByParty(ctx context.Context, companyID, partyID uuid.UUID, limit int) ([]ledger.Payment, error) {
	var payments []ledger.Payment
	query := r.db.WithContext(ctx).
		Where("company_id = ? AND party_id = ? AND state = ?", companyID, partyID, ledger.PaymentStateCompleted).
		Order("paid_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Save creates or updates a payment together with its allocations
func (r *GormPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(payment).Error
}

// SaveWithLock saves with optimistic locking (version check).
// Allocations are immutable after creation so only the payment row is
// version checked.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *ledger.Payment) error {
	result := r.db.WithContext(ctx).
		Model(payment).
		Omit("Allocations").
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
		Updates(payment)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrLedgerWriteConflict("payment was modified by another writer")
	}
	return nil
}

// SumUnallocatedByParty sums the advance credit held for a party across
// completed payments, signed by direction: incoming credit reduces what
// the party owes, outgoing credit increases it.
func (r *GormPaymentRepository) SumUnallocatedByParty(ctx context.Context, companyID, partyID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).
		Model(&ledger.Payment{}).
		Select("SUM(CASE WHEN direction = ? THEN -unallocated_amount ELSE unallocated_amount END)", ledger.PaymentDirectionIn).
		Where("company_id = ? AND party_id = ? AND state = ?", companyID, partyID, ledger.PaymentStateCompleted).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

// ExistsByPaymentNumber checks if a payment number is taken for a company
func (r *GormPaymentRepository) ExistsByPaymentNumber(ctx context.Context, companyID uuid.UUID, paymentNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ledger.Payment{}).
		Where("company_id = ? AND payment_number = ?", companyID, paymentNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
