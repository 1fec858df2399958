package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ledgerline/backend/internal/domain/ledger"
)

// GormInvoiceRepository implements ledger.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForCompany finds an invoice by ID within a company
func (r *GormInvoiceRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*ledger.Invoice, error) {
	var invoice ledger.Invoice
	if err := r.db.WithContext(ctx).
		First(&invoice, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindOpenByParty finds open invoices for a party ordered oldest-due-first.
// Invoices without a due date sort last.
func (r *GormInvoiceRepository) FindOpenByParty(ctx context.Context, companyID, partyID uuid.UUID) ([]ledger.Invoice, error) {
	var invoices []ledger.Invoice
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND party_id = ?", companyID, partyID).
		Where("payment_status IN ?", []ledger.PaymentStatus{ledger.PaymentStatusPending, ledger.PaymentStatusPartial}).
		Where("cancelled_at IS NULL").
		Order("due_date ASC NULLS LAST, created_at ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *ledger.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *ledger.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(invoice).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Updates(invoice)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrLedgerWriteConflict("invoice was modified by another writer")
	}
	return nil
}

// SumPendingByParty sums pending amounts of open invoices for a party,
// signed per document type: sales add, purchases subtract.
func (r *GormInvoiceRepository) SumPendingByParty(ctx context.Context, companyID, partyID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).
		Model(&ledger.Invoice{}).
		Select("SUM(CASE WHEN document_type = ? THEN pending_amount ELSE -pending_amount END)", ledger.DocumentTypeSale).
		Where("company_id = ? AND party_id = ?", companyID, partyID).
		Where("payment_status IN ?", []ledger.PaymentStatus{ledger.PaymentStatusPending, ledger.PaymentStatusPartial}).
		Where("cancelled_at IS NULL").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
