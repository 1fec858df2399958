package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerline/backend/internal/domain/ledger"
)

// GormPartyRepository implements ledger.PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByIDForCompany finds a party by ID within a company
func (r *GormPartyRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*ledger.Party, error) {
	var party ledger.Party
	if err := r.db.WithContext(ctx).
		First(&party, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &party, nil
}

// FindActiveForCompany finds active parties, optionally filtered by type
func (r *GormPartyRepository) FindActiveForCompany(ctx context.Context, companyID uuid.UUID, partyType *ledger.PartyType) ([]ledger.Party, error) {
	var parties []ledger.Party
	query := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", companyID, true)
	if partyType != nil {
		query = query.Where("type = ?", *partyType)
	}
	if err := query.Order("name ASC").Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}

// Save creates or updates a party
func (r *GormPartyRepository) Save(ctx context.Context, party *ledger.Party) error {
	return r.db.WithContext(ctx).Save(party).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPartyRepository) SaveWithLock(ctx context.Context, party *ledger.Party) error {
	result := r.db.WithContext(ctx).
		Model(party).
		Where("id = ? AND version = ?", party.ID, party.Version-1).
		Updates(party)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrLedgerWriteConflict("party was modified by another writer")
	}
	return nil
}
