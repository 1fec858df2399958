package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared"
)

// PartyCreatedEvent is raised when a new party is created
type PartyCreatedEvent struct {
	shared.BaseDomainEvent
	PartyID   uuid.UUID `json:"party_id"`
	PartyName string    `json:"party_name"`
	PartyType PartyType `json:"party_type"`
}

// EventType returns the event type name
func (e *PartyCreatedEvent) EventType() string {
	return "PartyCreated"
}

// NewPartyCreatedEvent creates a new PartyCreatedEvent
func NewPartyCreatedEvent(p *Party) *PartyCreatedEvent {
	return &PartyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PartyCreated", "Party", p.ID, p.CompanyID),
		PartyID:         p.ID,
		PartyName:       p.Name,
		PartyType:       p.Type,
	}
}

// PartyBalanceChangedEvent is raised whenever the ledger writer moves a party balance
type PartyBalanceChangedEvent struct {
	shared.BaseDomainEvent
	PartyID       uuid.UUID       `json:"party_id"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Delta         decimal.Decimal `json:"delta"`
}

// EventType returns the event type name
func (e *PartyBalanceChangedEvent) EventType() string {
	return "PartyBalanceChanged"
}

// NewPartyBalanceChangedEvent creates a new PartyBalanceChangedEvent
func NewPartyBalanceChangedEvent(p *Party, before, delta decimal.Decimal) *PartyBalanceChangedEvent {
	return &PartyBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PartyBalanceChanged", "Party", p.ID, p.CompanyID),
		PartyID:         p.ID,
		BalanceBefore:   before,
		BalanceAfter:    p.CurrentBalance,
		Delta:           delta,
	}
}
