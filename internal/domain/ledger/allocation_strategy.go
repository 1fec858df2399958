package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
)

// AllocationPolicy defines how a payment is assigned to invoices
type AllocationPolicy string

const (
	AllocationPolicyAgainstInvoice AllocationPolicy = "AGAINST_INVOICE" // Explicit invoice selection
	AllocationPolicyAdvance        AllocationPolicy = "ADVANCE"         // Balance credit, optionally auto-distributed
)

// IsValid checks if the allocation policy is valid
func (p AllocationPolicy) IsValid() bool {
	return p == AllocationPolicyAgainstInvoice || p == AllocationPolicyAdvance
}

// String returns the string representation
func (p AllocationPolicy) String() string {
	return string(p)
}

// OpenInvoice is the allocation engine's read view of an outstanding invoice
type OpenInvoice struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	PartyID        uuid.UUID
	DocumentNumber string
	PendingAmount  decimal.Decimal
	DueDate        *time.Time
	CreatedAt      time.Time
}

// PlannedAllocation is one entry of an allocation plan
type PlannedAllocation struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// AllocationPlan is the complete output of an allocation strategy.
// Remainder is the advance credit left after all planned allocations.
type AllocationPlan struct {
	Allocations    []PlannedAllocation `json:"allocations"`
	TotalAllocated decimal.Decimal     `json:"total_allocated"`
	Remainder      decimal.Decimal     `json:"remainder"`
	FullyAllocated bool                `json:"fully_allocated"`
}

// AllocationStrategy plans how a payment amount maps onto open invoices.
// Strategies are pure: they never touch persisted state.
type AllocationStrategy interface {
	// Policy returns the allocation policy this strategy implements
	Policy() AllocationPolicy
	// Plan computes the ordered allocation list and the unallocated remainder
	Plan(amount valueobject.Money, invoices []OpenInvoice) (*AllocationPlan, error)
}

// sortInvoicesOldestDueFirst orders invoices for greedy allocation:
// due date ascending with nil due dates last, creation date as tiebreak.
func sortInvoicesOldestDueFirst(invoices []OpenInvoice) []OpenInvoice {
	sorted := make([]OpenInvoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].DueDate, sorted[j].DueDate
		switch {
		case di != nil && dj != nil:
			if !di.Equal(*dj) {
				return di.Before(*dj)
			}
		case di != nil:
			return true
		case dj != nil:
			return false
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// AgainstInvoiceStrategy allocates to one explicitly selected invoice.
// Any surplus beyond the invoice's pending amount stays unallocated as an
// advance credit; it never spills to other invoices because the explicit
// selection is authoritative.
type AgainstInvoiceStrategy struct {
	TargetInvoiceID uuid.UUID
}

// NewAgainstInvoiceStrategy creates a strategy targeting one invoice
func NewAgainstInvoiceStrategy(targetInvoiceID uuid.UUID) *AgainstInvoiceStrategy {
	return &AgainstInvoiceStrategy{TargetInvoiceID: targetInvoiceID}
}

// Policy returns the allocation policy
func (s *AgainstInvoiceStrategy) Policy() AllocationPolicy {
	return AllocationPolicyAgainstInvoice
}

// Plan allocates min(amount, pending) to the target invoice
func (s *AgainstInvoiceStrategy) Plan(amount valueobject.Money, invoices []OpenInvoice) (*AllocationPlan, error) {
	amt := amount.RoundMinor().Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAllocation("Payment amount must be positive")
	}
	if s.TargetInvoiceID == uuid.Nil {
		return nil, ErrInvalidAllocation("Target invoice is required for against-invoice payments")
	}

	var target *OpenInvoice
	for i := range invoices {
		if invoices[i].ID == s.TargetInvoiceID {
			target = &invoices[i]
			break
		}
	}
	if target == nil {
		return nil, ErrInvalidAllocation("Target invoice does not belong to this party")
	}
	if target.PendingAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAllocation("Target invoice is already fully paid")
	}

	allocated := decimal.Min(amt, target.PendingAmount)
	remainder := amt.Sub(allocated)

	return &AllocationPlan{
		Allocations: []PlannedAllocation{{
			InvoiceID:     target.ID,
			InvoiceNumber: target.DocumentNumber,
			Amount:        allocated,
		}},
		TotalAllocated: allocated,
		Remainder:      remainder,
		FullyAllocated: remainder.IsZero(),
	}, nil
}

// AdvanceStrategy handles advance payments. When AutoDistribute is off the
// whole amount stays as a balance credit; when on, the amount is greedily
// distributed oldest-due-first and only the leftover becomes credit.
type AdvanceStrategy struct {
	AutoDistribute bool
}

// NewAdvanceStrategy creates an advance strategy.
// The default policy keeps advances as pure balance credits.
func NewAdvanceStrategy(autoDistribute bool) *AdvanceStrategy {
	return &AdvanceStrategy{AutoDistribute: autoDistribute}
}

// Policy returns the allocation policy
func (s *AdvanceStrategy) Policy() AllocationPolicy {
	return AllocationPolicyAdvance
}

// Plan computes the advance allocation plan
func (s *AdvanceStrategy) Plan(amount valueobject.Money, invoices []OpenInvoice) (*AllocationPlan, error) {
	amt := amount.RoundMinor().Amount()
	if amt.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAllocation("Payment amount must be positive")
	}

	if !s.AutoDistribute || len(invoices) == 0 {
		return &AllocationPlan{
			Allocations:    make([]PlannedAllocation, 0),
			TotalAllocated: decimal.Zero,
			Remainder:      amt,
			FullyAllocated: false,
		}, nil
	}

	allocations := make([]PlannedAllocation, 0)
	remaining := amt
	totalAllocated := decimal.Zero

	for _, inv := range sortInvoicesOldestDueFirst(invoices) {
		if remaining.IsZero() {
			break
		}
		if inv.PendingAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		allocated := decimal.Min(remaining, inv.PendingAmount)
		allocations = append(allocations, PlannedAllocation{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.DocumentNumber,
			Amount:        allocated,
		})
		totalAllocated = totalAllocated.Add(allocated)
		remaining = remaining.Sub(allocated)
	}

	return &AllocationPlan{
		Allocations:    allocations,
		TotalAllocated: totalAllocated,
		Remainder:      remaining,
		FullyAllocated: remaining.IsZero(),
	}, nil
}

// AllocationStrategyFactory creates allocation strategies
type AllocationStrategyFactory struct {
	autoDistributeAdvances bool
}

// NewAllocationStrategyFactory creates a factory. autoDistributeAdvances
// controls the advance policy flag for every strategy it hands out.
func NewAllocationStrategyFactory(autoDistributeAdvances bool) *AllocationStrategyFactory {
	return &AllocationStrategyFactory{autoDistributeAdvances: autoDistributeAdvances}
}

// ForRequest returns the strategy matching an allocation policy.
// targetInvoiceID is only consulted for against-invoice payments.
func (f *AllocationStrategyFactory) ForRequest(policy AllocationPolicy, targetInvoiceID uuid.UUID) (AllocationStrategy, error) {
	switch policy {
	case AllocationPolicyAgainstInvoice:
		if targetInvoiceID == uuid.Nil {
			return nil, ErrInvalidAllocation("Target invoice is required for against-invoice payments")
		}
		return NewAgainstInvoiceStrategy(targetInvoiceID), nil
	case AllocationPolicyAdvance:
		return NewAdvanceStrategy(f.autoDistributeAdvances), nil
	default:
		return nil, ErrInvalidAllocation("Unknown allocation policy")
	}
}
