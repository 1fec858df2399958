package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/backend/internal/domain/ledger"
	"github.com/ledgerline/backend/internal/domain/shared"
)

// BalanceService answers "who owes whom" questions. The stored rollup on
// the party is the fast path; the recomputed figure from open invoices and
// advance credits is the audit path. The two must agree.
type BalanceService struct {
	repos  ledger.Repositories
	logger *zap.Logger
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(repos ledger.Repositories, logger *zap.Logger) *BalanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceService{repos: repos, logger: logger}
}

// PartyBalance is the balance view of one party. Positive balance means
// the party owes the company; negative means the company owes the party.
type PartyBalance struct {
	PartyID    uuid.UUID       `json:"party_id"`
	PartyName  string          `json:"party_name"`
	PartyType  string          `json:"party_type"`
	Balance    decimal.Decimal `json:"balance"`
	Receivable decimal.Decimal `json:"receivable"`
	Payable    decimal.Decimal `json:"payable"`
}

// CustomerRollup groups parties whose type counts towards receivables
type CustomerRollup struct {
	Count      int             `json:"count"`
	Receivable decimal.Decimal `json:"receivable"`
}

// VendorRollup groups parties whose type counts towards payables
type VendorRollup struct {
	Count   int             `json:"count"`
	Payable decimal.Decimal `json:"payable"`
}

// BalanceSummary is the company-wide rollup. Parties typed BOTH count
// into the customer and the vendor groups at once.
type BalanceSummary struct {
	TotalParties    int             `json:"total_parties"`
	Customers       CustomerRollup  `json:"customers"`
	Vendors         VendorRollup    `json:"vendors"`
	Parties         []PartyBalance  `json:"parties"`
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	NetPosition     decimal.Decimal `json:"net_position"`
}

// Summarize rolls up stored balances across all active parties,
// optionally filtered by party type.
func (s *BalanceService) Summarize(ctx context.Context, companyID uuid.UUID, partyType *ledger.PartyType) (*BalanceSummary, error) {
	parties, err := s.repos.Parties.FindActiveForCompany(ctx, companyID, partyType)
	if err != nil {
		return nil, fmt.Errorf("failed to load parties: %w", err)
	}

	summary := &BalanceSummary{
		TotalParties:    len(parties),
		Customers:       CustomerRollup{Receivable: decimal.Zero},
		Vendors:         VendorRollup{Payable: decimal.Zero},
		Parties:         make([]PartyBalance, 0, len(parties)),
		TotalReceivable: decimal.Zero,
		TotalPayable:    decimal.Zero,
	}
	for i := range parties {
		p := &parties[i]
		pb := PartyBalance{
			PartyID:    p.ID,
			PartyName:  p.Name,
			PartyType:  p.Type.String(),
			Balance:    p.CurrentBalance,
			Receivable: decimal.Zero,
			Payable:    decimal.Zero,
		}
		if p.CurrentBalance.GreaterThan(decimal.Zero) {
			pb.Receivable = p.CurrentBalance
			summary.TotalReceivable = summary.TotalReceivable.Add(p.CurrentBalance)
		} else if p.CurrentBalance.LessThan(decimal.Zero) {
			pb.Payable = p.CurrentBalance.Neg()
			summary.TotalPayable = summary.TotalPayable.Add(p.CurrentBalance.Neg())
		}
		if p.Type.Receivable() {
			summary.Customers.Count++
			summary.Customers.Receivable = summary.Customers.Receivable.Add(pb.Receivable)
		}
		if p.Type.Payable() {
			summary.Vendors.Count++
			summary.Vendors.Payable = summary.Vendors.Payable.Add(pb.Payable)
		}
		summary.Parties = append(summary.Parties, pb)
	}
	summary.NetPosition = summary.TotalReceivable.Sub(summary.TotalPayable)

	return summary, nil
}

// BalanceAudit compares the stored rollup against a recomputation from
// open invoice pending amounts and unallocated advance credits
type BalanceAudit struct {
	PartyID       uuid.UUID       `json:"party_id"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	Recomputed    decimal.Decimal `json:"recomputed_balance"`
	Drift         decimal.Decimal `json:"drift"`
	Consistent    bool            `json:"consistent"`
}

// AuditParty recomputes one party's balance from first principles:
// signed open invoice pending amounts plus signed advance credits.
// Drift indicates a write that escaped the ledger writer.
func (s *BalanceService) AuditParty(ctx context.Context, companyID, partyID uuid.UUID) (*BalanceAudit, error) {
	party, err := s.repos.Parties.FindByIDForCompany(ctx, companyID, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load party: %w", err)
	}
	if party == nil {
		return nil, shared.NewDomainError("PARTY_NOT_FOUND", "Party not found")
	}

	pending, err := s.repos.Invoices.SumPendingByParty(ctx, companyID, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum pending invoices: %w", err)
	}
	advances, err := s.repos.Payments.SumUnallocatedByParty(ctx, companyID, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum advance credits: %w", err)
	}

	recomputed := pending.Add(advances)
	drift := party.CurrentBalance.Sub(recomputed)

	audit := &BalanceAudit{
		PartyID:       partyID,
		StoredBalance: party.CurrentBalance,
		Recomputed:    recomputed,
		Drift:         drift,
		Consistent:    drift.IsZero(),
	}

	if !audit.Consistent {
		s.logger.Warn("party balance drift detected",
			zap.String("party_id", partyID.String()),
			zap.String("stored", audit.StoredBalance.String()),
			zap.String("recomputed", audit.Recomputed.String()),
			zap.String("drift", audit.Drift.String()),
		)
	}

	return audit, nil
}
