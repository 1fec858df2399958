package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/backend/internal/domain/ledger"
	"github.com/ledgerline/backend/internal/domain/shared"
)

// candidatePoolLimit caps how many historical payments are pulled as the
// matching candidate pool for one document.
const candidatePoolLimit = 500

// ReconciliationService suggests payment matches for documents whose
// payment link went missing, typically after partial imports. Matches are
// read-side suggestions and are never persisted automatically.
type ReconciliationService struct {
	repos   ledger.Repositories
	matcher *ledger.Matcher
	logger  *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(repos ledger.Repositories, matcher *ledger.Matcher, logger *zap.Logger) *ReconciliationService {
	if matcher == nil {
		matcher = ledger.NewMatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{repos: repos, matcher: matcher, logger: logger}
}

// MatchRequest describes one unlinked document to reconcile
type MatchRequest struct {
	CompanyID      uuid.UUID
	PartyID        uuid.UUID
	DocumentNumber string
	TotalAmount    decimal.Decimal
	DocumentDate   time.Time
	Method         ledger.PaymentMethod
	BankAccountID  *uuid.UUID
}

// MatchedTransaction is the display view of a matched payment
type MatchedTransaction struct {
	PaymentID       uuid.UUID       `json:"payment_id"`
	PaymentNumber   string          `json:"payment_number"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	BankAccountName string          `json:"bank_account_name,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// SuggestedBankAccount is the display hint returned when a document with
// a bank-leg method stays unmatched and carries no bank account
type SuggestedBankAccount struct {
	BankAccountID uuid.UUID `json:"bank_account_id"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name"`
}

// MatchResult is the outcome of one reconciliation attempt
type MatchResult struct {
	Matched              bool                  `json:"matched"`
	Confidence           float64               `json:"confidence,omitempty"`
	Strategy             string                `json:"strategy,omitempty"`
	Transaction          *MatchedTransaction   `json:"transaction,omitempty"`
	SuggestedBankAccount *SuggestedBankAccount `json:"suggested_bank_account,omitempty"`
}

// FindMatch pulls the party's recent completed payments, normalizes them
// and runs the matching heuristics. An unmatched document is a valid
// outcome, not an error.
func (s *ReconciliationService) FindMatch(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	if req.PartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if req.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Document amount must be positive")
	}
	if req.DocumentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Document date is required")
	}

	payments, err := s.repos.Payments.FindCompletedByParty(ctx, req.CompanyID, req.PartyID, candidatePoolLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate payments: %w", err)
	}

	byID := make(map[uuid.UUID]*ledger.Payment, len(payments))
	candidates := make([]ledger.CandidateTransaction, 0, len(payments))
	for i := range payments {
		p := &payments[i]
		byID[p.ID] = p
		candidates = append(candidates, ledger.CandidateTransaction{
			PaymentID:         p.ID,
			PartyID:           p.PartyID,
			Amount:            p.Amount,
			Method:            p.Method,
			BankTransactionID: p.BankTransactionID,
			Description:       p.Remark,
			Reference:         p.Reference,
			TransactionDate:   p.PaidAt,
		})
	}

	doc := ledger.ReconciliationDocument{
		CompanyID:      req.CompanyID,
		PartyID:        req.PartyID,
		DocumentNumber: req.DocumentNumber,
		TotalAmount:    req.TotalAmount,
		DocumentDate:   req.DocumentDate,
		Method:         req.Method,
		BankAccountID:  req.BankAccountID,
	}

	match := s.matcher.FindMatch(doc, candidates)
	if match == nil {
		s.logger.Debug("no reconciliation match",
			zap.String("party_id", req.PartyID.String()),
			zap.String("document_number", req.DocumentNumber),
			zap.Int("candidates", len(candidates)),
		)
		result := &MatchResult{Matched: false}
		if req.Method.RequiresBankLeg() && req.BankAccountID == nil {
			result.SuggestedBankAccount = s.suggestBankAccount(ctx, req.CompanyID, req.PartyID)
		}
		return result, nil
	}

	payment := byID[match.Transaction.PaymentID]
	matched := &MatchedTransaction{
		PaymentID:       payment.ID,
		PaymentNumber:   payment.PaymentNumber,
		Amount:          payment.Amount,
		Method:          payment.Method.String(),
		Reference:       payment.Reference,
		TransactionDate: payment.PaidAt,
	}
	matched.BankAccountName = s.bankAccountName(ctx, req.CompanyID, payment)

	s.logger.Info("reconciliation match found",
		zap.String("party_id", req.PartyID.String()),
		zap.String("document_number", req.DocumentNumber),
		zap.String("payment_id", payment.ID.String()),
		zap.String("strategy", match.Strategy.String()),
		zap.Float64("confidence", match.Confidence),
	)

	return &MatchResult{
		Matched:     true,
		Confidence:  match.Confidence,
		Strategy:    match.Strategy.String(),
		Transaction: matched,
	}, nil
}

// suggestBankAccount picks the party's first active bank account, falling
// back to the company's own. Lookup failures degrade to no suggestion.
func (s *ReconciliationService) suggestBankAccount(ctx context.Context, companyID, partyID uuid.UUID) *SuggestedBankAccount {
	account, err := s.repos.BankAccounts.FindFirstActiveForParty(ctx, companyID, partyID)
	if err != nil || account == nil {
		account, err = s.repos.BankAccounts.FindFirstActiveForCompany(ctx, companyID)
		if err != nil || account == nil {
			return nil
		}
	}
	return &SuggestedBankAccount{
		BankAccountID: account.ID,
		AccountName:   account.AccountName,
		AccountNumber: account.AccountNumber,
		BankName:      account.BankName,
	}
}

// bankAccountName resolves a display name for the payment's bank leg.
// Resolution failures degrade to an empty name rather than failing
// the reconciliation response.
func (s *ReconciliationService) bankAccountName(ctx context.Context, companyID uuid.UUID, payment *ledger.Payment) string {
	if payment.BankAccountID == nil {
		return ""
	}
	account, err := s.repos.BankAccounts.FindByIDForCompany(ctx, companyID, *payment.BankAccountID)
	if err != nil || account == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", account.AccountName, account.BankName)
}
