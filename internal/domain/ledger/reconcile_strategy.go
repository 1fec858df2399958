package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// matchEpsilon is the amount tolerance for "same amount" heuristics,
// one minor unit of the default currency.
var matchEpsilon = decimal.RequireFromString("0.01")

// Date window for the party+amount heuristic: a payment may be recorded
// slightly before the document date and up to a week after.
const (
	matchWindowBefore = 24 * time.Hour
	matchWindowAfter  = 7 * 24 * time.Hour
)

// ReconciliationDocument is the normalized view of a document whose payment
// link went missing. Callers normalize their sale/purchase shapes into this
// before any matching runs.
type ReconciliationDocument struct {
	CompanyID      uuid.UUID
	PartyID        uuid.UUID
	DocumentNumber string
	TotalAmount    decimal.Decimal
	DocumentDate   time.Time
	Method         PaymentMethod
	BankAccountID  *uuid.UUID
}

// CandidateTransaction is the normalized view of a historical payment
// considered as a possible match
type CandidateTransaction struct {
	PaymentID         uuid.UUID
	PartyID           uuid.UUID
	Amount            decimal.Decimal
	Method            PaymentMethod
	BankTransactionID *uuid.UUID
	Description       string
	Reference         string
	TransactionDate   time.Time
}

// HasBankReference returns true if the candidate carries a bank leg
func (c CandidateTransaction) HasBankReference() bool {
	return c.BankTransactionID != nil && *c.BankTransactionID != uuid.Nil
}

// MatchStrategyName identifies which heuristic produced a match
type MatchStrategyName string

const (
	MatchStrategyExactAmountBank   MatchStrategyName = "exact_amount_bank"
	MatchStrategyDocumentNumber    MatchStrategyName = "document_number"
	MatchStrategyPartyAmountWindow MatchStrategyName = "party_amount_window"
	MatchStrategyPartyBankRecent   MatchStrategyName = "party_bank_recent"
)

// String returns the string representation
func (n MatchStrategyName) String() string {
	return string(n)
}

// ReconciliationMatch is the transient result of a successful match.
// It is merged into the read-side document view and never persisted.
type ReconciliationMatch struct {
	Transaction CandidateTransaction `json:"transaction"`
	Confidence  float64              `json:"confidence"`
	Strategy    MatchStrategyName    `json:"strategy"`
}

// MatchStrategy is one pure matching heuristic. Strategies never mutate
// anything; they pick the best candidate or report none.
type MatchStrategy interface {
	// Name identifies the heuristic for observability
	Name() MatchStrategyName
	// Confidence is the fixed confidence score of matches from this heuristic
	Confidence() float64
	// Match returns the best candidate under this heuristic, or nil
	Match(doc ReconciliationDocument, candidates []CandidateTransaction) *CandidateTransaction
}

// pickBest orders candidates most-recent-first, breaking ties by amount
// closeness to the document total, and returns the winner.
func pickBest(doc ReconciliationDocument, candidates []CandidateTransaction) *CandidateTransaction {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]CandidateTransaction, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].TransactionDate.Equal(sorted[j].TransactionDate) {
			return sorted[i].TransactionDate.After(sorted[j].TransactionDate)
		}
		di := sorted[i].Amount.Sub(doc.TotalAmount).Abs()
		dj := sorted[j].Amount.Sub(doc.TotalAmount).Abs()
		return di.LessThan(dj)
	})
	return &sorted[0]
}

func amountsClose(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(matchEpsilon)
}

// exactAmountBankStrategy: amount matches within epsilon and the candidate
// carries a bank leg. Most specific, highest confidence.
type exactAmountBankStrategy struct{}

func (exactAmountBankStrategy) Name() MatchStrategyName { return MatchStrategyExactAmountBank }
func (exactAmountBankStrategy) Confidence() float64     { return 0.95 }

func (exactAmountBankStrategy) Match(doc ReconciliationDocument, candidates []CandidateTransaction) *CandidateTransaction {
	hits := make([]CandidateTransaction, 0)
	for _, c := range candidates {
		if c.HasBankReference() && c.Method.RequiresBankLeg() && amountsClose(c.Amount, doc.TotalAmount) {
			hits = append(hits, c)
		}
	}
	return pickBest(doc, hits)
}

// documentNumberStrategy: the document number appears in the candidate's
// description or reference and the candidate carries a bank leg.
type documentNumberStrategy struct{}

func (documentNumberStrategy) Name() MatchStrategyName { return MatchStrategyDocumentNumber }
func (documentNumberStrategy) Confidence() float64     { return 0.85 }

func (documentNumberStrategy) Match(doc ReconciliationDocument, candidates []CandidateTransaction) *CandidateTransaction {
	number := strings.TrimSpace(doc.DocumentNumber)
	if number == "" {
		return nil
	}
	needle := strings.ToLower(number)
	hits := make([]CandidateTransaction, 0)
	for _, c := range candidates {
		if !c.HasBankReference() {
			continue
		}
		if strings.Contains(strings.ToLower(c.Description), needle) ||
			strings.Contains(strings.ToLower(c.Reference), needle) {
			hits = append(hits, c)
		}
	}
	return pickBest(doc, hits)
}

// partyAmountWindowStrategy: same party, amount within epsilon, transaction
// dated within [documentDate - 1 day, documentDate + 7 days].
type partyAmountWindowStrategy struct{}

func (partyAmountWindowStrategy) Name() MatchStrategyName { return MatchStrategyPartyAmountWindow }
func (partyAmountWindowStrategy) Confidence() float64     { return 0.70 }

func (partyAmountWindowStrategy) Match(doc ReconciliationDocument, candidates []CandidateTransaction) *CandidateTransaction {
	from := doc.DocumentDate.Add(-matchWindowBefore)
	to := doc.DocumentDate.Add(matchWindowAfter)
	hits := make([]CandidateTransaction, 0)
	for _, c := range candidates {
		if c.PartyID != doc.PartyID {
			continue
		}
		if !amountsClose(c.Amount, doc.TotalAmount) {
			continue
		}
		if c.TransactionDate.Before(from) || c.TransactionDate.After(to) {
			continue
		}
		hits = append(hits, c)
	}
	return pickBest(doc, hits)
}

// partyBankRecentStrategy: any bank-referenced transaction for the same
// party, most recent first. Broadest net, lowest confidence.
type partyBankRecentStrategy struct{}

func (partyBankRecentStrategy) Name() MatchStrategyName { return MatchStrategyPartyBankRecent }
func (partyBankRecentStrategy) Confidence() float64     { return 0.40 }

func (partyBankRecentStrategy) Match(doc ReconciliationDocument, candidates []CandidateTransaction) *CandidateTransaction {
	hits := make([]CandidateTransaction, 0)
	for _, c := range candidates {
		if c.PartyID == doc.PartyID && c.HasBankReference() && c.Method.RequiresBankLeg() {
			hits = append(hits, c)
		}
	}
	return pickBest(doc, hits)
}

// DefaultMatchStrategies returns the heuristics in priority order,
// most specific first
func DefaultMatchStrategies() []MatchStrategy {
	return []MatchStrategy{
		exactAmountBankStrategy{},
		documentNumberStrategy{},
		partyAmountWindowStrategy{},
		partyBankRecentStrategy{},
	}
}

// Matcher folds a document over the ordered strategy list; the first
// strategy producing a candidate wins. A scan budget bounds the work per
// traversal: exceeding it yields no match rather than blocking.
type Matcher struct {
	strategies    []MatchStrategy
	maxCandidates int
	timeBudget    time.Duration
	now           func() time.Time
}

// MatcherOption is a functional option for configuring a Matcher
type MatcherOption func(*Matcher)

// WithStrategies overrides the strategy list
func WithStrategies(strategies []MatchStrategy) MatcherOption {
	return func(m *Matcher) {
		if len(strategies) > 0 {
			m.strategies = strategies
		}
	}
}

// WithMaxCandidates bounds how many candidates each strategy scans
func WithMaxCandidates(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.maxCandidates = n
		}
	}
}

// WithTimeBudget bounds the wall time of one full strategy traversal
func WithTimeBudget(d time.Duration) MatcherOption {
	return func(m *Matcher) {
		if d > 0 {
			m.timeBudget = d
		}
	}
}

// withClock injects a clock for tests
func withClock(now func() time.Time) MatcherOption {
	return func(m *Matcher) {
		m.now = now
	}
}

// NewMatcher creates a matcher with the default strategy order and budget
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		strategies:    DefaultMatchStrategies(),
		maxCandidates: 500,
		timeBudget:    200 * time.Millisecond,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FindMatch runs the strategies in order and returns the first match.
// Returns nil when nothing matches or the budget is exhausted; it never
// returns an error because reconciliation always degrades gracefully.
func (m *Matcher) FindMatch(doc ReconciliationDocument, candidates []CandidateTransaction) *ReconciliationMatch {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > m.maxCandidates {
		candidates = candidates[:m.maxCandidates]
	}

	deadline := m.now().Add(m.timeBudget)
	for _, strategy := range m.strategies {
		if m.now().After(deadline) {
			return nil
		}
		if hit := strategy.Match(doc, candidates); hit != nil {
			return &ReconciliationMatch{
				Transaction: *hit,
				Confidence:  strategy.Confidence(),
				Strategy:    strategy.Name(),
			}
		}
	}
	return nil
}
