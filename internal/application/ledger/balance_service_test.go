package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/backend/internal/domain/ledger"
)

func partyWithBalance(t *testing.T, companyID uuid.UUID, name string, balance int64) ledger.Party {
	t.Helper()
	return typedPartyWithBalance(t, companyID, name, ledger.PartyTypeBoth, balance)
}

func typedPartyWithBalance(t *testing.T, companyID uuid.UUID, name string, partyType ledger.PartyType, balance int64) ledger.Party {
	t.Helper()
	party, err := ledger.NewParty(companyID, name, partyType)
	require.NoError(t, err)
	if balance != 0 {
		require.NoError(t, party.ApplyBalanceDelta(decimal.NewFromInt(balance)))
	}
	return *party
}

func TestBalanceSummarize(t *testing.T) {
	companyID := uuid.New()

	t.Run("splits balances into receivable and payable", func(t *testing.T) {
		repos := newTestRepos()
		parties := []ledger.Party{
			partyWithBalance(t, companyID, "Owes Us", 800),
			partyWithBalance(t, companyID, "We Owe", -300),
			partyWithBalance(t, companyID, "Settled", 0),
		}
		repos.parties.On("FindActiveForCompany", mock.Anything, companyID, (*ledger.PartyType)(nil)).
			Return(parties, nil)

		svc := NewBalanceService(repos.bundle(), nil)
		summary, err := svc.Summarize(context.Background(), companyID, nil)
		require.NoError(t, err)

		assert.Len(t, summary.Parties, 3)
		assert.True(t, summary.TotalReceivable.Equal(decimal.NewFromInt(800)))
		assert.True(t, summary.TotalPayable.Equal(decimal.NewFromInt(300)))
		assert.True(t, summary.NetPosition.Equal(decimal.NewFromInt(500)))

		assert.True(t, summary.Parties[0].Receivable.Equal(decimal.NewFromInt(800)))
		assert.True(t, summary.Parties[0].Payable.IsZero())
		assert.True(t, summary.Parties[1].Payable.Equal(decimal.NewFromInt(300)))
	})

	t.Run("groups counts and totals by party type", func(t *testing.T) {
		repos := newTestRepos()
		parties := []ledger.Party{
			typedPartyWithBalance(t, companyID, "Retail Buyer", ledger.PartyTypeCustomer, 800),
			typedPartyWithBalance(t, companyID, "Raw Materials", ledger.PartyTypeVendor, -300),
			typedPartyWithBalance(t, companyID, "Trades Both Ways", ledger.PartyTypeBoth, 200),
		}
		repos.parties.On("FindActiveForCompany", mock.Anything, companyID, (*ledger.PartyType)(nil)).
			Return(parties, nil)

		svc := NewBalanceService(repos.bundle(), nil)
		summary, err := svc.Summarize(context.Background(), companyID, nil)
		require.NoError(t, err)

		assert.Equal(t, 3, summary.TotalParties)
		// BOTH counts into customers and vendors at once
		assert.Equal(t, 2, summary.Customers.Count)
		assert.Equal(t, 2, summary.Vendors.Count)
		assert.True(t, summary.Customers.Receivable.Equal(decimal.NewFromInt(1000)))
		assert.True(t, summary.Vendors.Payable.Equal(decimal.NewFromInt(300)))
	})

	t.Run("empty company yields a zero summary", func(t *testing.T) {
		repos := newTestRepos()
		repos.parties.On("FindActiveForCompany", mock.Anything, companyID, (*ledger.PartyType)(nil)).
			Return([]ledger.Party{}, nil)

		svc := NewBalanceService(repos.bundle(), nil)
		summary, err := svc.Summarize(context.Background(), companyID, nil)
		require.NoError(t, err)

		assert.Empty(t, summary.Parties)
		assert.True(t, summary.NetPosition.IsZero())
	})
}

func TestBalanceAuditParty(t *testing.T) {
	companyID := uuid.New()

	t.Run("consistent balance reports no drift", func(t *testing.T) {
		repos := newTestRepos()
		party := partyWithBalance(t, companyID, "Acme", 600)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(&party, nil)
		// 1000 pending sales minus 400 of advance credit
		repos.invoices.On("SumPendingByParty", mock.Anything, companyID, party.ID).
			Return(decimal.NewFromInt(1000), nil)
		repos.payments.On("SumUnallocatedByParty", mock.Anything, companyID, party.ID).
			Return(decimal.NewFromInt(-400), nil)

		svc := NewBalanceService(repos.bundle(), nil)
		audit, err := svc.AuditParty(context.Background(), companyID, party.ID)
		require.NoError(t, err)

		assert.True(t, audit.Consistent)
		assert.True(t, audit.Drift.IsZero())
		assert.True(t, audit.Recomputed.Equal(decimal.NewFromInt(600)))
	})

	t.Run("drift is surfaced", func(t *testing.T) {
		repos := newTestRepos()
		party := partyWithBalance(t, companyID, "Acme", 600)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(&party, nil)
		repos.invoices.On("SumPendingByParty", mock.Anything, companyID, party.ID).
			Return(decimal.NewFromInt(1000), nil)
		repos.payments.On("SumUnallocatedByParty", mock.Anything, companyID, party.ID).
			Return(decimal.NewFromInt(-500), nil)

		svc := NewBalanceService(repos.bundle(), nil)
		audit, err := svc.AuditParty(context.Background(), companyID, party.ID)
		require.NoError(t, err)

		assert.False(t, audit.Consistent)
		assert.True(t, audit.Drift.Equal(decimal.NewFromInt(100)))
	})

	t.Run("unknown party fails", func(t *testing.T) {
		repos := newTestRepos()
		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, mock.Anything).Return(nil, nil)

		svc := NewBalanceService(repos.bundle(), nil)
		_, err := svc.AuditParty(context.Background(), companyID, uuid.New())
		assert.Error(t, err)
	})
}
