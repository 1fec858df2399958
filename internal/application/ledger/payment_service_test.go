package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/backend/internal/domain/ledger"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
)

func newPaymentService(repos *testRepos, notifier Notifier) *PaymentService {
	bundle := repos.bundle()
	return NewPaymentService(
		&fakeTxManager{repos: bundle},
		bundle,
		ledger.NewAllocationStrategyFactory(false),
		notifier,
		nil,
	)
}

func fixtureParty(companyID uuid.UUID) *ledger.Party {
	party, _ := ledger.NewParty(companyID, "Acme Traders", ledger.PartyTypeCustomer)
	return party
}

func fixtureInvoice(companyID, partyID uuid.UUID, number string, total int64) *ledger.Invoice {
	due := time.Now().Add(15 * 24 * time.Hour)
	inv, _ := ledger.NewInvoice(companyID, number, ledger.DocumentTypeSale, partyID, "Acme Traders",
		valueobject.NewMoneyINR(decimal.NewFromInt(total)), time.Now(), &due)
	return inv
}

func fixtureBankAccount(companyID uuid.UUID) *ledger.BankAccount {
	account, _ := ledger.NewBankAccount(companyID, "Operating Account", "1234567890", "State Bank")
	return account
}

func TestRecordPayment(t *testing.T) {
	companyID := uuid.New()

	t.Run("cash payment against one invoice updates every aggregate", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		invoice := fixtureInvoice(companyID, party.ID, "INV-100", 1000)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{*invoice}, nil)
		repos.invoices.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*ledger.Invoice")).Return(nil)
		repos.parties.On("SaveWithLock", mock.Anything, party).Return(nil)
		repos.payments.On("Save", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)

		svc := newPaymentService(repos, nil)
		result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodCash,
			Amount:          decimal.NewFromInt(1000),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: invoice.ID,
		})
		require.NoError(t, err)

		assert.True(t, result.AllocatedAmount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, result.UnallocatedAmount.IsZero())
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, "PAID", result.Allocations[0].InvoiceStatus)
		// Incoming money reduces what the party owes
		assert.True(t, result.PartyBalance.Equal(decimal.NewFromInt(-1000)))
		assert.Nil(t, result.BankTransactionID)

		repos.invoices.AssertNumberOfCalls(t, "SaveWithLock", 1)
		repos.accounts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("surplus over the target invoice becomes advance credit", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		invoice := fixtureInvoice(companyID, party.ID, "INV-101", 300)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{*invoice}, nil)
		repos.invoices.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*ledger.Invoice")).Return(nil)
		repos.parties.On("SaveWithLock", mock.Anything, party).Return(nil)
		repos.payments.On("Save", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)

		svc := newPaymentService(repos, nil)
		result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodCash,
			Amount:          decimal.NewFromInt(500),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: invoice.ID,
		})
		require.NoError(t, err)

		assert.True(t, result.AllocatedAmount.Equal(decimal.NewFromInt(300)))
		assert.True(t, result.UnallocatedAmount.Equal(decimal.NewFromInt(200)))
		// The full payment amount hits the balance, allocated or not
		assert.True(t, result.PartyBalance.Equal(decimal.NewFromInt(-500)))
	})

	t.Run("advance payment credits the balance without touching invoices", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		invoice := fixtureInvoice(companyID, party.ID, "INV-102", 800)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{*invoice}, nil)
		repos.parties.On("SaveWithLock", mock.Anything, party).Return(nil)
		repos.payments.On("Save", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)

		svc := newPaymentService(repos, nil)
		result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID: companyID,
			PartyID:   party.ID,
			Direction: ledger.PaymentDirectionIn,
			Method:    ledger.PaymentMethodCash,
			Amount:    decimal.NewFromInt(500),
			Policy:    ledger.AllocationPolicyAdvance,
		})
		require.NoError(t, err)

		assert.Empty(t, result.Allocations)
		assert.True(t, result.UnallocatedAmount.Equal(decimal.NewFromInt(500)))
		repos.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("bank transfer posts a bank leg and transaction row", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		invoice := fixtureInvoice(companyID, party.ID, "INV-103", 1000)
		account := fixtureBankAccount(companyID)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{*invoice}, nil)
		repos.invoices.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*ledger.Invoice")).Return(nil)
		repos.parties.On("SaveWithLock", mock.Anything, party).Return(nil)
		repos.accounts.On("FindFirstActiveForCompany", mock.Anything, companyID).Return(account, nil)
		repos.accounts.On("SaveWithLock", mock.Anything, account).Return(nil)
		repos.bankTxs.On("Append", mock.Anything, mock.AnythingOfType("*ledger.BankTransaction")).Return(nil)
		repos.payments.On("Save", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)

		svc := newPaymentService(repos, nil)
		result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodBankTransfer,
			Amount:          decimal.NewFromInt(1000),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: invoice.ID,
		})
		require.NoError(t, err)

		assert.NotNil(t, result.BankTransactionID)
		assert.True(t, account.RunningBalance.Equal(decimal.NewFromInt(1000)))
		repos.bankTxs.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("bank transfer without any active account fails", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		invoice := fixtureInvoice(companyID, party.ID, "INV-104", 1000)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{*invoice}, nil)
		repos.accounts.On("FindFirstActiveForCompany", mock.Anything, companyID).Return(nil, nil)

		svc := newPaymentService(repos, nil)
		_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodBankTransfer,
			Amount:          decimal.NewFromInt(1000),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: invoice.ID,
		})
		require.Error(t, err)
		assert.True(t, ledger.HasErrorCode(err, ledger.ErrCodeBankAccountRequired))
		repos.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("version conflict on the invoice aborts the whole write", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		invoice := fixtureInvoice(companyID, party.ID, "INV-105", 1000)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{*invoice}, nil)
		repos.invoices.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*ledger.Invoice")).
			Return(ledger.ErrLedgerWriteConflict("invoice version changed"))

		svc := newPaymentService(repos, nil)
		_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodCash,
			Amount:          decimal.NewFromInt(1000),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: invoice.ID,
		})
		require.Error(t, err)
		assert.True(t, ledger.IsWriteConflict(err))
		repos.parties.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		repos.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown target invoice is rejected as not found", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{}, nil)
		repos.invoices.On("FindByIDForCompany", mock.Anything, companyID, mock.Anything).Return(nil, nil)

		svc := newPaymentService(repos, nil)
		_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodCash,
			Amount:          decimal.NewFromInt(100),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: uuid.New(),
		})
		require.Error(t, err)
		assert.True(t, ledger.HasErrorCode(err, "INVOICE_NOT_FOUND"))
	})

	t.Run("target invoice of another party is rejected", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		foreign := fixtureInvoice(companyID, uuid.New(), "INV-401", 500)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{}, nil)
		repos.invoices.On("FindByIDForCompany", mock.Anything, companyID, foreign.ID).Return(foreign, nil)

		svc := newPaymentService(repos, nil)
		_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodCash,
			Amount:          decimal.NewFromInt(100),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: foreign.ID,
		})
		require.Error(t, err)
		assert.True(t, ledger.HasErrorCode(err, ledger.ErrCodeInvalidAllocation))
		assert.Contains(t, err.Error(), "does not belong")
	})

	t.Run("settled target invoice is rejected as already paid", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		settled := fixtureInvoice(companyID, party.ID, "INV-402", 500)
		require.NoError(t, settled.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(500))))

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{}, nil)
		repos.invoices.On("FindByIDForCompany", mock.Anything, companyID, settled.ID).Return(settled, nil)

		svc := newPaymentService(repos, nil)
		_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodCash,
			Amount:          decimal.NewFromInt(100),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: settled.ID,
		})
		require.Error(t, err)
		assert.True(t, ledger.HasErrorCode(err, ledger.ErrCodeInvalidAllocation))
		assert.Contains(t, err.Error(), "already fully paid")
	})

	t.Run("cancelled target invoice is rejected as cancelled", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		cancelled := fixtureInvoice(companyID, party.ID, "INV-403", 500)
		require.NoError(t, cancelled.Cancel("ordered in error"))

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{}, nil)
		repos.invoices.On("FindByIDForCompany", mock.Anything, companyID, cancelled.ID).Return(cancelled, nil)

		svc := newPaymentService(repos, nil)
		_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Direction:       ledger.PaymentDirectionIn,
			Method:          ledger.PaymentMethodCash,
			Amount:          decimal.NewFromInt(100),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: cancelled.ID,
		})
		require.Error(t, err)
		assert.True(t, ledger.HasErrorCode(err, ledger.ErrCodeInvalidAllocation))
		assert.Contains(t, err.Error(), "cancelled")
	})

	t.Run("inactive party is rejected", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		require.NoError(t, party.Deactivate())

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)

		svc := newPaymentService(repos, nil)
		_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID: companyID,
			PartyID:   party.ID,
			Direction: ledger.PaymentDirectionIn,
			Method:    ledger.PaymentMethodCash,
			Amount:    decimal.NewFromInt(100),
			Policy:    ledger.AllocationPolicyAdvance,
		})
		assert.Error(t, err)
	})

	t.Run("duplicate payment number is rejected", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.payments.On("ExistsByPaymentNumber", mock.Anything, companyID, "PAY-42").Return(true, nil)

		svc := newPaymentService(repos, nil)
		_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID:     companyID,
			PartyID:       party.ID,
			Direction:     ledger.PaymentDirectionIn,
			Method:        ledger.PaymentMethodCash,
			Amount:        decimal.NewFromInt(100),
			Policy:        ledger.AllocationPolicyAdvance,
			PaymentNumber: "PAY-42",
		})
		assert.Error(t, err)
	})

	t.Run("notifier fires after a successful commit", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		notifier := newRecordingNotifier()

		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{}, nil)
		repos.parties.On("SaveWithLock", mock.Anything, party).Return(nil)
		repos.payments.On("Save", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)

		svc := newPaymentService(repos, notifier)
		result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			CompanyID: companyID,
			PartyID:   party.ID,
			Direction: ledger.PaymentDirectionIn,
			Method:    ledger.PaymentMethodCash,
			Amount:    decimal.NewFromInt(250),
			Policy:    ledger.AllocationPolicyAdvance,
		})
		require.NoError(t, err)

		notified := notifier.waitRecorded(time.Second)
		require.NotNil(t, notified)
		assert.Equal(t, result.PaymentID, notified.PaymentID)
	})
}

func TestReversePayment(t *testing.T) {
	companyID := uuid.New()

	buildCompletedPayment := func(t *testing.T, party *ledger.Party, invoice *ledger.Invoice, amount int64) *ledger.Payment {
		t.Helper()
		payment, err := ledger.NewPayment(companyID, "PAY-900", party.ID, party.Name,
			ledger.PaymentDirectionIn, ledger.PaymentMethodCash,
			valueobject.NewMoneyINR(decimal.NewFromInt(amount)), nil, time.Now())
		require.NoError(t, err)
		if invoice != nil {
			_, err = payment.AddAllocation(invoice.ID, invoice.DocumentNumber, valueobject.NewMoneyINR(decimal.NewFromInt(amount)))
			require.NoError(t, err)
			require.NoError(t, invoice.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(amount))))
		}
		require.NoError(t, party.ApplyBalanceDelta(payment.BalanceDelta()))
		return payment
	}

	t.Run("reversal undoes invoice, balance and payment state", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		invoice := fixtureInvoice(companyID, party.ID, "INV-900", 1000)
		payment := buildCompletedPayment(t, party, invoice, 1000)

		repos.payments.On("FindByIDForCompany", mock.Anything, companyID, payment.ID).Return(payment, nil)
		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)
		repos.invoices.On("FindByIDForCompany", mock.Anything, companyID, invoice.ID).Return(invoice, nil)
		repos.invoices.On("SaveWithLock", mock.Anything, invoice).Return(nil)
		repos.parties.On("SaveWithLock", mock.Anything, party).Return(nil)
		repos.payments.On("SaveWithLock", mock.Anything, payment).Return(nil)

		svc := newPaymentService(repos, nil)
		result, err := svc.ReversePayment(context.Background(), ReversePaymentRequest{
			CompanyID: companyID,
			PaymentID: payment.ID,
			Reason:    "duplicate entry",
		})
		require.NoError(t, err)

		assert.False(t, result.AlreadyReversed)
		assert.True(t, payment.IsReversed())
		assert.Equal(t, ledger.PaymentStatusPending, invoice.PaymentStatus)
		assert.True(t, party.CurrentBalance.IsZero())
	})

	t.Run("reversing twice is idempotent", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		payment := buildCompletedPayment(t, party, nil, 500)
		require.True(t, payment.MarkReversed("first"))

		repos.payments.On("FindByIDForCompany", mock.Anything, companyID, payment.ID).Return(payment, nil)
		repos.parties.On("FindByIDForCompany", mock.Anything, companyID, party.ID).Return(party, nil)

		svc := newPaymentService(repos, nil)
		result, err := svc.ReversePayment(context.Background(), ReversePaymentRequest{
			CompanyID: companyID,
			PaymentID: payment.ID,
			Reason:    "second attempt",
		})
		require.NoError(t, err)

		assert.True(t, result.AlreadyReversed)
		assert.Equal(t, "first", payment.ReversalReason)
		repos.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		repos.payments.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("missing payment fails", func(t *testing.T) {
		repos := newTestRepos()
		repos.payments.On("FindByIDForCompany", mock.Anything, companyID, mock.Anything).Return(nil, nil)

		svc := newPaymentService(repos, nil)
		_, err := svc.ReversePayment(context.Background(), ReversePaymentRequest{
			CompanyID: companyID,
			PaymentID: uuid.New(),
			Reason:    "anything",
		})
		assert.Error(t, err)
	})

	t.Run("empty reason is rejected before any read", func(t *testing.T) {
		repos := newTestRepos()
		svc := newPaymentService(repos, nil)
		_, err := svc.ReversePayment(context.Background(), ReversePaymentRequest{
			CompanyID: companyID,
			PaymentID: uuid.New(),
		})
		assert.Error(t, err)
		repos.payments.AssertNotCalled(t, "FindByIDForCompany", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPreviewAllocation(t *testing.T) {
	companyID := uuid.New()

	t.Run("preview plans without writing", func(t *testing.T) {
		repos := newTestRepos()
		party := fixtureParty(companyID)
		invoice := fixtureInvoice(companyID, party.ID, "INV-700", 800)

		repos.invoices.On("FindOpenByParty", mock.Anything, companyID, party.ID).Return([]ledger.Invoice{*invoice}, nil)

		svc := newPaymentService(repos, nil)
		plan, err := svc.PreviewAllocation(context.Background(), PreviewAllocationRequest{
			CompanyID:       companyID,
			PartyID:         party.ID,
			Amount:          decimal.NewFromInt(500),
			Policy:          ledger.AllocationPolicyAgainstInvoice,
			TargetInvoiceID: invoice.ID,
		})
		require.NoError(t, err)

		assert.True(t, plan.TotalAllocated.Equal(decimal.NewFromInt(500)))
		repos.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		repos.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
