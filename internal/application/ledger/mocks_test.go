package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ledgerline/backend/internal/domain/ledger"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockPartyRepository struct {
	mock.Mock
}

func (m *MockPartyRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*ledger.Party, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Party), args.Error(1)
}

func (m *MockPartyRepository) FindActiveForCompany(ctx context.Context, companyID uuid.UUID, partyType *ledger.PartyType) ([]ledger.Party, error) {
	args := m.Called(ctx, companyID, partyType)
	return args.Get(0).([]ledger.Party), args.Error(1)
}

func (m *MockPartyRepository) Save(ctx context.Context, party *ledger.Party) error {
	args := m.Called(ctx, party)
	return args.Error(0)
}

func (m *MockPartyRepository) SaveWithLock(ctx context.Context, party *ledger.Party) error {
	args := m.Called(ctx, party)
	return args.Error(0)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*ledger.Invoice, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOpenByParty(ctx context.Context, companyID, partyID uuid.UUID) ([]ledger.Invoice, error) {
	args := m.Called(ctx, companyID, partyID)
	return args.Get(0).([]ledger.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *ledger.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *ledger.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SumPendingByParty(ctx context.Context, companyID, partyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, companyID, partyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*ledger.Payment, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter ledger.PaymentFilter) ([]ledger.Payment, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).([]ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountForCompany(ctx context.Context, companyID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) FindCompletedByParty(ctx context.Context, companyID, partyID uuid.UUID, limit int) ([]ledger.Payment, error) {
	args := m.Called(ctx, companyID, partyID, limit)
	return args.Get(0).([]ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, payment *ledger.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SumUnallocatedByParty(ctx context.Context, companyID, partyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, companyID, partyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) ExistsByPaymentNumber(ctx context.Context, companyID uuid.UUID, paymentNumber string) (bool, error) {
	args := m.Called(ctx, companyID, paymentNumber)
	return args.Bool(0), args.Error(1)
}

type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*ledger.BankAccount, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) FindFirstActiveForParty(ctx context.Context, companyID, partyID uuid.UUID) (*ledger.BankAccount, error) {
	args := m.Called(ctx, companyID, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) FindFirstActiveForCompany(ctx context.Context, companyID uuid.UUID) (*ledger.BankAccount, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) Save(ctx context.Context, account *ledger.BankAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockBankAccountRepository) SaveWithLock(ctx context.Context, account *ledger.BankAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type MockBankTransactionRepository struct {
	mock.Mock
}

func (m *MockBankTransactionRepository) Append(ctx context.Context, tx *ledger.BankTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBankTransactionRepository) FindByPayment(ctx context.Context, companyID, paymentID uuid.UUID) ([]ledger.BankTransaction, error) {
	args := m.Called(ctx, companyID, paymentID)
	return args.Get(0).([]ledger.BankTransaction), args.Error(1)
}

// =============================================================================
// Test fixtures
// =============================================================================

// testRepos bundles fresh mocks into a Repositories value
type testRepos struct {
	parties  *MockPartyRepository
	invoices *MockInvoiceRepository
	payments *MockPaymentRepository
	accounts *MockBankAccountRepository
	bankTxs  *MockBankTransactionRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		parties:  new(MockPartyRepository),
		invoices: new(MockInvoiceRepository),
		payments: new(MockPaymentRepository),
		accounts: new(MockBankAccountRepository),
		bankTxs:  new(MockBankTransactionRepository),
	}
}

func (r *testRepos) bundle() ledger.Repositories {
	return ledger.Repositories{
		Parties:          r.parties,
		Invoices:         r.invoices,
		Payments:         r.payments,
		BankAccounts:     r.accounts,
		BankTransactions: r.bankTxs,
	}
}

// fakeTxManager runs the unit of work directly against the mock
// repositories without a real database transaction
type fakeTxManager struct {
	repos ledger.Repositories
}

func (f *fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, repos ledger.Repositories) error) error {
	return fn(ctx, f.repos)
}

// recordingNotifier captures notifications for assertions
type recordingNotifier struct {
	recorded chan PaymentResult
	reversed chan ReversePaymentResult
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		recorded: make(chan PaymentResult, 1),
		reversed: make(chan ReversePaymentResult, 1),
	}
}

func (n *recordingNotifier) PaymentRecorded(_ context.Context, result PaymentResult) {
	n.recorded <- result
}

func (n *recordingNotifier) PaymentReversed(_ context.Context, result ReversePaymentResult) {
	n.reversed <- result
}

func (n *recordingNotifier) waitRecorded(timeout time.Duration) *PaymentResult {
	select {
	case r := <-n.recorded:
		return &r
	case <-time.After(timeout):
		return nil
	}
}
