package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/backend/internal/domain/ledger"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
)

// PaymentService is the ledger writer: it turns allocation plans into
// atomic multi-aggregate writes. Every mutation runs inside one
// transaction; a version conflict anywhere rolls the whole unit back.
type PaymentService struct {
	txManager ledger.TransactionManager
	repos     ledger.Repositories
	factory   *ledger.AllocationStrategyFactory
	notifier  Notifier
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	txManager ledger.TransactionManager,
	repos ledger.Repositories,
	factory *ledger.AllocationStrategyFactory,
	notifier Notifier,
	logger *zap.Logger,
) *PaymentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		txManager: txManager,
		repos:     repos,
		factory:   factory,
		notifier:  notifier,
		logger:    logger,
	}
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	CompanyID       uuid.UUID
	PartyID         uuid.UUID
	Direction       ledger.PaymentDirection
	Method          ledger.PaymentMethod
	Amount          decimal.Decimal
	Policy          ledger.AllocationPolicy
	TargetInvoiceID uuid.UUID  // Required for AGAINST_INVOICE
	BankAccountID   *uuid.UUID // Optional; defaults to the company's first active account
	PaymentNumber   string     // Optional; generated when empty
	Reference       string
	Remark          string
	PaidAt          time.Time
}

// AllocationEntry is one allocation line in a payment result
type AllocationEntry struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	InvoiceStatus string          `json:"invoice_status"`
}

// PaymentResult represents the outcome of recording a payment
type PaymentResult struct {
	PaymentID         uuid.UUID         `json:"payment_id"`
	PaymentNumber     string            `json:"payment_number"`
	PartyID           uuid.UUID         `json:"party_id"`
	Direction         string            `json:"direction"`
	Method            string            `json:"method"`
	Amount            decimal.Decimal   `json:"amount"`
	AllocatedAmount   decimal.Decimal   `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal   `json:"unallocated_amount"`
	Allocations       []AllocationEntry `json:"allocations"`
	PartyBalance      decimal.Decimal   `json:"party_balance"`
	BankTransactionID *uuid.UUID        `json:"bank_transaction_id,omitempty"`
}

// RecordPayment plans the allocation, then applies payment, invoice, party
// and bank effects as one atomic write. The plan is re-validated against
// freshly read invoices inside the transaction; any optimistic lock failure
// surfaces as a retryable write conflict.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	if !req.Direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Payment direction is not valid")
	}
	if !req.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ledger.ErrInvalidAllocation("Payment amount must be positive")
	}
	if !req.Policy.IsValid() {
		return nil, ledger.ErrInvalidAllocation("Unknown allocation policy")
	}

	strategy, err := s.factory.ForRequest(req.Policy, req.TargetInvoiceID)
	if err != nil {
		return nil, err
	}

	amount := valueobject.NewMoneyINR(req.Amount).RoundMinor()

	var result *PaymentResult
	err = s.txManager.InTransaction(ctx, func(ctx context.Context, repos ledger.Repositories) error {
		party, err := repos.Parties.FindByIDForCompany(ctx, req.CompanyID, req.PartyID)
		if err != nil {
			return fmt.Errorf("failed to load party: %w", err)
		}
		if party == nil {
			return shared.NewDomainError("PARTY_NOT_FOUND", "Party not found")
		}
		if !party.IsActive {
			return shared.NewDomainError("PARTY_INACTIVE", "Cannot record payments for an inactive party")
		}

		paymentNumber := req.PaymentNumber
		if paymentNumber == "" {
			paymentNumber = generatePaymentNumber()
		} else {
			taken, err := repos.Payments.ExistsByPaymentNumber(ctx, req.CompanyID, paymentNumber)
			if err != nil {
				return fmt.Errorf("failed to check payment number: %w", err)
			}
			if taken {
				return shared.NewDomainError("DUPLICATE_PAYMENT_NUMBER", fmt.Sprintf("Payment number %s already exists", paymentNumber))
			}
		}

		invoices, err := repos.Invoices.FindOpenByParty(ctx, req.CompanyID, req.PartyID)
		if err != nil {
			return fmt.Errorf("failed to load open invoices: %w", err)
		}
		byID := make(map[uuid.UUID]*ledger.Invoice, len(invoices))
		views := make([]ledger.OpenInvoice, 0, len(invoices))
		for i := range invoices {
			byID[invoices[i].ID] = &invoices[i]
			views = append(views, invoices[i].AsOpenInvoice())
		}

		if req.Policy == ledger.AllocationPolicyAgainstInvoice {
			if _, open := byID[req.TargetInvoiceID]; !open {
				return explainClosedTarget(ctx, repos.Invoices, req.CompanyID, req.PartyID, req.TargetInvoiceID)
			}
		}

		plan, err := strategy.Plan(amount, views)
		if err != nil {
			return err
		}

		bankAccount, err := s.resolveBankAccount(ctx, repos, req)
		if err != nil {
			return err
		}
		var bankAccountID *uuid.UUID
		if bankAccount != nil {
			bankAccountID = &bankAccount.ID
		}

		payment, err := ledger.NewPayment(
			req.CompanyID, paymentNumber, party.ID, party.Name,
			req.Direction, req.Method, amount, bankAccountID, req.PaidAt,
		)
		if err != nil {
			return err
		}
		if req.Reference != "" {
			if err := payment.SetReference(req.Reference); err != nil {
				return err
			}
		}
		if req.Remark != "" {
			payment.SetRemark(req.Remark)
		}

		entries := make([]AllocationEntry, 0, len(plan.Allocations))
		for _, planned := range plan.Allocations {
			invoice, ok := byID[planned.InvoiceID]
			if !ok {
				return ledger.ErrInvalidAllocation("Planned invoice is no longer open")
			}
			allocAmount := valueobject.NewMoneyINR(planned.Amount)

			if _, err := payment.AddAllocation(invoice.ID, invoice.DocumentNumber, allocAmount); err != nil {
				return err
			}
			if err := invoice.ApplyPayment(allocAmount); err != nil {
				return err
			}
			if err := repos.Invoices.SaveWithLock(ctx, invoice); err != nil {
				return err
			}
			entries = append(entries, AllocationEntry{
				InvoiceID:     invoice.ID,
				InvoiceNumber: invoice.DocumentNumber,
				Amount:        planned.Amount,
				InvoiceStatus: invoice.PaymentStatus.String(),
			})
		}

		if err := party.ApplyBalanceDelta(payment.BalanceDelta()); err != nil {
			return err
		}
		if err := repos.Parties.SaveWithLock(ctx, party); err != nil {
			return err
		}

		if bankAccount != nil {
			if err := bankAccount.ApplyPayment(payment.Direction, amount); err != nil {
				return err
			}
			if err := repos.BankAccounts.SaveWithLock(ctx, bankAccount); err != nil {
				return err
			}
			bankTx, err := ledger.NewBankTransaction(
				bankAccount, payment,
				ledger.BankTransactionTypeForDirection(payment.Direction),
				amount,
				fmt.Sprintf("Payment %s from %s", payment.PaymentNumber, party.Name),
			)
			if err != nil {
				return err
			}
			if err := repos.BankTransactions.Append(ctx, bankTx); err != nil {
				return fmt.Errorf("failed to append bank transaction: %w", err)
			}
			if err := payment.AttachBankTransaction(bankTx.ID); err != nil {
				return err
			}
		}

		if err := repos.Payments.Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		result = &PaymentResult{
			PaymentID:         payment.ID,
			PaymentNumber:     payment.PaymentNumber,
			PartyID:           party.ID,
			Direction:         payment.Direction.String(),
			Method:            payment.Method.String(),
			Amount:            payment.Amount,
			AllocatedAmount:   payment.AllocatedAmount,
			UnallocatedAmount: payment.UnallocatedAmount,
			Allocations:       entries,
			PartyBalance:      party.CurrentBalance,
			BankTransactionID: payment.BankTransactionID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", result.PaymentID.String()),
		zap.String("payment_number", result.PaymentNumber),
		zap.String("party_id", result.PartyID.String()),
		zap.String("amount", result.Amount.String()),
		zap.Int("allocations", len(result.Allocations)),
	)

	// Fire-and-forget: a notification failure never fails the payment
	go s.notifier.PaymentRecorded(context.WithoutCancel(ctx), *result)

	return result, nil
}

// resolveBankAccount loads the bank account for a bank-leg payment. An
// explicit account ID wins; otherwise the company's first active account
// is used. Cash payments resolve to nil.
func (s *PaymentService) resolveBankAccount(ctx context.Context, repos ledger.Repositories, req RecordPaymentRequest) (*ledger.BankAccount, error) {
	if !req.Method.RequiresBankLeg() {
		return nil, nil
	}

	if req.BankAccountID != nil && *req.BankAccountID != uuid.Nil {
		account, err := repos.BankAccounts.FindByIDForCompany(ctx, req.CompanyID, *req.BankAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bank account: %w", err)
		}
		if account == nil {
			return nil, shared.NewDomainError("BANK_ACCOUNT_NOT_FOUND", "Bank account not found")
		}
		if !account.IsActive {
			return nil, shared.NewDomainError("BANK_ACCOUNT_INACTIVE", "Bank account is inactive")
		}
		return account, nil
	}

	account, err := repos.BankAccounts.FindFirstActiveForCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find bank account: %w", err)
	}
	if account == nil {
		return nil, ledger.ErrBankAccountRequired(req.Method)
	}
	return account, nil
}

// PreviewAllocationRequest represents a dry-run allocation request
type PreviewAllocationRequest struct {
	CompanyID       uuid.UUID
	PartyID         uuid.UUID
	Amount          decimal.Decimal
	Policy          ledger.AllocationPolicy
	TargetInvoiceID uuid.UUID
}

// PreviewAllocation computes the allocation plan without writing anything.
// The preview is advisory: amounts may shift before the payment is recorded.
func (s *PaymentService) PreviewAllocation(ctx context.Context, req PreviewAllocationRequest) (*ledger.AllocationPlan, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ledger.ErrInvalidAllocation("Payment amount must be positive")
	}
	strategy, err := s.factory.ForRequest(req.Policy, req.TargetInvoiceID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.repos.Invoices.FindOpenByParty(ctx, req.CompanyID, req.PartyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}
	views := make([]ledger.OpenInvoice, 0, len(invoices))
	targetOpen := false
	for i := range invoices {
		if invoices[i].ID == req.TargetInvoiceID {
			targetOpen = true
		}
		views = append(views, invoices[i].AsOpenInvoice())
	}
	if req.Policy == ledger.AllocationPolicyAgainstInvoice && !targetOpen {
		return nil, explainClosedTarget(ctx, s.repos.Invoices, req.CompanyID, req.PartyID, req.TargetInvoiceID)
	}

	return strategy.Plan(valueobject.NewMoneyINR(req.Amount), views)
}

// explainClosedTarget reports why an against-invoice target is missing from
// the party's open set: unknown, owned by another party, cancelled, or
// already settled.
func explainClosedTarget(ctx context.Context, invoices ledger.InvoiceRepository, companyID, partyID, invoiceID uuid.UUID) error {
	invoice, err := invoices.FindByIDForCompany(ctx, companyID, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to load target invoice: %w", err)
	}
	switch {
	case invoice == nil:
		return shared.NewDomainError("INVOICE_NOT_FOUND", "Target invoice not found")
	case invoice.PartyID != partyID:
		return ledger.ErrInvalidAllocation("Target invoice does not belong to this party")
	case invoice.CancelledAt != nil:
		return ledger.ErrInvalidAllocation("Target invoice is cancelled")
	default:
		return ledger.ErrInvalidAllocation("Target invoice is already fully paid")
	}
}

// ReversePaymentRequest represents a request to reverse a payment
type ReversePaymentRequest struct {
	CompanyID uuid.UUID
	PaymentID uuid.UUID
	Reason    string
}

// ReversePaymentResult represents the outcome of a reversal
type ReversePaymentResult struct {
	PaymentID       uuid.UUID       `json:"payment_id"`
	PaymentNumber   string          `json:"payment_number"`
	AlreadyReversed bool            `json:"already_reversed"`
	PartyBalance    decimal.Decimal `json:"party_balance"`
}

// ReversePayment undoes every effect of a payment: invoice paid amounts,
// the party balance and the bank leg. Reversing an already reversed payment
// succeeds without touching anything.
func (s *PaymentService) ReversePayment(ctx context.Context, req ReversePaymentRequest) (*ReversePaymentResult, error) {
	if req.Reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Reversal reason is required")
	}

	var result *ReversePaymentResult
	err := s.txManager.InTransaction(ctx, func(ctx context.Context, repos ledger.Repositories) error {
		payment, err := repos.Payments.FindByIDForCompany(ctx, req.CompanyID, req.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if payment == nil {
			return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
		}

		party, err := repos.Parties.FindByIDForCompany(ctx, req.CompanyID, payment.PartyID)
		if err != nil {
			return fmt.Errorf("failed to load party: %w", err)
		}
		if party == nil {
			return shared.NewDomainError("PARTY_NOT_FOUND", "Party not found")
		}

		if !payment.MarkReversed(req.Reason) {
			// Idempotent: the first reversal already undid everything
			result = &ReversePaymentResult{
				PaymentID:       payment.ID,
				PaymentNumber:   payment.PaymentNumber,
				AlreadyReversed: true,
				PartyBalance:    party.CurrentBalance,
			}
			return nil
		}

		for _, alloc := range payment.Allocations {
			invoice, err := repos.Invoices.FindByIDForCompany(ctx, req.CompanyID, alloc.InvoiceID)
			if err != nil {
				return fmt.Errorf("failed to load invoice: %w", err)
			}
			if invoice == nil {
				return shared.NewDomainError("INVOICE_NOT_FOUND", fmt.Sprintf("Invoice %s not found", alloc.InvoiceNumber))
			}
			if err := invoice.RevertPayment(alloc.GetAmountMoney()); err != nil {
				return err
			}
			if err := repos.Invoices.SaveWithLock(ctx, invoice); err != nil {
				return err
			}
		}

		if err := party.ApplyBalanceDelta(payment.BalanceDelta().Neg()); err != nil {
			return err
		}
		if err := repos.Parties.SaveWithLock(ctx, party); err != nil {
			return err
		}

		if payment.HasBankLeg() && payment.BankAccountID != nil {
			account, err := repos.BankAccounts.FindByIDForCompany(ctx, req.CompanyID, *payment.BankAccountID)
			if err != nil {
				return fmt.Errorf("failed to load bank account: %w", err)
			}
			if account == nil {
				return shared.NewDomainError("BANK_ACCOUNT_NOT_FOUND", "Bank account not found")
			}
			amount := payment.GetAmountMoney()
			if err := account.RevertPayment(payment.Direction, amount); err != nil {
				return err
			}
			if err := repos.BankAccounts.SaveWithLock(ctx, account); err != nil {
				return err
			}
			// Compensating row, never an update of the original
			reversalType := ledger.BankTransactionTypeDebit
			if ledger.BankTransactionTypeForDirection(payment.Direction) == ledger.BankTransactionTypeDebit {
				reversalType = ledger.BankTransactionTypeCredit
			}
			bankTx, err := ledger.NewBankTransaction(
				account, payment, reversalType, amount,
				fmt.Sprintf("Reversal of payment %s: %s", payment.PaymentNumber, req.Reason),
			)
			if err != nil {
				return err
			}
			if err := repos.BankTransactions.Append(ctx, bankTx); err != nil {
				return fmt.Errorf("failed to append bank transaction: %w", err)
			}
		}

		if err := repos.Payments.SaveWithLock(ctx, payment); err != nil {
			return err
		}

		result = &ReversePaymentResult{
			PaymentID:     payment.ID,
			PaymentNumber: payment.PaymentNumber,
			PartyBalance:  party.CurrentBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyReversed {
		s.logger.Info("payment reversed",
			zap.String("payment_id", result.PaymentID.String()),
			zap.String("payment_number", result.PaymentNumber),
			zap.String("reason", req.Reason),
		)
		go s.notifier.PaymentReversed(context.WithoutCancel(ctx), *result)
	}

	return result, nil
}

// GetPayment loads a payment with its allocations
func (s *PaymentService) GetPayment(ctx context.Context, companyID, paymentID uuid.UUID) (*ledger.Payment, error) {
	payment, err := s.repos.Payments.FindByIDForCompany(ctx, companyID, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	return payment, nil
}

// ListPayments lists payments for a company with filtering and pagination
func (s *PaymentService) ListPayments(ctx context.Context, companyID uuid.UUID, filter ledger.PaymentFilter) (*shared.Paginated[ledger.Payment], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	payments, err := s.repos.Payments.FindAllForCompany(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	total, err := s.repos.Payments.CountForCompany(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	page := shared.NewPaginated(payments, total, filter.Page, filter.PageSize)
	return &page, nil
}

// generatePaymentNumber builds a unique human-scannable payment number
func generatePaymentNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("PAY-%s-%s", time.Now().Format("20060102"), suffix)
}
