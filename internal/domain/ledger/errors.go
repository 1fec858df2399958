package ledger

import (
	"fmt"

	"github.com/ledgerline/backend/internal/domain/shared"
)

// Error codes owned by the ledger domain
const (
	ErrCodeInvalidAllocation   = "INVALID_ALLOCATION"
	ErrCodeLedgerWriteConflict = "LEDGER_WRITE_CONFLICT"
	ErrCodeBankAccountRequired = "BANK_ACCOUNT_REQUIRED"
)

// ErrInvalidAllocation builds an invalid-allocation error: malformed
// request, party/invoice mismatch, or invoice already settled. Surfaced
// immediately, no state change.
func ErrInvalidAllocation(message string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvalidAllocation, message)
}

// ErrLedgerWriteConflict builds a write-conflict error: another writer
// consumed the pending amount or bumped the version first. Retryable;
// no partial state is ever visible.
func ErrLedgerWriteConflict(message string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeLedgerWriteConflict, message)
}

// ErrBankAccountRequired builds the error for bank-leg methods used
// without a bank account.
func ErrBankAccountRequired(method PaymentMethod) *shared.DomainError {
	return shared.NewDomainError(ErrCodeBankAccountRequired,
		fmt.Sprintf("Payment method %s requires a bank account", method))
}

// IsWriteConflict reports whether err is a ledger write conflict
func IsWriteConflict(err error) bool {
	return HasErrorCode(err, ErrCodeLedgerWriteConflict)
}

// HasErrorCode reports whether err is a DomainError carrying the given code
func HasErrorCode(err error, code string) bool {
	for err != nil {
		if de, ok := err.(*shared.DomainError); ok {
			return de.Code == code
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
