package ledger

import "context"

// Notifier receives post-commit payment notifications. Implementations
// must be safe for concurrent use; a failed notification never affects
// the recorded payment.
type Notifier interface {
	// PaymentRecorded is called after a payment commits
	PaymentRecorded(ctx context.Context, result PaymentResult)

	// PaymentReversed is called after a reversal commits
	PaymentReversed(ctx context.Context, result ReversePaymentResult)
}

// NopNotifier discards all notifications
type NopNotifier struct{}

// PaymentRecorded does nothing
func (NopNotifier) PaymentRecorded(context.Context, PaymentResult) {}

// PaymentReversed does nothing
func (NopNotifier) PaymentReversed(context.Context, ReversePaymentResult) {}
