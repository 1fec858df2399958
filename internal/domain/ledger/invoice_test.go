package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
)

func newTestInvoice(t *testing.T, total int64) *Invoice {
	t.Helper()
	due := time.Now().Add(30 * 24 * time.Hour)
	inv, err := NewInvoice(
		uuid.New(),
		"INV-001",
		DocumentTypeSale,
		uuid.New(),
		"Acme Traders",
		valueobject.NewMoneyINR(decimal.NewFromInt(total)),
		time.Now(),
		&due,
	)
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	t.Run("creates pending invoice with full pending amount", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		assert.Equal(t, PaymentStatusPending, inv.PaymentStatus)
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.PendingAmount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, inv.IsOpen())
	})

	t.Run("rejects empty document number", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "", DocumentTypeSale, uuid.New(), "Acme",
			valueobject.NewMoneyINR(decimal.NewFromInt(100)), time.Now(), nil)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive total", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-002", DocumentTypeSale, uuid.New(), "Acme",
			valueobject.NewMoneyINR(decimal.Zero), time.Now(), nil)
		assert.Error(t, err)
	})

	t.Run("rejects invalid document type", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-003", DocumentType("BAD"), uuid.New(), "Acme",
			valueobject.NewMoneyINR(decimal.NewFromInt(100)), time.Now(), nil)
		assert.Error(t, err)
	})
}

func TestInvoiceApplyPayment(t *testing.T) {
	t.Run("partial payment moves status to PARTIAL", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(400))))

		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(400)))
		assert.True(t, inv.PendingAmount.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, PaymentStatusPartial, inv.PaymentStatus)
	})

	t.Run("full payment moves status to PAID", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(1000))))

		assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
		assert.True(t, inv.PendingAmount.IsZero())
		assert.False(t, inv.IsOpen())
	})

	t.Run("payment exceeding pending is rejected", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		err := inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(1001)))
		assert.Error(t, err)
		// Amounts untouched on failure
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.PendingAmount.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("payment on paid invoice is rejected", func(t *testing.T) {
		inv := newTestInvoice(t, 100)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(100))))
		err := inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(1)))
		assert.Error(t, err)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		inv := newTestInvoice(t, 100)
		assert.Error(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.Zero)))
		assert.Error(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(-5))))
	})

	t.Run("pending always equals total minus paid", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		for _, amt := range []int64{100, 250, 400} {
			require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(amt))))
			assert.True(t, inv.PendingAmount.Equal(inv.TotalAmount.Sub(inv.PaidAmount)))
		}
	})
}

func TestInvoiceRevertPayment(t *testing.T) {
	t.Run("revert restores amounts and status", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(1000))))
		require.Equal(t, PaymentStatusPaid, inv.PaymentStatus)

		require.NoError(t, inv.RevertPayment(valueobject.NewMoneyINR(decimal.NewFromInt(1000))))
		assert.Equal(t, PaymentStatusPending, inv.PaymentStatus)
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.PendingAmount.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("partial revert moves status back to PARTIAL", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(1000))))
		require.NoError(t, inv.RevertPayment(valueobject.NewMoneyINR(decimal.NewFromInt(400))))

		assert.Equal(t, PaymentStatusPartial, inv.PaymentStatus)
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(600)))
	})

	t.Run("revert exceeding paid amount is rejected", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(100))))
		assert.Error(t, inv.RevertPayment(valueobject.NewMoneyINR(decimal.NewFromInt(200))))
	})
}

func TestInvoiceCancel(t *testing.T) {
	t.Run("unpaid invoice can be cancelled", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.Cancel("duplicate entry"))
		assert.NotNil(t, inv.CancelledAt)
		assert.True(t, inv.PendingAmount.IsZero())
		assert.False(t, inv.IsOpen())
	})

	t.Run("invoice with payments cannot be cancelled", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(valueobject.NewMoneyINR(decimal.NewFromInt(1))))
		assert.Error(t, inv.Cancel("mistake"))
	})

	t.Run("cancel requires a reason", func(t *testing.T) {
		inv := newTestInvoice(t, 1000)
		assert.Error(t, inv.Cancel(""))
	})
}

func TestDocumentTypeBalanceSign(t *testing.T) {
	assert.True(t, DocumentTypeSale.BalanceSign().Equal(decimal.NewFromInt(1)))
	assert.True(t, DocumentTypePurchase.BalanceSign().Equal(decimal.NewFromInt(-1)))
}
