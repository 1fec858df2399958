package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(100), INR)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
		assert.Equal(t, INR, m.Currency())
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})

	t.Run("NewMoneyFromString parses decimal strings", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", INR)
		require.NoError(t, err)
		assert.Equal(t, "123.45", m.StringFixed(2))
	})

	t.Run("NewMoneyFromString rejects garbage", func(t *testing.T) {
		_, err := NewMoneyFromString("abc", INR)
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	t.Run("Add sums same-currency amounts", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b := NewMoneyINR(decimal.NewFromInt(50))
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(150)))
	})

	t.Run("Add rejects mixed currencies", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b, _ := NewMoney(decimal.NewFromInt(50), USD)
		_, err := a.Add(b)
		assert.Error(t, err)
	})

	t.Run("Subtract can go negative", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(50))
		b := NewMoneyINR(decimal.NewFromInt(100))
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.IsNegative())
	})

	t.Run("Negate and Abs", func(t *testing.T) {
		m := NewMoneyINR(decimal.NewFromInt(75))
		assert.True(t, m.Negate().IsNegative())
		assert.True(t, m.Negate().Abs().Equals(m))
	})
}

func TestMoneyRounding(t *testing.T) {
	t.Run("RoundMinor rounds half-up to two places for INR", func(t *testing.T) {
		m := NewMoneyINR(decimal.RequireFromString("10.005"))
		assert.Equal(t, "10.01", m.RoundMinor().StringFixed(2))

		m = NewMoneyINR(decimal.RequireFromString("10.004"))
		assert.Equal(t, "10.00", m.RoundMinor().StringFixed(2))
	})

	t.Run("RoundMinor respects zero-decimal currencies", func(t *testing.T) {
		m, _ := NewMoney(decimal.RequireFromString("10.5"), JPY)
		assert.Equal(t, "11", m.RoundMinor().Amount().String())
	})

	t.Run("unknown currency defaults to two places", func(t *testing.T) {
		assert.Equal(t, int32(2), Currency("XYZ").MinorUnits())
	})
}

func TestMoneyComparison(t *testing.T) {
	a := NewMoneyINR(decimal.NewFromInt(10))
	b := NewMoneyINR(decimal.NewFromInt(20))

	t.Run("LessThan", func(t *testing.T) {
		less, err := a.LessThan(b)
		require.NoError(t, err)
		assert.True(t, less)
	})

	t.Run("GreaterThan", func(t *testing.T) {
		greater, err := b.GreaterThan(a)
		require.NoError(t, err)
		assert.True(t, greater)
	})

	t.Run("Equals checks amount and currency", func(t *testing.T) {
		c := NewMoneyINR(decimal.NewFromInt(10))
		assert.True(t, a.Equals(c))
		usd, _ := NewMoney(decimal.NewFromInt(10), USD)
		assert.False(t, a.Equals(usd))
	})
}

func TestMoneyJSON(t *testing.T) {
	t.Run("round-trips through JSON", func(t *testing.T) {
		m := NewMoneyINR(decimal.RequireFromString("99.99"))
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var out Money
		require.NoError(t, json.Unmarshal(data, &out))
		assert.True(t, m.Equals(out))
	})
}

func TestMoneyScan(t *testing.T) {
	t.Run("scans string values", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("42.50"))
		assert.Equal(t, "42.50", m.StringFixed(2))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("nil scans to zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(42))
	})
}
