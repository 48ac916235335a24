package quotation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type flatTax struct{ rate decimal.Decimal }

func (f flatTax) Tax(_ []Item, base decimal.Decimal) decimal.Decimal {
	return base.Mul(f.rate)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestItemTotals(t *testing.T) {
	tests := []struct {
		name                      string
		qty, price, pct           string
		subtotal, discount, total string
	}{
		{"no discount", "3", "12.5", "0", "37.50", "0.00", "37.50"},
		{"ten percent", "2", "100", "10", "200.00", "20.00", "180.00"},
		{"full discount", "1", "99.99", "100", "99.99", "99.99", "0.00"},
		{"rounds half away from zero", "1", "0.125", "0", "0.13", "0.00", "0.13"},
		{"fractional quantity", "1.5", "3.33", "15", "5.00", "0.75", "4.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemTotals(d(tt.qty), d(tt.price), d(tt.pct))
			assert.Equal(t, tt.subtotal, got.Subtotal.StringFixed(2))
			assert.Equal(t, tt.discount, got.DiscountAmount.StringFixed(2))
			assert.Equal(t, tt.total, got.Total.StringFixed(2))
			assert.True(t, got.Total.Equal(got.Subtotal.Sub(got.DiscountAmount)))
		})
	}
}

func TestDocumentTotals(t *testing.T) {
	items := []Item{
		{Subtotal: d("200"), DiscountAmount: d("20")},
		{Subtotal: d("15.55"), DiscountAmount: d("0")},
	}

	t.Run("zero tax", func(t *testing.T) {
		got := DocumentTotals(items, ZeroTax{})
		assert.Equal(t, "215.55", got.Subtotal.StringFixed(2))
		assert.Equal(t, "20.00", got.DiscountTotal.StringFixed(2))
		assert.True(t, got.TaxTotal.IsZero())
		assert.Equal(t, "195.55", got.Total.StringFixed(2))
	})

	t.Run("nil calculator behaves as zero tax", func(t *testing.T) {
		got := DocumentTotals(items, nil)
		assert.Equal(t, "195.55", got.Total.StringFixed(2))
	})

	t.Run("tax is applied on the discounted base", func(t *testing.T) {
		got := DocumentTotals(items, flatTax{rate: d("0.19")})
		assert.Equal(t, "37.15", got.TaxTotal.StringFixed(2))
		assert.Equal(t, "232.70", got.Total.StringFixed(2))
	})

	t.Run("empty items", func(t *testing.T) {
		got := DocumentTotals(nil, ZeroTax{})
		assert.True(t, got.Total.IsZero())
	})
}
