package quotation

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ItemAmounts holds the derived monetary values of a single line
type ItemAmounts struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// DocumentAmounts holds the aggregate monetary values of a quotation
type DocumentAmounts struct {
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	Total         decimal.Decimal
}

// TaxCalculator computes the tax charged on a quotation.
// The base passed in is subtotal minus discounts, already rounded.
type TaxCalculator interface {
	Tax(items []Item, taxableBase decimal.Decimal) decimal.Decimal
}

// ZeroTax charges no tax. It is the only calculator wired today.
type ZeroTax struct{}

// Tax implements TaxCalculator
func (ZeroTax) Tax(_ []Item, _ decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// ItemTotals computes subtotal, discount and total for one line.
// Each value is rounded to cents on its own.
func ItemTotals(quantity, unitPrice, discountPercentage decimal.Decimal) ItemAmounts {
	subtotal := quantity.Mul(unitPrice).Round(2)
	discount := subtotal.Mul(discountPercentage).Div(hundred).Round(2)
	return ItemAmounts{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          subtotal.Sub(discount).Round(2),
	}
}

// DocumentTotals sums the already rounded item values
func DocumentTotals(items []Item, tax TaxCalculator) DocumentAmounts {
	if tax == nil {
		tax = ZeroTax{}
	}

	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal)
		discount = discount.Add(item.DiscountAmount)
	}
	subtotal = subtotal.Round(2)
	discount = discount.Round(2)

	taxTotal := tax.Tax(items, subtotal.Sub(discount)).Round(2)

	return DocumentAmounts{
		Subtotal:      subtotal,
		DiscountTotal: discount,
		TaxTotal:      taxTotal,
		Total:         subtotal.Sub(discount).Add(taxTotal).Round(2),
	}
}
