package models

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DiscountedPrice computes price * (1 - value/100) without rounding, the
// same expression the form query evaluates in SQL.
func DiscountedPrice(price, value decimal.Decimal) decimal.Decimal {
	return price.Sub(price.Mul(value.Div(hundred)))
}

// RoundMoney rounds a monetary amount to 2 decimal places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CartTotal sums unit price times quantity over the cart rows
func CartTotal(rows []CartItemRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity))))
	}
	return total
}

// FormatMoney renders an amount with exactly 2 decimal places
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
