package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDiscountedPrice(t *testing.T) {
	price := decimal.RequireFromString("100.00")
	value := decimal.RequireFromString("20")

	got := DiscountedPrice(price, value)

	// 100.00 * (1 - 20/100) = 80, exact, no intermediate rounding
	assert.True(t, got.Equal(decimal.RequireFromString("80")), "got %s", got)
}

func TestDiscountedPriceFractionalValue(t *testing.T) {
	price := decimal.RequireFromString("19.99")
	value := decimal.RequireFromString("12.5")

	got := DiscountedPrice(price, value)

	assert.True(t, got.Equal(decimal.RequireFromString("17.491250")), "got %s", got)
	assert.Equal(t, "17.49", FormatMoney(RoundMoney(got)))
}

func TestCartTotal(t *testing.T) {
	rows := []CartItemRow{
		{UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		{UnitPrice: decimal.RequireFromString("5.50"), Quantity: 3},
	}

	total := CartTotal(rows)

	assert.True(t, total.Equal(decimal.RequireFromString("36.50")), "got %s", total)
	assert.Equal(t, "36.50", FormatMoney(total))
}

func TestCartTotalEmpty(t *testing.T) {
	assert.Equal(t, "0.00", FormatMoney(CartTotal(nil)))
}

func TestFormatMoneyPadsDecimals(t *testing.T) {
	assert.Equal(t, "36.50", FormatMoney(decimal.RequireFromString("36.5")))
	assert.Equal(t, "80.00", FormatMoney(decimal.RequireFromString("80")))
}
