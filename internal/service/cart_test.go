package service

import (
	"testing"

	"reservation-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartSummary(t *testing.T) {
	rows := []models.CartItemRow{
		{UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		{UnitPrice: decimal.RequireFromString("5.50"), Quantity: 3},
	}

	total, count := CartSummary(rows)

	assert.True(t, total.Equal(decimal.RequireFromString("36.50")), "got %s", total)
	assert.Equal(t, 5, count)
}

func TestValidateStatus(t *testing.T) {
	assert.NoError(t, validateStatus(models.ReservationStatusPending))
	assert.NoError(t, validateStatus(models.ReservationStatusFinished))
	assert.NoError(t, validateStatus(models.ReservationStatusCancelled))
	assert.Error(t, validateStatus("SHIPPED"))
	assert.Error(t, validateStatus(""))
}

func TestUpdateDetailValidation(t *testing.T) {
	// Full update path needs the store and Redis; covered by the
	// handler-level contract tests and integration environments.
	t.Skip("Requires database and Redis")
}
