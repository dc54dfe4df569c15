package services

import (
	"testing"

	"github.com/Kariqs/megano-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeliveryFee(t *testing.T) {
	tests := []struct {
		delivery string
		subtotal string
		want     string
	}{
		{models.DeliveryExpress, "0", "500"},
		{models.DeliveryExpress, "100000", "500"},
		{models.DeliveryOrdinary, "1999.99", "200"},
		{models.DeliveryOrdinary, "2000", "0"},
		{models.DeliveryOrdinary, "2000.01", "0"},
		{models.DeliveryOrdinary, "0", "200"},
	}
	for _, tt := range tests {
		got := DeliveryFee(tt.delivery, decimal.RequireFromString(tt.subtotal))
		assert.Truef(t, got.Equal(decimal.RequireFromString(tt.want)),
			"fee(%s, %s) = %s, want %s", tt.delivery, tt.subtotal, got, tt.want)
	}
}

func TestNormalizeDeliveryType(t *testing.T) {
	assert.Equal(t, models.DeliveryOrdinary, NormalizeDeliveryType("free"))
	assert.Equal(t, models.DeliveryExpress, NormalizeDeliveryType("express"))
	assert.Equal(t, models.DeliveryOrdinary, NormalizeDeliveryType(""))
	assert.Equal(t, models.DeliveryOrdinary, NormalizeDeliveryType("teleport"))
}

func TestNormalizePaymentType(t *testing.T) {
	assert.Equal(t, models.PaymentSomeone, NormalizePaymentType("random"))
	assert.Equal(t, models.PaymentSomeone, NormalizePaymentType("someone"))
	assert.Equal(t, models.PaymentOnline, NormalizePaymentType("online"))
	assert.Equal(t, models.PaymentOnline, NormalizePaymentType("cash"))
}

func TestOrderTotal(t *testing.T) {
	lines := []models.OrderLine{
		{Quantity: 2, Price: decimal.NewFromInt(100)},
		{Quantity: 1, Price: decimal.NewFromInt(50)},
	}
	assert.True(t, orderTotal(models.DeliveryOrdinary, lines).Equal(decimal.NewFromInt(450)))
	assert.True(t, orderTotal(models.DeliveryExpress, lines).Equal(decimal.NewFromInt(750)))

	big := []models.OrderLine{{Quantity: 4, Price: decimal.NewFromInt(500)}}
	assert.True(t, orderTotal(models.DeliveryOrdinary, big).Equal(decimal.NewFromInt(2000)))
}
