package services

import (
	"github.com/Kariqs/megano-api/models"
	"github.com/shopspring/decimal"
)

var (
	expressDeliveryFee    = decimal.NewFromInt(500)
	ordinaryDeliveryFee   = decimal.NewFromInt(200)
	freeDeliveryThreshold = decimal.NewFromInt(2000)
)

// DeliveryFee is flat for express delivery; ordinary delivery is free from 2000 upwards.
func DeliveryFee(deliveryType string, subtotal decimal.Decimal) decimal.Decimal {
	if deliveryType == models.DeliveryExpress {
		return expressDeliveryFee
	}
	if subtotal.LessThan(freeDeliveryThreshold) {
		return ordinaryDeliveryFee
	}
	return decimal.Zero
}

// NormalizeDeliveryType maps "free" onto ordinary and anything unknown onto the default.
func NormalizeDeliveryType(value string) string {
	if value == models.DeliveryFree {
		value = models.DeliveryOrdinary
	}
	switch value {
	case models.DeliveryOrdinary, models.DeliveryExpress:
		return value
	}
	return models.DeliveryOrdinary
}

// NormalizePaymentType maps "random" onto someone and anything unknown onto the default.
func NormalizePaymentType(value string) string {
	if value == models.PaymentRandom {
		value = models.PaymentSomeone
	}
	switch value {
	case models.PaymentOnline, models.PaymentSomeone:
		return value
	}
	return models.PaymentOnline
}

func linesSubtotal(lines []models.OrderLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal
}

func orderTotal(deliveryType string, lines []models.OrderLine) decimal.Decimal {
	subtotal := linesSubtotal(lines)
	return subtotal.Add(DeliveryFee(deliveryType, subtotal))
}
