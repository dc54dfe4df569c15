package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Kariqs/megano-api/events"
	"github.com/Kariqs/megano-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceipts struct {
	sent []models.Order
	err  error
}

func (f *fakeReceipts) SendReceipt(order models.Order) error {
	f.sent = append(f.sent, order)
	return f.err
}

func confirmedOrder(t *testing.T, h *harness) (Caller, *models.Order) {
	t.Helper()
	caller := h.user(t, "alice")
	order := h.promoted(t, caller)
	confirmed, err := h.orders.Confirm(context.Background(), caller, order.ID, ConfirmInput{
		FullName: ptr("Alice Smith"),
		Email:    ptr("alice@example.com"),
	})
	require.NoError(t, err)
	return caller, confirmed
}

func (h *harness) paymentStatuses(t *testing.T, orderID uint) []string {
	t.Helper()
	var statuses []string
	require.NoError(t, h.db.Model(&models.Payment{}).Where("order_id = ?", orderID).Order("id").Pluck("status", &statuses).Error)
	return statuses
}

func (h *harness) orderStatus(t *testing.T, orderID uint) string {
	t.Helper()
	var order models.Order
	require.NoError(t, h.db.First(&order, orderID).Error)
	return order.Status
}

func TestJudgeNumber(t *testing.T) {
	tests := map[string]paymentOutcome{
		"12345678":                   paymentAccepted,
		"1234 5678":                  paymentAccepted,
		"2":                          paymentAccepted,
		"99999999999999999999999998": paymentAccepted,
		"12345679":                   paymentRejected,
		"12345670":                   paymentRejected,
		"0":                          paymentRejected,
		"":                           paymentMalformed,
		"   ":                        paymentMalformed,
		"1234-5678":                  paymentMalformed,
		"abcd":                       paymentMalformed,
	}
	for number, want := range tests {
		assert.Equalf(t, want, judgeNumber(number), "number %q", number)
	}
}

func TestPayEvenNumberSucceeds(t *testing.T) {
	h := newHarness(t)
	receipts := &fakeReceipts{}
	h.payments = NewPaymentService(h.db, h.events, receipts)
	caller, order := confirmedOrder(t, h)

	paid, err := h.payments.Pay(context.Background(), caller, order.ID, PaymentInput{Number: "12345678", Name: "Alice", Month: "02", Year: "2030", Code: "123"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaid, paid.Status)
	assert.Equal(t, models.StatusPaid, h.orderStatus(t, order.ID))
	assert.Equal(t, []string{models.PaymentCompleted}, h.paymentStatuses(t, order.ID))
	assert.Contains(t, h.events.Types(), events.OrderPaid)

	require.Len(t, receipts.sent, 1)
	assert.Equal(t, order.ID, receipts.sent[0].ID)
	assert.Len(t, receipts.sent[0].Lines, 2)
}

func TestPayOddNumberIsRejected(t *testing.T) {
	h := newHarness(t)
	h.payments.pick = func(int) int { return 2 }
	caller, order := confirmedOrder(t, h)

	_, err := h.payments.Pay(context.Background(), caller, order.ID, PaymentInput{Number: "12345679"})

	require.ErrorIs(t, err, ErrPaymentRejected)
	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, "Insufficient funds", rejection.Reason)
	assert.Equal(t, models.StatusCancelled, h.orderStatus(t, order.ID))
	assert.Equal(t, []string{models.PaymentFailed}, h.paymentStatuses(t, order.ID))
	assert.Contains(t, h.events.Types(), events.OrderCancelled)
}

func TestPayRoundNumberIsRejected(t *testing.T) {
	h := newHarness(t)
	caller, order := confirmedOrder(t, h)

	_, err := h.payments.Pay(context.Background(), caller, order.ID, PaymentInput{Number: "12345670"})

	assert.ErrorIs(t, err, ErrPaymentRejected)
	assert.Contains(t, rejectionReasons, err.Error())
	assert.Equal(t, models.StatusCancelled, h.orderStatus(t, order.ID))
	assert.Equal(t, []string{models.PaymentFailed}, h.paymentStatuses(t, order.ID))
}

func TestPayMalformedNumberLeavesOrderAlone(t *testing.T) {
	h := newHarness(t)
	caller, order := confirmedOrder(t, h)
	ctx := context.Background()

	for _, number := range []string{"4111-1111", ""} {
		_, err := h.payments.Pay(ctx, caller, order.ID, PaymentInput{Number: number})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "Invalid number format", validationErr.Fields["number"])
	}

	assert.Equal(t, models.StatusConfirmed, h.orderStatus(t, order.ID))
	assert.Equal(t, []string{models.PaymentFailed, models.PaymentFailed}, h.paymentStatuses(t, order.ID))
	assert.Contains(t, h.events.Types(), events.PaymentInvalid)
}

func TestPayTwiceIsRefused(t *testing.T) {
	h := newHarness(t)
	caller, order := confirmedOrder(t, h)
	ctx := context.Background()

	_, err := h.payments.Pay(ctx, caller, order.ID, PaymentInput{Number: "12345678"})
	require.NoError(t, err)

	_, err = h.payments.Pay(ctx, caller, order.ID, PaymentInput{Number: "12345679"})
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, models.StatusPaid, h.orderStatus(t, order.ID))
	assert.Len(t, h.paymentStatuses(t, order.ID), 1)
}

func TestPayRetryAfterRejection(t *testing.T) {
	h := newHarness(t)
	caller, order := confirmedOrder(t, h)
	ctx := context.Background()

	_, err := h.payments.Pay(ctx, caller, order.ID, PaymentInput{Number: "11"})
	require.ErrorIs(t, err, ErrPaymentRejected)

	_, err = h.payments.Pay(ctx, caller, order.ID, PaymentInput{Number: "22"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaid, h.orderStatus(t, order.ID))
	assert.Equal(t, []string{models.PaymentFailed, models.PaymentCompleted}, h.paymentStatuses(t, order.ID))
}

func TestPayReceiptFailureDoesNotFailPayment(t *testing.T) {
	h := newHarness(t)
	h.payments = NewPaymentService(h.db, h.events, &fakeReceipts{err: errors.New("smtp down")})
	caller, order := confirmedOrder(t, h)

	_, err := h.payments.Pay(context.Background(), caller, order.ID, PaymentInput{Number: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, h.orderStatus(t, order.ID))
}

func TestPayForeignOrder(t *testing.T) {
	h := newHarness(t)
	_, order := confirmedOrder(t, h)
	other := h.user(t, "bob")

	_, err := h.payments.Pay(context.Background(), other, order.ID, PaymentInput{Number: "12345678"})

	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, h.paymentStatuses(t, order.ID))
	assert.Equal(t, models.StatusConfirmed, h.orderStatus(t, order.ID))
}

func TestPaymentStatus(t *testing.T) {
	h := newHarness(t)
	caller, order := confirmedOrder(t, h)
	ctx := context.Background()

	status, err := h.payments.Status(ctx, caller, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, status)

	_, err = h.payments.Pay(ctx, caller, order.ID, PaymentInput{Number: "12345678"})
	require.NoError(t, err)
	status, err = h.payments.Status(ctx, caller, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, status)

	_, err = h.payments.Status(ctx, h.user(t, "bob"), order.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
