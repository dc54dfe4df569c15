package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Kariqs/megano-api/events"
	"github.com/Kariqs/megano-api/models"
	"github.com/Kariqs/megano-api/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteComputesTotalAndDeletesBasket(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")

	order := h.promoted(t, caller)

	assert.Equal(t, models.StatusCreated, order.Status)
	assert.True(t, order.TotalCost.Equal(decimal.NewFromInt(450)), "total %s", order.TotalCost)
	assert.Empty(t, order.FullName)
	require.Len(t, order.Lines, 2)
	assert.Zero(t, h.countRows(t, &models.Order{}, "status = ?", models.StatusAccepted))
	assert.EqualValues(t, 2, h.countRows(t, &models.OrderLine{}, "order_id = ?", order.ID))
	assert.Equal(t, []string{events.OrderPromoted}, h.events.Types())

	items, err := h.baskets.Get(context.Background(), caller)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPromoteKeepsSnapshotPrice(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	h.add(t, caller, product.ID, 1)
	testutil.SetPrice(t, h.db, product.ID, "999")

	result, err := h.orders.Promote(context.Background(), caller, "")
	require.NoError(t, err)

	require.Len(t, result.Order.Lines, 1)
	assert.True(t, result.Order.Lines[0].Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Order.TotalCost.Equal(decimal.NewFromInt(300)))
}

func TestPromoteWithoutBasket(t *testing.T) {
	h := newHarness(t)
	_, err := h.orders.Promote(context.Background(), h.user(t, "alice"), "")
	assert.ErrorIs(t, err, ErrNoBasket)
}

func TestPromoteEmptyBasket(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	h.add(t, caller, product.ID, 1)
	_, err := h.baskets.Remove(context.Background(), caller, product.ID, 1)
	require.NoError(t, err)

	_, err = h.orders.Promote(context.Background(), caller, "")
	assert.ErrorIs(t, err, ErrEmptyBasket)
}

func TestPromoteRequiresAccount(t *testing.T) {
	h := newHarness(t)
	_, err := h.orders.Promote(context.Background(), Caller{SessionID: "session-1"}, "")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestPromoteSkipsInactiveProducts(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	a := testutil.CreateProduct(t, h.db, "Phone", "100")
	b := testutil.CreateProduct(t, h.db, "Case", "50")
	h.add(t, caller, a.ID, 2)
	h.add(t, caller, b.ID, 1)
	require.NoError(t, h.db.Model(&models.Product{}).Where("id = ?", b.ID).Update("is_active", false).Error)

	result, err := h.orders.Promote(context.Background(), caller, "")
	require.NoError(t, err)

	assert.Equal(t, []uint{b.ID}, result.Skipped)
	require.Len(t, result.Order.Lines, 1)
	assert.Equal(t, a.ID, result.Order.Lines[0].ProductID)
	assert.True(t, result.Order.TotalCost.Equal(decimal.NewFromInt(400)))
}

func TestPromoteKeepsBasketWhenNothingIsOrderable(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	h.add(t, caller, product.ID, 1)
	require.NoError(t, h.db.Delete(&models.Product{}, product.ID).Error)

	_, err := h.orders.Promote(context.Background(), caller, "")
	assert.ErrorIs(t, err, ErrEmptyBasket)
	assert.EqualValues(t, 1, h.countRows(t, &models.Order{}, "status = ?", models.StatusAccepted))
	assert.Empty(t, h.events.Types())
}

func TestPromoteReplaysIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	ctx := context.Background()

	h.add(t, caller, product.ID, 1)
	first, err := h.orders.Promote(ctx, caller, "checkout-1")
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	h.add(t, caller, product.ID, 4)
	again, err := h.orders.Promote(ctx, caller, "checkout-1")
	require.NoError(t, err)

	assert.True(t, again.Replayed)
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.EqualValues(t, 1, h.countRows(t, &models.Order{}, "status = ?", models.StatusAccepted))
	assert.Equal(t, []string{events.OrderPromoted}, h.events.Types())

	fresh, err := h.orders.Promote(ctx, caller, "checkout-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.Order.ID, fresh.Order.ID)
}

func TestPromoteRejectsLongIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	key := strings.Repeat("k", 65)
	_, err := h.orders.Promote(context.Background(), h.user(t, "alice"), key)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSecondPromoteFindsNoBasket(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	h.promoted(t, caller)

	_, err := h.orders.Promote(context.Background(), caller, "")
	assert.ErrorIs(t, err, ErrNoBasket)
}

func TestConfirmAliasesAndRecomputes(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	order := h.promoted(t, caller)

	confirmed, err := h.orders.Confirm(context.Background(), caller, order.ID, ConfirmInput{
		FullName:     ptr("Alice Smith"),
		Email:        ptr("alice@example.com"),
		City:         ptr("Moscow"),
		DeliveryType: ptr("free"),
		PaymentType:  ptr("random"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.Equal(t, models.DeliveryOrdinary, confirmed.DeliveryType)
	assert.Equal(t, models.PaymentSomeone, confirmed.PaymentType)
	assert.True(t, confirmed.TotalCost.Equal(decimal.NewFromInt(450)))

	var stored models.Order
	require.NoError(t, h.db.First(&stored, order.ID).Error)
	assert.Equal(t, "Alice Smith", stored.FullName)
	assert.Equal(t, "Moscow", stored.City)
	assert.Equal(t, models.DeliveryOrdinary, stored.DeliveryType)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestConfirmExpressAndLegacyKeys(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	order := h.promoted(t, caller)

	confirmed, err := h.orders.Confirm(context.Background(), caller, order.ID, ConfirmInput{
		Delivery: ptr("express"),
		Pay:      ptr("someone"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.DeliveryExpress, confirmed.DeliveryType)
	assert.Equal(t, models.PaymentSomeone, confirmed.PaymentType)
	assert.True(t, confirmed.TotalCost.Equal(decimal.NewFromInt(750)))
}

func TestConfirmKeepsUnsuppliedFields(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	order := h.promoted(t, caller)
	ctx := context.Background()

	_, err := h.orders.Confirm(ctx, caller, order.ID, ConfirmInput{
		FullName:     ptr("Alice Smith"),
		Phone:        ptr("+70000000000"),
		DeliveryType: ptr("express"),
	})
	require.NoError(t, err)

	again, err := h.orders.Confirm(ctx, caller, order.ID, ConfirmInput{City: ptr("Kazan"), DeliveryType: ptr("")})
	require.NoError(t, err)

	assert.Equal(t, "Alice Smith", again.FullName)
	assert.Equal(t, "+70000000000", again.Phone)
	assert.Equal(t, "Kazan", again.City)
	assert.Equal(t, models.DeliveryExpress, again.DeliveryType)
	assert.Equal(t, models.StatusConfirmed, again.Status)
}

func TestConfirmIgnoresLivePrices(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	order := h.promoted(t, caller)
	for _, line := range order.Lines {
		testutil.SetPrice(t, h.db, line.ProductID, "5000")
	}

	confirmed, err := h.orders.Confirm(context.Background(), caller, order.ID, ConfirmInput{})
	require.NoError(t, err)
	assert.True(t, confirmed.TotalCost.Equal(decimal.NewFromInt(450)))
}

func TestOrderAccessControl(t *testing.T) {
	h := newHarness(t)
	owner := h.user(t, "alice")
	other := h.user(t, "bob")
	staff := h.staff(t)
	order := h.promoted(t, owner)
	ctx := context.Background()

	_, err := h.orders.Get(ctx, other, order.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = h.orders.Get(ctx, other, 9999)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = h.orders.Confirm(ctx, other, order.ID, ConfirmInput{FullName: ptr("Mallory")})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = h.orders.Get(ctx, staff, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := h.orders.Get(ctx, staff, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	got, err = h.orders.Get(ctx, owner, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Phone", got.Lines[0].Product.Title)
}

func TestBasketRowIsNotAnOrder(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	h.add(t, caller, product.ID, 1)

	var basket models.Order
	require.NoError(t, h.db.Where("status = ?", models.StatusAccepted).Take(&basket).Error)

	_, err := h.orders.Get(context.Background(), caller, basket.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestListMineExcludesBaskets(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	other := h.user(t, "bob")
	first := h.promoted(t, caller)
	second := h.promoted(t, caller)
	h.promoted(t, other)

	product := testutil.CreateProduct(t, h.db, "Cable", "10")
	h.add(t, caller, product.ID, 1)

	orders, err := h.orders.ListMine(context.Background(), caller)
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	for _, order := range orders {
		assert.NotEqual(t, models.StatusAccepted, order.Status)
	}
}

func TestStaffListUpdateDelete(t *testing.T) {
	h := newHarness(t)
	staff := h.staff(t)
	caller := h.user(t, "alice")
	for i := 0; i < 3; i++ {
		h.promoted(t, caller)
	}
	product := testutil.CreateProduct(t, h.db, "Cable", "10")
	h.add(t, caller, product.ID, 1)
	ctx := context.Background()

	orders, total, err := h.orders.List(ctx, OrderFilter{Page: 1, Limit: 2, Desc: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, orders, 2)

	target := orders[0]
	_, err = h.orders.UpdateStatus(ctx, staff, target.ID, models.StatusPaid)
	require.NoError(t, err)
	count, err := h.orders.CountUndelivered(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = h.orders.UpdateStatus(ctx, staff, target.ID, models.StatusDelivered)
	require.NoError(t, err)
	count, err = h.orders.CountUndelivered(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = h.orders.UpdateStatus(ctx, staff, target.ID, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, h.orders.Delete(ctx, staff, target.ID))
	_, total, err = h.orders.List(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestOrderDetailView(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	order := h.promoted(t, caller)
	_, err := h.orders.Confirm(context.Background(), caller, order.ID, ConfirmInput{DeliveryType: ptr("express")})
	require.NoError(t, err)

	loaded, err := h.orders.Get(context.Background(), caller, order.ID)
	require.NoError(t, err)
	view := OrderDetail(*loaded)

	assert.Equal(t, order.ID, view.OrderID)
	assert.Equal(t, "Express delivery", view.DeliveryType)
	assert.Equal(t, "Confirmed", view.Status)
	assert.Equal(t, 750.0, view.TotalCost)
	require.Len(t, view.Products, 2)
	assert.Equal(t, 100.0, view.Products[0].Price)
	assert.Equal(t, 2, view.Products[0].Count)
	assert.Equal(t, "Phone description...", view.Products[0].ShortDescription)
}
