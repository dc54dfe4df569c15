package services

import (
	"context"
	"testing"

	"github.com/Kariqs/megano-api/models"
	"github.com/Kariqs/megano-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasketAddThenRemoveAllIsEmpty(t *testing.T) {
	h := newHarness(t)
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	ctx := context.Background()

	for name, caller := range map[string]Caller{
		"user":      h.user(t, "alice"),
		"anonymous": {SessionID: "session-1"},
	} {
		t.Run(name, func(t *testing.T) {
			items := h.add(t, caller, product.ID, 3)
			require.Len(t, items, 1)
			assert.Equal(t, 3, items[0].Count)

			items, err := h.baskets.Remove(ctx, caller, product.ID, 3)
			require.NoError(t, err)
			assert.Empty(t, items)

			items, err = h.baskets.Get(ctx, caller)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestBasketAddAccumulatesAndKeepsFirstPrice(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	product := testutil.CreateProduct(t, h.db, "Phone", "100")

	h.add(t, caller, product.ID, 2)
	testutil.SetPrice(t, h.db, product.ID, "130")
	items := h.add(t, caller, product.ID, 3)

	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Count)
	assert.Equal(t, 100.0, items[0].Price)
}

func TestAnonymousBasketUsesCatalogPrice(t *testing.T) {
	h := newHarness(t)
	caller := Caller{SessionID: "session-1"}
	product := testutil.CreateProduct(t, h.db, "Phone", "100")

	h.add(t, caller, product.ID, 1)
	testutil.SetPrice(t, h.db, product.ID, "130")

	items, err := h.baskets.Get(context.Background(), caller)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 130.0, items[0].Price)
}

func TestBasketRemovePartial(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	h.add(t, caller, product.ID, 5)

	items, err := h.baskets.Remove(context.Background(), caller, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Count)

	items, err = h.baskets.Remove(context.Background(), caller, product.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBasketRemoveWithoutBasketIsNoop(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")

	items, err := h.baskets.Remove(context.Background(), caller, 42, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, h.countRows(t, &models.Order{}, "status = ?", models.StatusAccepted))
}

func TestBasketAddUnknownProduct(t *testing.T) {
	h := newHarness(t)
	_, err := h.baskets.Add(context.Background(), h.user(t, "alice"), 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBasketAddRejectsNonPositiveCount(t *testing.T) {
	h := newHarness(t)
	product := testutil.CreateProduct(t, h.db, "Phone", "100")

	_, err := h.baskets.Add(context.Background(), h.user(t, "alice"), product.ID, 0)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "count")
}

func TestAnonymousBasketNeedsSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.baskets.Get(context.Background(), Caller{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserHasOneOpenBasket(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	a := testutil.CreateProduct(t, h.db, "Phone", "100")
	b := testutil.CreateProduct(t, h.db, "Case", "50")

	h.add(t, caller, a.ID, 1)
	items := h.add(t, caller, b.ID, 1)

	assert.Len(t, items, 2)
	assert.EqualValues(t, 1, h.countRows(t, &models.Order{}, "status = ? AND user_id = ?", models.StatusAccepted, caller.UserID))
}

func TestBasketSkipsDeletedProducts(t *testing.T) {
	h := newHarness(t)
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	kept := testutil.CreateProduct(t, h.db, "Case", "50")
	callers := map[string]Caller{
		"user":      h.user(t, "alice"),
		"anonymous": {SessionID: "session-1"},
	}

	for _, caller := range callers {
		h.add(t, caller, product.ID, 1)
		h.add(t, caller, kept.ID, 1)
	}
	require.NoError(t, h.db.Delete(&models.Product{}, product.ID).Error)

	for name, caller := range callers {
		t.Run(name, func(t *testing.T) {
			items, err := h.baskets.Get(context.Background(), caller)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, kept.ID, items[0].ID)
		})
	}
}

func TestBasketViewCarriesProductData(t *testing.T) {
	h := newHarness(t)
	caller := h.user(t, "alice")
	product := testutil.CreateProduct(t, h.db, "Phone", "100")
	require.NoError(t, h.db.Create(&models.ProductImage{ProductID: product.ID, Src: "products/phone.png"}).Error)
	require.NoError(t, h.db.Create(&models.Review{ProductID: product.ID, Text: "good", Rate: 5}).Error)

	items := h.add(t, caller, product.ID, 1)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "Phone", item.Title)
	assert.Equal(t, product.CategoryID, item.Category)
	assert.EqualValues(t, 1, item.Reviews)
	require.Len(t, item.Images, 1)
	assert.Equal(t, "/media/products/phone.png", item.Images[0].Src)
	assert.NotNil(t, item.Tags)
}
