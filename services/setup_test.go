package services

import (
	"context"
	"testing"

	"github.com/Kariqs/megano-api/events"
	"github.com/Kariqs/megano-api/models"
	"github.com/Kariqs/megano-api/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	db       *gorm.DB
	events   *events.Recorder
	catalog  *CatalogService
	baskets  *BasketService
	orders   *OrderService
	payments *PaymentService
	sessions *MemorySessionStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	recorder := &events.Recorder{}
	catalog := NewCatalogService(db, nil)
	sessions := NewMemorySessionStore()
	return &harness{
		db:       db,
		events:   recorder,
		catalog:  catalog,
		baskets:  NewBasketService(db, catalog, sessions),
		orders:   NewOrderService(db, recorder),
		payments: NewPaymentService(db, recorder, nil),
		sessions: sessions,
	}
}

func (h *harness) user(t *testing.T, name string) Caller {
	t.Helper()
	user := testutil.CreateUser(t, h.db, name, models.RoleUser)
	return Caller{UserID: user.ID}
}

func (h *harness) staff(t *testing.T) Caller {
	t.Helper()
	user := testutil.CreateUser(t, h.db, "staff", models.RoleAdmin)
	return Caller{UserID: user.ID, Staff: true}
}

func (h *harness) add(t *testing.T, caller Caller, productID uint, count int) []models.CartItem {
	t.Helper()
	items, err := h.baskets.Add(context.Background(), caller, productID, count)
	require.NoError(t, err)
	return items
}

// promoted fills a basket with two products (2 x 100, 1 x 50) and promotes it.
func (h *harness) promoted(t *testing.T, caller Caller) *models.Order {
	t.Helper()
	a := testutil.CreateProduct(t, h.db, "Phone", "100")
	b := testutil.CreateProduct(t, h.db, "Case", "50")
	h.add(t, caller, a.ID, 2)
	h.add(t, caller, b.ID, 1)

	result, err := h.orders.Promote(context.Background(), caller, "")
	require.NoError(t, err)
	return result.Order
}

func (h *harness) countRows(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func ptr(s string) *string {
	return &s
}
