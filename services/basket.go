package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kariqs/megano-api/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BasketLine is one product in a basket. Price is the snapshot taken on the first add;
// nil means the basket does not snapshot prices and the catalog price applies.
type BasketLine struct {
	ProductID uint
	Quantity  int
	Price     *decimal.Decimal
}

// BasketRepository is one owner's basket. Authenticated users keep it as an order row
// in the accepted status, anonymous visitors keep it in their session.
type BasketRepository interface {
	Lines(ctx context.Context) ([]BasketLine, error)
	Add(ctx context.Context, product models.Product, quantity int) error
	Remove(ctx context.Context, productID uint, quantity int) error
}

// ProductStore resolves catalog products by id.
type ProductStore interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

type BasketService struct {
	db       *gorm.DB
	products ProductStore
	sessions SessionStore
}

func NewBasketService(db *gorm.DB, products ProductStore, sessions SessionStore) *BasketService {
	return &BasketService{db: db, products: products, sessions: sessions}
}

// For returns the basket that belongs to the caller.
func (s *BasketService) For(caller Caller) (BasketRepository, error) {
	if caller.Authenticated() {
		return &userBasket{db: s.db, userID: caller.UserID}, nil
	}
	if caller.SessionID == "" {
		return nil, NewValidationError("session", "an anonymous basket needs a session")
	}
	return &sessionBasket{store: s.sessions, sessionID: caller.SessionID}, nil
}

func (s *BasketService) Get(ctx context.Context, caller Caller) ([]models.CartItem, error) {
	basket, err := s.For(caller)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, basket)
}

func (s *BasketService) Add(ctx context.Context, caller Caller, productID uint, quantity int) ([]models.CartItem, error) {
	if quantity < 1 {
		return nil, NewValidationError("count", "must be at least 1")
	}
	basket, err := s.For(caller)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := basket.Add(ctx, *product, quantity); err != nil {
		return nil, err
	}
	return s.view(ctx, basket)
}

func (s *BasketService) Remove(ctx context.Context, caller Caller, productID uint, quantity int) ([]models.CartItem, error) {
	if quantity < 1 {
		return nil, NewValidationError("count", "must be at least 1")
	}
	basket, err := s.For(caller)
	if err != nil {
		return nil, err
	}
	if err := basket.Remove(ctx, productID, quantity); err != nil {
		return nil, err
	}
	return s.view(ctx, basket)
}

func (s *BasketService) view(ctx context.Context, basket BasketRepository) ([]models.CartItem, error) {
	lines, err := basket.Lines(ctx)
	if err != nil {
		return nil, err
	}
	return renderCart(ctx, s.db, lines)
}

type userBasket struct {
	db     *gorm.DB
	userID uint
}

// findBasket loads the user's open basket under a row lock.
func findBasket(tx *gorm.DB, userID uint) (*models.Order, error) {
	var basket models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("basket_owner_id = ? AND status = ?", userID, models.StatusAccepted).
		Take(&basket).Error
	if err != nil {
		return nil, err
	}
	return &basket, nil
}

// lockOrCreateBasket is an atomic get-or-create: the unique basket_owner_id index turns
// a concurrent insert into a no-op and both callers end up on the same row.
func lockOrCreateBasket(tx *gorm.DB, userID uint) (*models.Order, error) {
	basket, err := findBasket(tx, userID)
	if err == nil {
		return basket, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load basket: %w", err)
	}

	owner := userID
	fresh := models.Order{
		UserID:        &owner,
		BasketOwnerID: &owner,
		BasketToken:   uuid.NewString(),
		Status:        models.StatusAccepted,
		DeliveryType:  models.DeliveryOrdinary,
		PaymentType:   models.PaymentOnline,
		TotalCost:     decimal.Zero,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create basket: %w", err)
	}

	basket, err = findBasket(tx, userID)
	if err != nil {
		return nil, fmt.Errorf("load basket: %w", err)
	}
	return basket, nil
}

func (b *userBasket) Lines(ctx context.Context) ([]BasketLine, error) {
	var basket models.Order
	err := b.db.WithContext(ctx).
		Where("basket_owner_id = ? AND status = ?", b.userID, models.StatusAccepted).
		Take(&basket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load basket: %w", err)
	}

	var rows []models.OrderLine
	if err := b.db.WithContext(ctx).Where("order_id = ?", basket.ID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load basket lines: %w", err)
	}

	lines := make([]BasketLine, 0, len(rows))
	for _, row := range rows {
		price := row.Price
		lines = append(lines, BasketLine{ProductID: row.ProductID, Quantity: row.Quantity, Price: &price})
	}
	return lines, nil
}

func (b *userBasket) Add(ctx context.Context, product models.Product, quantity int) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := lockOrCreateBasket(tx, b.userID)
		if err != nil {
			return err
		}

		var line models.OrderLine
		err = tx.Where("order_id = ? AND product_id = ?", basket.ID, product.ID).Take(&line).Error
		switch {
		case err == nil:
			return tx.Model(&line).Update("quantity", gorm.Expr("quantity + ?", quantity)).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.OrderLine{
				OrderID:   basket.ID,
				ProductID: product.ID,
				Quantity:  quantity,
				Price:     product.Price,
			}).Error
		default:
			return fmt.Errorf("load basket line: %w", err)
		}
	})
}

func (b *userBasket) Remove(ctx context.Context, productID uint, quantity int) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := findBasket(tx, b.userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load basket: %w", err)
		}

		var line models.OrderLine
		err = tx.Where("order_id = ? AND product_id = ?", basket.ID, productID).Take(&line).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load basket line: %w", err)
		}

		if line.Quantity > quantity {
			return tx.Model(&line).Update("quantity", gorm.Expr("quantity - ?", quantity)).Error
		}
		return tx.Delete(&line).Error
	})
}

type sessionBasket struct {
	store     SessionStore
	sessionID string
}

func (b *sessionBasket) Lines(ctx context.Context) ([]BasketLine, error) {
	items, err := b.store.Load(ctx, b.sessionID)
	if err != nil {
		return nil, err
	}
	lines := make([]BasketLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, BasketLine{ProductID: item.ProductID, Quantity: item.Count})
	}
	return lines, nil
}

func (b *sessionBasket) Add(ctx context.Context, product models.Product, quantity int) error {
	return b.store.Update(ctx, b.sessionID, func(items []models.SessionCartItem) []models.SessionCartItem {
		for i := range items {
			if items[i].ProductID == product.ID {
				items[i].Count += quantity
				return items
			}
		}
		return append(items, models.SessionCartItem{ProductID: product.ID, Count: quantity})
	})
}

func (b *sessionBasket) Remove(ctx context.Context, productID uint, quantity int) error {
	return b.store.Update(ctx, b.sessionID, func(items []models.SessionCartItem) []models.SessionCartItem {
		kept := items[:0]
		for _, item := range items {
			if item.ProductID == productID {
				if item.Count <= quantity {
					continue
				}
				item.Count -= quantity
			}
			kept = append(kept, item)
		}
		return kept
	})
}
