package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/Kariqs/megano-api/events"
	"github.com/Kariqs/megano-api/metrics"
	"github.com/Kariqs/megano-api/models"
	"github.com/Kariqs/megano-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxIdempotencyKeyLength = 64

var errDuplicatePromotion = errors.New("order already promoted")

type OrderService struct {
	db     *gorm.DB
	events events.Publisher
}

func NewOrderService(db *gorm.DB, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{db: db, events: publisher}
}

type PromoteResult struct {
	Order *models.Order
	// Skipped lists basket products that are gone or inactive and were left out of the order.
	Skipped []uint
	// Replayed is set when an earlier promotion with the same idempotency key or basket
	// generation is returned instead of a new order.
	Replayed bool
}

// Promote turns the caller's basket into an order in the created status. The basket is
// locked, copied and deleted in one transaction, and the order keeps the basket's token in
// a unique column so a basket generation can only ever become one order.
func (s *OrderService) Promote(ctx context.Context, caller Caller, idempotencyKey string) (*PromoteResult, error) {
	start := time.Now()
	if !caller.Authenticated() {
		return nil, fmt.Errorf("checkout requires an account: %w", ErrAccessDenied)
	}
	if utf8.RuneCountInString(idempotencyKey) > maxIdempotencyKeyLength {
		return nil, NewValidationError("idempotencyKey", fmt.Sprintf("must be at most %d characters", maxIdempotencyKeyLength))
	}

	var (
		result      *PromoteResult
		basketToken string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if idempotencyKey != "" {
			existing, err := s.findByIdempotencyKey(tx, caller.UserID, idempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				result = &PromoteResult{Order: existing, Replayed: true}
				return nil
			}
		}

		basket, err := findBasket(tx, caller.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoBasket
		}
		if err != nil {
			return fmt.Errorf("load basket: %w", err)
		}
		basketToken = basket.BasketToken

		var lines []models.OrderLine
		if err := tx.Where("order_id = ?", basket.ID).Order("id").Find(&lines).Error; err != nil {
			return fmt.Errorf("load basket lines: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyBasket
		}

		kept, skipped, err := orderableLines(tx, lines)
		if err != nil {
			return err
		}
		if len(kept) == 0 {
			return fmt.Errorf("%w: none of the products are available", ErrEmptyBasket)
		}

		userID := caller.UserID
		order := models.Order{
			UserID:       &userID,
			Status:       models.StatusCreated,
			DeliveryType: models.DeliveryOrdinary,
			PaymentType:  models.PaymentOnline,
			TotalCost:    orderTotal(models.DeliveryOrdinary, kept),
		}
		if basket.BasketToken != "" {
			token := basket.BasketToken
			order.SourceBasket = &token
		}
		if idempotencyKey != "" {
			key := idempotencyKey
			order.IdempotencyKey = &key
		}
		if err := tx.Create(&order).Error; err != nil {
			if isUniqueViolation(err) {
				return errDuplicatePromotion
			}
			return fmt.Errorf("create order: %w", err)
		}

		for i := range kept {
			kept[i].ID = 0
			kept[i].OrderID = order.ID
			kept[i].CreatedAt = time.Time{}
			kept[i].UpdatedAt = time.Time{}
		}
		if err := tx.Omit("Product").Create(&kept).Error; err != nil {
			return fmt.Errorf("copy basket lines: %w", err)
		}

		if err := tx.Where("order_id = ?", basket.ID).Delete(&models.OrderLine{}).Error; err != nil {
			return fmt.Errorf("clear basket lines: %w", err)
		}
		if err := tx.Unscoped().Delete(basket).Error; err != nil {
			return fmt.Errorf("delete basket: %w", err)
		}

		order.Lines = kept
		result = &PromoteResult{Order: &order, Skipped: skipped}
		return nil
	})
	if errors.Is(err, errDuplicatePromotion) {
		existing, lookupErr := s.findPromoted(ctx, caller.UserID, idempotencyKey, basketToken)
		if lookupErr != nil {
			return nil, lookupErr
		}
		result = &PromoteResult{Order: existing, Replayed: true}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	if !result.Replayed {
		s.transitioned(ctx, events.OrderPromoted, result.Order, start, fmt.Sprintf("skipped=%v", result.Skipped))
	}
	return result, nil
}

// orderableLines splits basket lines into those whose product can still be ordered and the
// ids of those that cannot.
func orderableLines(tx *gorm.DB, lines []models.OrderLine) ([]models.OrderLine, []uint, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	var active []uint
	err := tx.Model(&models.Product{}).
		Where("id IN ? AND is_active = ?", ids, true).
		Pluck("id", &active).Error
	if err != nil {
		return nil, nil, fmt.Errorf("load basket products: %w", err)
	}
	available := make(map[uint]bool, len(active))
	for _, id := range active {
		available[id] = true
	}

	kept := make([]models.OrderLine, 0, len(lines))
	skipped := []uint{}
	for _, line := range lines {
		if available[line.ProductID] {
			kept = append(kept, line)
		} else {
			skipped = append(skipped, line.ProductID)
		}
	}
	return kept, skipped, nil
}

func (s *OrderService) findByIdempotencyKey(tx *gorm.DB, userID uint, key string) (*models.Order, error) {
	var order models.Order
	err := tx.Preload("Lines").Where("user_id = ? AND idempotency_key = ?", userID, key).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load order by idempotency key: %w", err)
	}
	return &order, nil
}

// findPromoted loads the order that won a concurrent promotion.
func (s *OrderService) findPromoted(ctx context.Context, userID uint, key, basketToken string) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	if key != "" {
		order, err := s.findByIdempotencyKey(db, userID, key)
		if err != nil || order != nil {
			return order, err
		}
	}
	var order models.Order
	err := db.Preload("Lines").Where("source_basket = ?", basketToken).Take(&order).Error
	if err != nil {
		return nil, notFoundOr(err, "order")
	}
	return &order, nil
}

// ConfirmInput holds the customer details of a confirmation. Nil fields keep their current
// value. Delivery and Pay are older names for DeliveryType and PaymentType.
type ConfirmInput struct {
	FullName     *string
	Email        *string
	Phone        *string
	City         *string
	Address      *string
	Comment      *string
	DeliveryType *string
	PaymentType  *string
	Delivery     *string
	Pay          *string
}

func firstSupplied(values ...*string) (string, bool) {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v, true
		}
	}
	return "", false
}

// Confirm stores the customer details, recomputes the total from the order lines and sets
// the status to confirmed whatever it was before.
func (s *OrderService) Confirm(ctx context.Context, caller Caller, orderID uint, input ConfirmInput) (*models.Order, error) {
	start := time.Now()
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrderFor(tx, caller, orderID, true)
		if err != nil {
			return err
		}

		assign := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		assign(&order.FullName, input.FullName)
		assign(&order.Email, input.Email)
		assign(&order.Phone, input.Phone)
		assign(&order.City, input.City)
		assign(&order.Address, input.Address)
		assign(&order.Comment, input.Comment)

		if value, ok := firstSupplied(input.DeliveryType, input.Delivery); ok {
			order.DeliveryType = NormalizeDeliveryType(value)
		} else {
			order.DeliveryType = NormalizeDeliveryType(order.DeliveryType)
		}
		if value, ok := firstSupplied(input.PaymentType, input.Pay); ok {
			order.PaymentType = NormalizePaymentType(value)
		} else {
			order.PaymentType = NormalizePaymentType(order.PaymentType)
		}

		var lines []models.OrderLine
		if err := tx.Where("order_id = ?", order.ID).Order("id").Find(&lines).Error; err != nil {
			return fmt.Errorf("load order lines: %w", err)
		}
		order.TotalCost = orderTotal(order.DeliveryType, lines)
		order.Status = models.StatusConfirmed
		order.Lines = lines

		err = tx.Model(order).
			Select("FullName", "Email", "Phone", "City", "Address", "Comment", "DeliveryType", "PaymentType", "TotalCost", "Status").
			Updates(order).Error
		if err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, events.OrderConfirmed, order, start, "")
	return order, nil
}

// loadOrderFor loads an order the caller may see. Basket rows never count as orders, and a
// caller who is not staff cannot tell a missing order from someone else's.
func loadOrderFor(tx *gorm.DB, caller Caller, orderID uint, lock bool) (*models.Order, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	err := q.Where("id = ? AND status <> ?", orderID, models.StatusAccepted).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if caller.Staff {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("order %d: %w", orderID, ErrAccessDenied)
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if !caller.canAccess(order) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrAccessDenied)
	}
	return &order, nil
}

func preloadOrderDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Lines.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Lines.Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// Get returns one order with its lines.
func (s *OrderService) Get(ctx context.Context, caller Caller, orderID uint) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	if _, err := loadOrderFor(db, caller, orderID, false); err != nil {
		return nil, err
	}
	var order models.Order
	if err := preloadOrderDetail(db).Take(&order, orderID).Error; err != nil {
		return nil, notFoundOr(err, "order")
	}
	return &order, nil
}

// ListMine returns the caller's orders, newest first. Baskets are never included.
func (s *OrderService) ListMine(ctx context.Context, caller Caller) ([]models.Order, error) {
	if !caller.Authenticated() {
		return nil, fmt.Errorf("listing orders requires an account: %w", ErrAccessDenied)
	}
	var orders []models.Order
	err := preloadOrderDetail(s.db.WithContext(ctx)).
		Where("user_id = ? AND status <> ?", caller.UserID, models.StatusAccepted).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

type OrderFilter struct {
	Page   int
	Limit  int
	Status string
	Desc   bool
}

// List is the staff view over every order.
func (s *OrderService) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 15
	}

	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("status <> ?", models.StatusAccepted)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	direction := "asc"
	if filter.Desc {
		direction = "desc"
	}
	var orders []models.Order
	err := preloadOrderDetail(query).
		Order("created_at " + direction).
		Order("id " + direction).
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

var settableStatuses = map[string]bool{
	models.StatusCreated:   true,
	models.StatusConfirmed: true,
	models.StatusPaid:      true,
	models.StatusDelivered: true,
	models.StatusCancelled: true,
}

// UpdateStatus is the staff override. It cannot turn an order back into a basket.
func (s *OrderService) UpdateStatus(ctx context.Context, caller Caller, orderID uint, status string) (*models.Order, error) {
	if !settableStatuses[status] {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	start := time.Now()
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrderFor(tx, caller, orderID, true)
		if err != nil {
			return err
		}
		order.Status = status
		return tx.Model(order).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}

	utils.LogEvent(utils.LogFields{
		Service:    "orders",
		OrderID:    order.ID,
		UserID:     caller.UserID,
		Step:       "status_override",
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
	})
	metrics.Transitions.WithLabelValues(status).Inc()
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, caller Caller, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderFor(tx, caller, orderID, true)
		if err != nil {
			return err
		}
		if err := tx.Delete(order).Error; err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
}

// CountUndelivered counts paid orders still waiting for delivery.
func (s *OrderService) CountUndelivered(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).Where("status = ?", models.StatusPaid).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count undelivered orders: %w", err)
	}
	return count, nil
}

// transitioned records a committed state change: a log line, a counter and an event.
func (s *OrderService) transitioned(ctx context.Context, eventType string, order *models.Order, start time.Time, message string) {
	var userID uint
	if order.UserID != nil {
		userID = *order.UserID
	}
	utils.LogEvent(utils.LogFields{
		Service:    "orders",
		OrderID:    order.ID,
		UserID:     userID,
		Step:       eventType,
		Status:     order.Status,
		DurationMS: time.Since(start).Milliseconds(),
		Message:    message,
	})
	metrics.Transitions.WithLabelValues(order.Status).Inc()

	event := events.New(eventType, order.ID, userID, order.Status, order.TotalCost.StringFixed(2))
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("publish %s for order %d: %v", eventType, order.ID, err)
	}
}

// OrderDetail renders an order for the frontend.
func OrderDetail(order models.Order) models.OrderView {
	products := make([]models.OrderProductView, 0, len(order.Lines))
	for _, line := range order.Lines {
		product := line.Product
		images := imageViews(product.Images, product.Title)
		if len(images) > 1 {
			images = images[:1]
		}
		products = append(products, models.OrderProductView{
			ID:               line.ProductID,
			Category:         product.CategoryID,
			Title:            product.Title,
			Description:      product.Description,
			Price:            line.Price.InexactFloat64(),
			Count:            line.Quantity,
			Date:             product.CreatedAt.Format(models.DisplayDateLayout),
			Images:           images,
			ShortDescription: shortDescription(product.Description),
		})
	}

	return models.OrderView{
		ID:           order.ID,
		OrderID:      order.ID,
		CreatedAt:    order.CreatedAt,
		FullName:     order.FullName,
		Email:        order.Email,
		Phone:        order.Phone,
		DeliveryType: order.DeliveryLabel(),
		PaymentType:  order.PaymentLabel(),
		City:         order.City,
		Address:      order.Address,
		Status:       order.StatusLabel(),
		TotalCost:    order.TotalCost.InexactFloat64(),
		Products:     products,
		Comment:      order.Comment,
	}
}

func shortDescription(description string) string {
	if description == "" {
		return ""
	}
	runes := []rune(description)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes) + "..."
}
