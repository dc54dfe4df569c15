package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses. StatusAccepted marks a row that is still a basket and never an order.
const (
	StatusAccepted  = "accepted"
	StatusCreated   = "created"
	StatusConfirmed = "confirmed"
	StatusPaid      = "paid"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

const (
	DeliveryOrdinary = "ordinary"
	DeliveryExpress  = "express"
	DeliveryFree     = "free"

	PaymentOnline  = "online"
	PaymentSomeone = "someone"
	PaymentRandom  = "random"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

var statusLabels = map[string]string{
	StatusCreated:   "Created",
	StatusAccepted:  "Accepted",
	StatusConfirmed: "Confirmed",
	StatusPaid:      "Paid",
	StatusDelivered: "Delivered",
	StatusCancelled: "Cancelled",
}

var deliveryLabels = map[string]string{
	DeliveryOrdinary: "Ordinary delivery",
	DeliveryExpress:  "Express delivery",
	DeliveryFree:     "Free delivery",
}

var paymentLabels = map[string]string{
	PaymentOnline:  "Online card",
	PaymentSomeone: "Online from a random someone else's account",
	PaymentRandom:  "Online from a random account",
}

type Order struct {
	gorm.Model
	UserID *uint `json:"userId" gorm:"index;uniqueIndex:idx_orders_user_idempotency"`
	User   *User `json:"-"`

	// BasketOwnerID is set only while Status is accepted, so the unique index allows
	// at most one open basket per user.
	BasketOwnerID *uint `json:"-" gorm:"uniqueIndex"`
	// BasketToken identifies one basket generation; the order promoted from it keeps
	// the token in SourceBasket.
	BasketToken    string  `json:"-" gorm:"size:36"`
	SourceBasket   *string `json:"-" gorm:"size:36;uniqueIndex"`
	IdempotencyKey *string `json:"-" gorm:"size:64;uniqueIndex:idx_orders_user_idempotency"`

	FullName     string          `json:"fullName" gorm:"size:100"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone" gorm:"size:20"`
	City         string          `json:"city" gorm:"size:100"`
	Address      string          `json:"address" gorm:"size:200"`
	Comment      string          `json:"comment"`
	DeliveryType string          `json:"deliveryType" gorm:"size:10;default:ordinary"`
	PaymentType  string          `json:"paymentType" gorm:"size:10;default:online"`
	TotalCost    decimal.Decimal `json:"totalCost" gorm:"type:decimal(10,2)"`
	Status       string          `json:"status" gorm:"size:10;index"`
	Lines        []OrderLine     `json:"products" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments     []Payment       `json:"-" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (o Order) StatusLabel() string {
	return labelOr(statusLabels, o.Status)
}

func (o Order) DeliveryLabel() string {
	return labelOr(deliveryLabels, o.DeliveryType)
}

func (o Order) PaymentLabel() string {
	return labelOr(paymentLabels, o.PaymentType)
}

func labelOr(labels map[string]string, key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return key
}

// OrderLine is one product in a basket or order. Price is captured when the product is
// first added to the basket and is never refreshed from the live product price.
type OrderLine struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	OrderID   uint            `json:"orderId" gorm:"uniqueIndex:idx_order_lines_order_product"`
	ProductID uint            `json:"productId" gorm:"uniqueIndex:idx_order_lines_order_product;index"`
	Product   Product         `json:"-"`
	Quantity  int             `json:"count"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
}

// Payment is one payment attempt. Rows accumulate across retries and are never deleted.
type Payment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	OrderID   uint      `json:"orderId" gorm:"index"`
	Number    string    `json:"number" gorm:"size:32"`
	Name      string    `json:"name" gorm:"size:100"`
	Month     string    `json:"month" gorm:"size:2"`
	Year      string    `json:"year" gorm:"size:4"`
	Code      string    `json:"-" gorm:"size:4"`
	Status    string    `json:"status" gorm:"size:20;index"`
}

// OrderView is the order as the frontend renders it. Delivery, payment and status carry
// display labels.
type OrderView struct {
	ID           uint               `json:"id"`
	OrderID      uint               `json:"orderId"`
	CreatedAt    time.Time          `json:"createdAt"`
	FullName     string             `json:"fullName"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone"`
	DeliveryType string             `json:"deliveryType"`
	PaymentType  string             `json:"paymentType"`
	City         string             `json:"city"`
	Address      string             `json:"address"`
	Status       string             `json:"status"`
	TotalCost    float64            `json:"totalCost"`
	Products     []OrderProductView `json:"products"`
	Comment      string             `json:"comment"`
}

type OrderProductView struct {
	ID               uint        `json:"id"`
	Category         uint        `json:"category"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Price            float64     `json:"price"`
	Count            int         `json:"count"`
	Date             string      `json:"date"`
	Images           []ImageView `json:"images"`
	ShortDescription string      `json:"shortDescription"`
}
