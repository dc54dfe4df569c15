package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/Kariqs/megano-api/events"
	"github.com/Kariqs/megano-api/metrics"
	"github.com/Kariqs/megano-api/models"
	"github.com/Kariqs/megano-api/utils"
	"gorm.io/gorm"
)

var rejectionReasons = []string{
	"Card number validation failed",
	"Payment declined by bank",
	"Insufficient funds",
	"Card expired",
}

// RejectionError is a payment the simulated bank turned down.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrPaymentRejected
}

type PaymentInput struct {
	Number string
	Name   string
	Month  string
	Year   string
	Code   string
}

// ReceiptSender is told about every successful payment.
type ReceiptSender interface {
	SendReceipt(order models.Order) error
}

type PaymentService struct {
	db       *gorm.DB
	events   events.Publisher
	receipts ReceiptSender
	pick     func(n int) int
}

func NewPaymentService(db *gorm.DB, publisher events.Publisher, receipts ReceiptSender) *PaymentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PaymentService{db: db, events: publisher, receipts: receipts, pick: rand.Intn}
}

type paymentOutcome int

const (
	paymentAccepted paymentOutcome = iota
	paymentRejected
	paymentMalformed
)

// judgeNumber applies the simulator's rule: digits only, spaces ignored, and the number
// must be even without being a multiple of ten.
func judgeNumber(raw string) paymentOutcome {
	number := strings.ReplaceAll(raw, " ", "")
	if number == "" {
		return paymentMalformed
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return paymentMalformed
		}
	}
	last := number[len(number)-1] - '0'
	if last%2 != 0 || last == 0 {
		return paymentRejected
	}
	return paymentAccepted
}

// Pay records a payment attempt and moves the order to paid or cancelled. The attempt is
// stored even when it fails; a malformed number leaves the order status untouched.
func (s *PaymentService) Pay(ctx context.Context, caller Caller, orderID uint, input PaymentInput) (*models.Order, error) {
	start := time.Now()
	var (
		order   *models.Order
		outcome paymentOutcome
		result  error
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrderFor(tx, caller, orderID, true)
		if err != nil {
			return err
		}
		if order.Status == models.StatusPaid {
			return fmt.Errorf("order %d: %w", order.ID, ErrAlreadyPaid)
		}

		payment := models.Payment{
			OrderID: order.ID,
			Number:  input.Number,
			Name:    input.Name,
			Month:   input.Month,
			Year:    input.Year,
			Code:    input.Code,
			Status:  models.PaymentPending,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("record payment: %w", err)
		}

		outcome = judgeNumber(input.Number)
		paymentStatus := models.PaymentFailed
		switch outcome {
		case paymentAccepted:
			paymentStatus = models.PaymentCompleted
			order.Status = models.StatusPaid
		case paymentRejected:
			order.Status = models.StatusCancelled
			result = &RejectionError{Reason: rejectionReasons[s.pick(len(rejectionReasons))]}
		case paymentMalformed:
			result = NewValidationError("number", "Invalid number format")
		}

		if err := tx.Model(&payment).Update("status", paymentStatus).Error; err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if outcome != paymentMalformed {
			if err := tx.Model(order).Update("status", order.Status).Error; err != nil {
				return fmt.Errorf("update order: %w", err)
			}
		}
		if outcome == paymentAccepted {
			if err := tx.Where("order_id = ?", order.ID).Order("id").Find(&order.Lines).Error; err != nil {
				return fmt.Errorf("load order lines: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.settled(ctx, order, outcome, start, result)
	if outcome == paymentAccepted && s.receipts != nil && order.Email != "" {
		if err := s.receipts.SendReceipt(*order); err != nil {
			log.Printf("send receipt for order %d: %v", order.ID, err)
		}
	}
	return order, result
}

func (s *PaymentService) settled(ctx context.Context, order *models.Order, outcome paymentOutcome, start time.Time, result error) {
	eventType, label := events.OrderPaid, "completed"
	switch outcome {
	case paymentRejected:
		eventType, label = events.OrderCancelled, "rejected"
	case paymentMalformed:
		eventType, label = events.PaymentInvalid, "invalid"
	}

	var userID uint
	if order.UserID != nil {
		userID = *order.UserID
	}
	message := ""
	if result != nil {
		message = result.Error()
	}
	utils.LogEvent(utils.LogFields{
		Service:    "payments",
		OrderID:    order.ID,
		UserID:     userID,
		Step:       eventType,
		Status:     order.Status,
		DurationMS: time.Since(start).Milliseconds(),
		Message:    message,
	})
	metrics.Payments.WithLabelValues(label).Inc()
	if outcome != paymentMalformed {
		metrics.Transitions.WithLabelValues(order.Status).Inc()
	}

	event := events.New(eventType, order.ID, userID, order.Status, order.TotalCost.StringFixed(2))
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("publish %s for order %d: %v", eventType, order.ID, err)
	}
}

// Status reports the order's current status code.
func (s *PaymentService) Status(ctx context.Context, caller Caller, orderID uint) (string, error) {
	order, err := loadOrderFor(s.db.WithContext(ctx), caller, orderID, false)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}
