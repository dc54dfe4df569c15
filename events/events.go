package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	OrderPromoted  = "order.promoted"
	OrderConfirmed = "order.confirmed"
	OrderPaid      = "order.paid"
	OrderCancelled = "order.cancelled"
	PaymentInvalid = "payment.invalid"
)

// Event is an order lifecycle notification. It is published after the transition commits.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    uint      `json:"orderId"`
	UserID     uint      `json:"userId,omitempty"`
	Status     string    `json:"status"`
	TotalCost  string    `json:"totalCost,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func New(eventType string, orderID, userID uint, status, totalCost string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		UserID:     userID,
		Status:     status,
		TotalCost:  totalCost,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Types() []string {
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
