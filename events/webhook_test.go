package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPublisherPostsEvent(t *testing.T) {
	var got Event
	var eventType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventType = r.Header.Get("X-Event-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub := NewWebhookPublisher(srv.URL)
	event := New(OrderPaid, 7, 3, "paid", "450")
	require.NoError(t, pub.Publish(context.Background(), event))

	assert.Equal(t, OrderPaid, eventType)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, uint(7), got.OrderID)
	assert.Equal(t, "450", got.TotalCost)
}

func TestWebhookPublisherReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewWebhookPublisher(srv.URL).Publish(context.Background(), New(OrderPromoted, 1, 1, "created", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092,"))
	assert.Empty(t, ParseBrokers(""))
}

func TestRecorderKeepsOrder(t *testing.T) {
	rec := &Recorder{}
	_ = rec.Publish(context.Background(), New(OrderPromoted, 1, 1, "created", ""))
	_ = rec.Publish(context.Background(), New(OrderConfirmed, 1, 1, "confirmed", ""))
	assert.Equal(t, []string{OrderPromoted, OrderConfirmed}, rec.Types())
}
