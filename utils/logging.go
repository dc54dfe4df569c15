package utils

import (
	"encoding/json"
	"log"
	"time"
)

type LogFields struct {
	Service    string
	OrderID    uint
	UserID     uint
	Step       string
	Status     string
	DurationMS int64
	Message    string
}

// LogEvent writes one JSON line describing an order state transition.
func LogEvent(fields LogFields) {
	payload := map[string]any{
		"service":     fields.Service,
		"order_id":    fields.OrderID,
		"user_id":     fields.UserID,
		"step":        fields.Step,
		"status":      fields.Status,
		"duration_ms": fields.DurationMS,
		"message":     fields.Message,
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("{\"service\":%q,\"status\":\"log_error\",\"error\":%q}", fields.Service, err.Error())
		return
	}
	log.Print(string(data))
}
