package services

import "github.com/Kariqs/megano-api/models"

// Caller is who is making the request: an authenticated user or an anonymous session.
type Caller struct {
	UserID    uint
	Staff     bool
	SessionID string
}

func (c Caller) Authenticated() bool {
	return c.UserID != 0
}

// canAccess holds for staff and for the order's owner.
func (c Caller) canAccess(order models.Order) bool {
	if c.Staff {
		return true
	}
	return c.Authenticated() && order.UserID != nil && *order.UserID == c.UserID
}
