package models

// SessionCartItem is what an anonymous visitor's basket stores per product; the rest of
// the line is read from the catalog on every request.
type SessionCartItem struct {
	ProductID uint `json:"id"`
	Count     int  `json:"count"`
}

type ImageView struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// CartItem is the basket line shown to the frontend. Authenticated and anonymous baskets
// both render into this shape.
type CartItem struct {
	ID           uint        `json:"id"`
	Category     uint        `json:"category"`
	Price        float64     `json:"price"`
	Count        int         `json:"count"`
	Date         string      `json:"date"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	FreeDelivery bool        `json:"freeDelivery"`
	Images       []ImageView `json:"images"`
	Tags         []uint      `json:"tags"`
	Reviews      int64       `json:"reviews"`
	Rating       float64     `json:"rating"`
}

// DisplayDateLayout is the product date format the frontend parses.
const DisplayDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"
