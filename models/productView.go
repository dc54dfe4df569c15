package models

// ProductShort is a catalog card.
type ProductShort struct {
	ID           uint        `json:"id"`
	Category     uint        `json:"category"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Price        float64     `json:"price"`
	SalePrice    *float64    `json:"salePrice"`
	Date         string      `json:"date"`
	Count        int         `json:"count"`
	FreeDelivery bool        `json:"freeDelivery"`
	Images       []ImageView `json:"images"`
	Tags         []Tag       `json:"tags"`
	Reviews      int64       `json:"reviews"`
	Rating       float64     `json:"rating"`
	Limited      bool        `json:"limited"`
	Available    bool        `json:"available"`
}

type ProductFull struct {
	ID              uint                `json:"id"`
	Category        uint                `json:"category"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	FullDescription string              `json:"fullDescription"`
	Price           float64             `json:"price"`
	SalePrice       *float64            `json:"salePrice"`
	Count           int                 `json:"count"`
	Date            string              `json:"date"`
	FreeDelivery    bool                `json:"freeDelivery"`
	Images          []ImageView         `json:"images"`
	Tags            []Tag               `json:"tags"`
	Reviews         []ReviewView        `json:"reviews"`
	Specifications  []SpecificationView `json:"specifications"`
	Rating          float64             `json:"rating"`
	Limited         bool                `json:"limited"`
	Available       bool                `json:"available"`
}

type ReviewView struct {
	Author string `json:"author"`
	Email  string `json:"email"`
	Text   string `json:"text"`
	Rate   int    `json:"rate"`
	Date   string `json:"date"`
}

type SpecificationView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type SaleView struct {
	ID        uint     `json:"id"`
	Price     float64  `json:"price"`
	SalePrice float64  `json:"salePrice"`
	DateFrom  *string  `json:"dateFrom"`
	DateTo    *string  `json:"dateTo"`
	Title     string   `json:"title"`
	Images    []string `json:"images"`
}

type CategoryView struct {
	ID            uint           `json:"id"`
	Title         string         `json:"title"`
	Image         string         `json:"image"`
	Subcategories []CategoryView `json:"subcategories"`
}

type CatalogPage struct {
	Items        []ProductShort `json:"items"`
	CurrentPage  int            `json:"currentPage"`
	LastPage     int            `json:"lastPage"`
	TotalItems   int64          `json:"totalItems"`
	ItemsPerPage int            `json:"itemsPerPage"`
	StartItem    int            `json:"startItem"`
	EndItem      int            `json:"endItem"`
}

type SalesPage struct {
	Items       []SaleView `json:"items"`
	CurrentPage int        `json:"currentPage"`
	LastPage    int        `json:"lastPage"`
}
