package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category struct {
	gorm.Model
	Title         string     `json:"title" binding:"required"`
	ParentID      *uint      `json:"parentId" gorm:"index"`
	Image         string     `json:"image"`
	Subcategories []Category `json:"subcategories" gorm:"foreignKey:ParentID"`
}

type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" binding:"required"`
}

type Specification struct {
	gorm.Model
	Name      string `json:"name" binding:"required"`
	Value     string `json:"value" binding:"required"`
	ProductID uint   `json:"productId" binding:"required" gorm:"index"`
}

type ProductImage struct {
	gorm.Model
	Src       string `json:"src"`
	Alt       string `json:"alt"`
	ProductID uint   `json:"productId" gorm:"index"`
}

type Review struct {
	gorm.Model
	ProductID uint   `json:"productId" gorm:"index"`
	Author    string `json:"author"`
	Email     string `json:"email"`
	Text      string `json:"text"`
	Rate      int    `json:"rate"`
}

type Product struct {
	gorm.Model
	CategoryID      uint            `json:"category" binding:"required" gorm:"index"`
	Category        Category        `json:"-"`
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description" binding:"required"`
	FullDescription string          `json:"fullDescription"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	Count           int             `json:"count"`
	Limited         bool            `json:"limited"`
	FreeDelivery    bool            `json:"freeDelivery"`
	IsActive        bool            `json:"isActive" gorm:"default:true"`
	Available       bool            `json:"available" gorm:"default:true"`
	Rating          float64         `json:"rating"`
	Tags            []Tag           `json:"tags" gorm:"many2many:product_tags"`
	Images          []ProductImage  `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Specifications  []Specification `json:"specifications" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Reviews         []Review        `json:"reviews" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Sales           []Sale          `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Sale is a time-boxed discount. Images holds the frontend's list of image paths as-is.
type Sale struct {
	gorm.Model
	ProductID uint                `json:"productId" gorm:"index"`
	Product   Product             `json:"-"`
	Price     decimal.NullDecimal `json:"price" gorm:"type:decimal(10,2)"`
	SalePrice decimal.NullDecimal `json:"salePrice" gorm:"type:decimal(10,2)"`
	DateFrom  *time.Time          `json:"dateFrom"`
	DateTo    *time.Time          `json:"dateTo"`
	Title     string              `json:"title"`
	Images    datatypes.JSON      `json:"images"`
}
