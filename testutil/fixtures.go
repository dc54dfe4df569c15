package testutil

import (
	"testing"

	"github.com/Kariqs/megano-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func CreateCategory(t *testing.T, db *gorm.DB, title string) models.Category {
	t.Helper()
	category := models.Category{Title: title}
	require.NoError(t, db.Create(&category).Error)
	return category
}

// CreateProduct stores an active, available product in a fresh category.
func CreateProduct(t *testing.T, db *gorm.DB, title string, price string) models.Product {
	t.Helper()
	category := CreateCategory(t, db, title+" category")
	product := models.Product{
		CategoryID:  category.ID,
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		Count:       10,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func CreateUser(t *testing.T, db *gorm.DB, username string, role string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// SetPrice changes a product's live price.
func SetPrice(t *testing.T, db *gorm.DB, productID uint, price string) {
	t.Helper()
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", productID).
		Update("price", decimal.RequireFromString(price)).Error)
}
