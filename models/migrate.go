package models

import "gorm.io/gorm"

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
		&Tag{},
		&Product{},
		&ProductImage{},
		&Specification{},
		&Review{},
		&Sale{},
		&Order{},
		&OrderLine{},
		&Payment{},
	)
}
