package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kariqs/megano-api/models"
	"gorm.io/gorm"
)

const placeholderImage = "/static/frontend/assets/img/product.png"

func imageSrc(src string) string {
	switch {
	case src == "":
		return placeholderImage
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "/"):
		return src
	}
	return "/media/" + src
}

func imageViews(images []models.ProductImage, fallbackAlt string) []models.ImageView {
	views := make([]models.ImageView, 0, len(images))
	for _, img := range images {
		alt := img.Alt
		if alt == "" {
			alt = fallbackAlt
		}
		views = append(views, models.ImageView{Src: imageSrc(img.Src), Alt: alt})
	}
	return views
}

// reviewCounts returns the number of reviews per product id.
func reviewCounts(ctx context.Context, db *gorm.DB, productIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(productIDs))
	if len(productIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ProductID uint
		Total     int64
	}
	err := db.WithContext(ctx).Model(&models.Review{}).
		Select("product_id, count(*) as total").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	for _, row := range rows {
		counts[row.ProductID] = row.Total
	}
	return counts, nil
}

// renderCart builds the frontend view of basket lines. Lines whose product no longer
// exists are left out.
func renderCart(ctx context.Context, db *gorm.DB, lines []BasketLine) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0, len(lines))
	if len(lines) == 0 {
		return items, nil
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	var products []models.Product
	err := db.WithContext(ctx).
		Preload("Images").
		Preload("Tags").
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("load basket products: %w", err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	reviews, err := reviewCounts(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		price := product.Price
		if line.Price != nil {
			price = *line.Price
		}
		tags := make([]uint, 0, len(product.Tags))
		for _, tag := range product.Tags {
			tags = append(tags, tag.ID)
		}
		items = append(items, models.CartItem{
			ID:           product.ID,
			Category:     product.CategoryID,
			Price:        price.InexactFloat64(),
			Count:        line.Quantity,
			Date:         product.CreatedAt.Format(models.DisplayDateLayout),
			Title:        product.Title,
			Description:  product.Description,
			FreeDelivery: product.FreeDelivery,
			Images:       imageViews(product.Images, ""),
			Tags:         tags,
			Reviews:      reviews[product.ID],
			Rating:       product.Rating,
		})
	}
	return items, nil
}
