package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Kariqs/megano-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultCatalogLimit = 20
	maxCatalogLimit     = 100
	salesPerPage        = 20
	popularCount        = 8
	limitedCount        = 16
	bannerCount         = 10
	reviewDateLayout    = "2006-01-02 15:04"
	saleDateLayout      = "2006-01-02"
)

// CatalogQuery is a parsed catalog listing request.
type CatalogQuery struct {
	Name         string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	FreeDelivery bool
	Unavailable  bool
	CategoryID   uint
	Tags         []uint
	// Specs maps a specification name to a fragment of its value.
	Specs    map[string]string
	Sort     string
	SortDesc bool
	Page     int
	Limit    int
}

var reservedFilters = map[string]bool{
	"name":         true,
	"minPrice":     true,
	"maxPrice":     true,
	"freeDelivery": true,
	"available":    true,
}

// ParseCatalogQuery reads the frontend's catalog query string. Unparseable numbers are
// ignored rather than rejected.
func ParseCatalogQuery(values url.Values) CatalogQuery {
	q := CatalogQuery{
		Name:         strings.TrimSpace(values.Get("filter[name]")),
		FreeDelivery: values.Get("filter[freeDelivery]") == "true",
		Unavailable:  values.Get("filter[available]") == "false",
		Specs:        map[string]string{},
		Sort:         values.Get("sort"),
		SortDesc:     values.Get("sortType") != "inc",
		Page:         1,
		Limit:        defaultCatalogLimit,
	}

	if v, err := decimal.NewFromString(values.Get("filter[minPrice]")); err == nil {
		q.MinPrice = &v
	}
	if v, err := decimal.NewFromString(values.Get("filter[maxPrice]")); err == nil {
		q.MaxPrice = &v
	}
	if id, err := ParseID(values.Get("category")); err == nil {
		q.CategoryID = id
	}
	for _, raw := range values["tags"] {
		if id, err := ParseID(raw); err == nil {
			q.Tags = append(q.Tags, id)
		}
	}
	for _, raw := range values["tags[]"] {
		if id, err := ParseID(raw); err == nil {
			q.Tags = append(q.Tags, id)
		}
	}
	for key, vals := range values {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") || len(vals) == 0 {
			continue
		}
		name := key[len("filter[") : len(key)-1]
		if name == "" || reservedFilters[name] || vals[0] == "" {
			continue
		}
		q.Specs[name] = vals[0]
	}

	if page, err := strconv.Atoi(values.Get("currentPage")); err == nil && page > 0 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		q.Limit = min(limit, maxCatalogLimit)
	}
	return q
}

type CatalogService struct {
	db    *gorm.DB
	cache *ProductCache
}

// NewCatalogService builds the catalog. cache may be nil.
func NewCatalogService(db *gorm.DB, cache *ProductCache) *CatalogService {
	return &CatalogService{db: db, cache: cache}
}

// GetProduct resolves a product for pricing. It always reads the database so basket
// snapshots see the current price.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Take(&product, id).Error; err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("product %d", id))
	}
	return &product, nil
}

func (s *CatalogService) preloadShort(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Sales", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (s *CatalogService) ListProducts(ctx context.Context, q CatalogQuery) (*models.CatalogPage, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if q.Unavailable {
		query = query.Where("available = ?", false)
	} else {
		query = query.Where("available = ?", true)
	}
	if q.Name != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q.Name)+"%")
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}
	if q.FreeDelivery {
		query = query.Where("free_delivery = ?", true)
	}
	if q.CategoryID != 0 {
		query = query.Where("category_id = ?", q.CategoryID)
	}
	for _, tag := range q.Tags {
		query = query.Where("EXISTS (SELECT 1 FROM product_tags pt WHERE pt.product_id = products.id AND pt.tag_id = ?)", tag)
	}
	for name, value := range q.Specs {
		query = query.Where(
			"EXISTS (SELECT 1 FROM specifications s WHERE s.product_id = products.id AND s.deleted_at IS NULL AND LOWER(s.name) = ? AND LOWER(s.value) LIKE ?)",
			strings.ToLower(name), "%"+strings.ToLower(value)+"%",
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	limit := q.Limit
	if limit < 1 {
		limit = defaultCatalogLimit
	}
	lastPage := int((total + int64(limit) - 1) / int64(limit))
	page := max(q.Page, 1)
	if lastPage > 0 && page > lastPage {
		page = lastPage
	}

	direction := "desc"
	if !q.SortDesc {
		direction = "asc"
	}
	var products []models.Product
	err := s.preloadShort(query).
		Order(catalogOrder(q.Sort) + " " + direction).
		Order("products.id " + direction).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items, err := s.shortViews(ctx, products)
	if err != nil {
		return nil, err
	}

	result := &models.CatalogPage{
		Items:        items,
		CurrentPage:  page,
		LastPage:     lastPage,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
	if total > 0 {
		result.StartItem = (page-1)*limit + 1
		result.EndItem = min(page*limit, int(total))
	}
	return result, nil
}

func catalogOrder(sort string) string {
	switch sort {
	case "price":
		return "products.price"
	case "name":
		return "products.title"
	case "rating":
		return "products.rating"
	case "reviews":
		return "(SELECT COUNT(*) FROM reviews r WHERE r.product_id = products.id AND r.deleted_at IS NULL)"
	}
	return "products.created_at"
}

func (s *CatalogService) Popular(ctx context.Context) ([]models.ProductShort, error) {
	return s.topProducts(ctx, s.db.Order("rating desc").Order("id"), popularCount)
}

func (s *CatalogService) Limited(ctx context.Context) ([]models.ProductShort, error) {
	return s.topProducts(ctx, s.db.Where("limited = ?", true).Order("id"), limitedCount)
}

func (s *CatalogService) Banners(ctx context.Context) ([]models.ProductShort, error) {
	return s.topProducts(ctx, s.db.Order("rating desc").Order("id"), bannerCount)
}

func (s *CatalogService) topProducts(ctx context.Context, scope *gorm.DB, limit int) ([]models.ProductShort, error) {
	var products []models.Product
	err := s.preloadShort(scope.WithContext(ctx)).
		Where("is_active = ? AND available = ?", true, true).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return s.shortViews(ctx, products)
}

func (s *CatalogService) shortViews(ctx context.Context, products []models.Product) ([]models.ProductShort, error) {
	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	reviews, err := reviewCounts(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.ProductShort, 0, len(products))
	for _, p := range products {
		items = append(items, models.ProductShort{
			ID:           p.ID,
			Category:     p.CategoryID,
			Title:        p.Title,
			Description:  p.Description,
			Price:        p.Price.InexactFloat64(),
			SalePrice:    salePrice(p.Sales),
			Date:         p.CreatedAt.Format(models.DisplayDateLayout),
			Count:        p.Count,
			FreeDelivery: p.FreeDelivery,
			Images:       imageViews(p.Images, p.Title),
			Tags:         nonNilTags(p.Tags),
			Reviews:      reviews[p.ID],
			Rating:       p.Rating,
			Limited:      p.Limited,
			Available:    p.Available,
		})
	}
	return items, nil
}

func nonNilTags(tags []models.Tag) []models.Tag {
	if tags == nil {
		return []models.Tag{}
	}
	return tags
}

func salePrice(sales []models.Sale) *float64 {
	for _, sale := range sales {
		if sale.SalePrice.Valid {
			v := sale.SalePrice.Decimal.InexactFloat64()
			return &v
		}
	}
	return nil
}

// ProductDetail returns the full product page, from the cache when one is configured.
func (s *CatalogService) ProductDetail(ctx context.Context, id uint) (*models.ProductFull, error) {
	if s.cache != nil {
		return s.cache.Get(ctx, id, s.loadProductDetail)
	}
	return s.loadProductDetail(ctx, id)
}

func (s *CatalogService) loadProductDetail(ctx context.Context, id uint) (*models.ProductFull, error) {
	var p models.Product
	err := s.preloadShort(s.db.WithContext(ctx)).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Specifications", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("is_active = ?", true).
		Take(&p, id).Error
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("product %d", id))
	}

	specs := make([]models.SpecificationView, 0, len(p.Specifications))
	for _, spec := range p.Specifications {
		specs = append(specs, models.SpecificationView{Name: spec.Name, Value: spec.Value})
	}

	return &models.ProductFull{
		ID:              p.ID,
		Category:        p.CategoryID,
		Title:           p.Title,
		Description:     p.Description,
		FullDescription: p.FullDescription,
		Price:           p.Price.InexactFloat64(),
		SalePrice:       salePrice(p.Sales),
		Count:           p.Count,
		Date:            p.CreatedAt.UTC().Format(models.DisplayDateLayout),
		FreeDelivery:    p.FreeDelivery,
		Images:          imageViews(p.Images, p.Title),
		Tags:            nonNilTags(p.Tags),
		Reviews:         reviewViews(p.Reviews),
		Specifications:  specs,
		Rating:          p.Rating,
		Limited:         p.Limited,
		Available:       p.Available,
	}, nil
}

func reviewViews(reviews []models.Review) []models.ReviewView {
	views := make([]models.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, models.ReviewView{
			Author: r.Author,
			Email:  r.Email,
			Text:   r.Text,
			Rate:   r.Rate,
			Date:   r.CreatedAt.Format(reviewDateLayout),
		})
	}
	return views
}

type ReviewInput struct {
	Author string
	Email  string
	Text   string
	Rate   int
}

// AddReview stores a review and returns every review of the product.
func (s *CatalogService) AddReview(ctx context.Context, productID uint, input ReviewInput) ([]models.ReviewView, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.Text) == "" {
		fields["text"] = "is required"
	}
	if input.Rate < 1 || input.Rate > 5 {
		fields["rate"] = "must be between 1 and 5"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if input.Author == "" {
		input.Author = "Anonymous"
	}

	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	review := models.Review{
		ProductID: productID,
		Author:    input.Author,
		Email:     input.Email,
		Text:      input.Text,
		Rate:      input.Rate,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.invalidate(ctx, productID)

	var reviews []models.Review
	if err := s.db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviewViews(reviews), nil
}

// Sales lists the sales running now.
func (s *CatalogService) Sales(ctx context.Context, page int) (*models.SalesPage, error) {
	now := time.Now()
	query := s.db.WithContext(ctx).Model(&models.Sale{}).
		Where("date_from <= ? AND date_to >= ?", now, now)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count sales: %w", err)
	}
	lastPage := int((total + salesPerPage - 1) / salesPerPage)
	page = max(page, 1)
	if lastPage > 0 && page > lastPage {
		page = lastPage
	}

	var sales []models.Sale
	err := query.
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Limit(salesPerPage).
		Offset((page - 1) * salesPerPage).
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	items := make([]models.SaleView, 0, len(sales))
	for _, sale := range sales {
		items = append(items, saleView(sale))
	}
	return &models.SalesPage{Items: items, CurrentPage: page, LastPage: lastPage}, nil
}

func saleView(sale models.Sale) models.SaleView {
	productPrice := sale.Product.Price.InexactFloat64()
	view := models.SaleView{
		ID:        sale.ID,
		Price:     productPrice,
		SalePrice: productPrice,
		DateFrom:  formatDate(sale.DateFrom),
		DateTo:    formatDate(sale.DateTo),
		Title:     sale.Title,
	}
	if sale.Price.Valid {
		view.Price = sale.Price.Decimal.InexactFloat64()
	}
	if sale.SalePrice.Valid {
		view.SalePrice = sale.SalePrice.Decimal.InexactFloat64()
	}
	if view.Title == "" {
		view.Title = sale.Product.Title
	}

	if images := saleImages(sale); len(images) > 0 {
		view.Images = images
	} else {
		for _, img := range sale.Product.Images {
			view.Images = append(view.Images, imageSrc(img.Src))
		}
	}
	if len(view.Images) == 0 {
		view.Images = []string{placeholderImage}
	}
	return view
}

func saleImages(sale models.Sale) []string {
	if len(sale.Images) == 0 {
		return nil
	}
	var images []string
	if err := json.Unmarshal(sale.Images, &images); err != nil {
		return nil
	}
	return images
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(saleDateLayout)
	return &s
}

// Categories returns the root categories with their subcategories nested.
func (s *CatalogService) Categories(ctx context.Context) ([]models.CategoryView, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Subcategories.Subcategories", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("parent_id IS NULL").
		Order("id").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categoryViews(categories), nil
}

func categoryViews(categories []models.Category) []models.CategoryView {
	views := make([]models.CategoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, models.CategoryView{
			ID:            c.ID,
			Title:         c.Title,
			Image:         imageSrc(c.Image),
			Subcategories: categoryViews(c.Subcategories),
		})
	}
	return views
}

// Tags lists every tag, or only the tags used by products of one category when category
// parses as an id.
func (s *CatalogService) Tags(ctx context.Context, category string) ([]models.Tag, error) {
	query := s.db.WithContext(ctx).Model(&models.Tag{})
	if id, err := ParseID(category); err == nil {
		query = query.
			Distinct("tags.id", "tags.name").
			Joins("JOIN product_tags ON product_tags.tag_id = tags.id").
			Joins("JOIN products ON products.id = product_tags.product_id AND products.deleted_at IS NULL").
			Where("products.category_id = ?", id)
	}
	tags := []models.Tag{}
	if err := query.Order("tags.id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

type ProductInput struct {
	CategoryID      uint
	Title           string
	Description     string
	FullDescription string
	Price           decimal.Decimal
	Count           int
	Limited         bool
	FreeDelivery    bool
	TagIDs          []uint
}

// CreateProduct is the staff write path for new products.
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if input.Price.IsNegative() {
		return nil, NewValidationError("price", "must not be negative")
	}

	product := models.Product{
		CategoryID:      input.CategoryID,
		Title:           input.Title,
		Description:     input.Description,
		FullDescription: input.FullDescription,
		Price:           input.Price,
		Count:           input.Count,
		Limited:         input.Limited,
		FreeDelivery:    input.FreeDelivery,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Take(&category, input.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewValidationError("category", "unknown category")
			}
			return fmt.Errorf("load category: %w", err)
		}
		if len(input.TagIDs) > 0 {
			if err := tx.Where("id IN ?", input.TagIDs).Find(&product.Tags).Error; err != nil {
				return fmt.Errorf("load tags: %w", err)
			}
			if len(product.Tags) != len(input.TagIDs) {
				return NewValidationError("tags", "unknown tag")
			}
		}
		if err := tx.Omit("Category").Create(&product).Error; err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *CatalogService) AddSpecification(ctx context.Context, productID uint, name, value string) (*models.Specification, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	spec := models.Specification{ProductID: productID, Name: name, Value: value}
	if err := s.db.WithContext(ctx).Create(&spec).Error; err != nil {
		return nil, fmt.Errorf("create specification: %w", err)
	}
	s.invalidate(ctx, productID)
	return &spec, nil
}

func (s *CatalogService) AddImage(ctx context.Context, productID uint, src, alt string) (*models.ProductImage, error) {
	image := models.ProductImage{ProductID: productID, Src: src, Alt: alt}
	if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
		return nil, fmt.Errorf("create product image: %w", err)
	}
	s.invalidate(ctx, productID)
	return &image, nil
}

func (s *CatalogService) invalidate(ctx context.Context, productID uint) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}
}
