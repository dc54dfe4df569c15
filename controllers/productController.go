package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/Kariqs/megano-api/initializers"
	"github.com/Kariqs/megano-api/services"
	"github.com/Kariqs/megano-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Common error response helper
func respondWithError(ctx *gin.Context, statusCode int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	ctx.JSON(statusCode, gin.H{
		"message": message,
		"error":   errMsg,
	})
}

// Catalog handlers
func GetCatalog(ctx *gin.Context) {
	query := services.ParseCatalogQuery(ctx.Request.URL.Query())
	page, err := initializers.Catalog.ListProducts(ctx.Request.Context(), query)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

func GetProduct(ctx *gin.Context) {
	productId, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	product, err := initializers.Catalog.ProductDetail(ctx.Request.Context(), productId)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func AddReview(ctx *gin.Context) {
	productId, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var review struct {
		Author string `json:"author"`
		Email  string `json:"email" validate:"omitempty,email"`
		Text   string `json:"text" validate:"required"`
		Rate   int    `json:"rate" validate:"required,min=1,max=5"`
	}
	if err := utils.BindAndValidate(ctx, &review); err != nil {
		return
	}

	reviews, err := initializers.Catalog.AddReview(ctx.Request.Context(), productId, services.ReviewInput{
		Author: review.Author,
		Email:  review.Email,
		Text:   review.Text,
		Rate:   review.Rate,
	})
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reviews)
}

func GetPopularProducts(ctx *gin.Context) {
	products, err := initializers.Catalog.Popular(ctx.Request.Context())
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

func GetLimitedProducts(ctx *gin.Context) {
	products, err := initializers.Catalog.Limited(ctx.Request.Context())
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

func GetBanners(ctx *gin.Context) {
	products, err := initializers.Catalog.Banners(ctx.Request.Context())
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

func GetSales(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("currentPage", "1"))
	sales, err := initializers.Catalog.Sales(ctx.Request.Context(), page)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sales)
}

func GetCategories(ctx *gin.Context) {
	categories, err := initializers.Catalog.Categories(ctx.Request.Context())
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, categories)
}

func GetTags(ctx *gin.Context) {
	tags, err := initializers.Catalog.Tags(ctx.Request.Context(), ctx.Query("category"))
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tags)
}

// Admin product handlers
func CreateProduct(ctx *gin.Context) {
	var product struct {
		CategoryID      uint            `json:"category" validate:"required"`
		Title           string          `json:"title" validate:"required,max=200"`
		Description     string          `json:"description"`
		FullDescription string          `json:"fullDescription"`
		Price           decimal.Decimal `json:"price"`
		Count           int             `json:"count" validate:"min=0"`
		Limited         bool            `json:"limited"`
		FreeDelivery    bool            `json:"freeDelivery"`
		Tags            []uint          `json:"tags"`
	}
	if err := utils.BindAndValidate(ctx, &product); err != nil {
		return
	}

	created, err := initializers.Catalog.CreateProduct(ctx.Request.Context(), services.ProductInput{
		CategoryID:      product.CategoryID,
		Title:           product.Title,
		Description:     product.Description,
		FullDescription: product.FullDescription,
		Price:           product.Price,
		Count:           product.Count,
		Limited:         product.Limited,
		FreeDelivery:    product.FreeDelivery,
		TagIDs:          product.Tags,
	})
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": created.ID})
}

func CreateProductSpecs(ctx *gin.Context) {
	var spec struct {
		ProductID uint   `json:"productId" validate:"required"`
		Name      string `json:"name" validate:"required,max=100"`
		Value     string `json:"value" validate:"required,max=200"`
	}
	if err := utils.BindAndValidate(ctx, &spec); err != nil {
		return
	}

	if _, err := initializers.Catalog.AddSpecification(ctx.Request.Context(), spec.ProductID, spec.Name, spec.Value); err != nil {
		respondWithServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Product specs added successfully"})
}

func UploadProductImages(ctx *gin.Context) {
	// Get multipart form
	form, err := ctx.MultipartForm()
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		respondWithError(ctx, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	productId, err := services.ParseID(ctx.PostForm("productId"))
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid productId", err)
		return
	}

	product, err := initializers.Catalog.GetProduct(ctx.Request.Context(), productId)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}

	if initializers.Uploader == nil {
		respondWithError(ctx, http.StatusServiceUnavailable, msgUploadsDisabled, nil)
		return
	}

	var uploadedUrls []string
	var failedUploads []string

	for _, file := range files {
		f, openErr := file.Open()
		if openErr != nil {
			log.Printf("Error opening file %s: %v", file.Filename, openErr)
			failedUploads = append(failedUploads, file.Filename)
			continue
		}

		key := utils.ObjectKey("products/"+strconv.FormatUint(uint64(productId), 10), file.Filename)
		location, uploadErr := initializers.Uploader.Upload(ctx.Request.Context(), key, file.Header.Get("Content-Type"), f)
		f.Close()

		if uploadErr != nil {
			log.Printf("Error uploading file %s: %v", file.Filename, uploadErr)
			failedUploads = append(failedUploads, file.Filename)
			continue
		}

		uploadedUrls = append(uploadedUrls, location)

		// The object is already stored, so a failed row is only logged.
		if _, err := initializers.Catalog.AddImage(ctx.Request.Context(), productId, location, product.Title); err != nil {
			log.Printf("Error saving image to database: %v", err)
		}
	}

	response := gin.H{
		"message": "Files processed",
		"urls":    uploadedUrls,
	}

	if len(failedUploads) > 0 {
		response["failed"] = failedUploads
	}

	ctx.JSON(http.StatusOK, response)
}
