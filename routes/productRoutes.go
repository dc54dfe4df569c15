package routes

import (
	"github.com/Kariqs/megano-api/controllers"
	"github.com/Kariqs/megano-api/middlewares"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(server *gin.Engine) {
	catalog := server.Group("/api")
	{
		catalog.GET("/catalog", controllers.GetCatalog)
		catalog.GET("/product/:id", controllers.GetProduct)
		catalog.POST("/product/:id/review", controllers.AddReview)
		catalog.GET("/products/popular", controllers.GetPopularProducts)
		catalog.GET("/products/limited", controllers.GetLimitedProducts)
		catalog.GET("/banners", controllers.GetBanners)
		catalog.GET("/sales", controllers.GetSales)
		catalog.GET("/categories", controllers.GetCategories)
		catalog.GET("/tags", controllers.GetTags)
	}

	admin := server.Group("/api/admin", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		admin.POST("/product", controllers.CreateProduct)
		admin.POST("/product-specs", controllers.CreateProductSpecs)
		admin.POST("/product-images", controllers.UploadProductImages)
	}
}
