package controllers

import (
	"net/http"

	"github.com/Kariqs/megano-api/initializers"
	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to Megano API. All endpoints live under /api.

ACCOUNT
- POST "/sign-up" - Create user account
- POST "/sign-in" - Access user account
- POST "/sign-out" - Leave user account
- GET|POST "/profile" - Read or update profile
- POST "/profile/password" - Change password
- POST "/profile/avatar" - Upload avatar

CATALOG
- GET "/catalog" - Filter, sort and page products
- GET "/product/:id" - Get product by ID
- POST "/product/:id/review" - Review a product
- GET "/products/popular" - Top rated products
- GET "/products/limited" - Limited edition products
- GET "/banners" - Banner products
- GET "/sales" - Running sales
- GET "/categories" - Category tree
- GET "/tags" - Tags, optionally by category

BASKET
- GET "/basket" - Current basket
- POST "/basket" - Add {id, count}
- DELETE "/basket" - Remove {id, count}

ORDER
- GET "/orders" - My orders
- POST "/orders" - Turn the basket into an order
- GET "/orders/:id" - Get order by ID
- POST "/orders/:id" - Confirm customer details
- POST "/payment/:id" - Pay for an order
- GET "/payment-status/:id" - Order status

ADMIN
- GET "/admin/orders" - All orders
- PATCH "/admin/orders/:id" - Update order status
- DELETE "/admin/orders/:id" - Delete order
- GET "/admin/undelivered-orders" - Paid orders awaiting delivery
- POST "/admin/product" - Create product
- POST "/admin/product-specs" - Add product specifications
- POST "/admin/product-images" - Add product images`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}

func Health(ctx *gin.Context) {
	sqlDB, err := initializers.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx.Request.Context())
	}
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
