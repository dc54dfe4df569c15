package routes

import (
	"github.com/Kariqs/megano-api/controllers"
	"github.com/Kariqs/megano-api/middlewares"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine) {
	orders := server.Group("/api", middlewares.RequireAuth())
	{
		orders.GET("/orders", controllers.ListOrders)
		orders.POST("/orders", controllers.CreateOrder)
		orders.GET("/orders/:id", controllers.GetOrder)
		orders.POST("/orders/:id", controllers.ConfirmOrder)
		orders.GET("/order/:id", controllers.GetOrder)
		orders.POST("/order/:id", controllers.ConfirmOrder)
		orders.POST("/payment/:id", controllers.Pay)
		orders.GET("/payment-status/:id", controllers.PaymentStatus)
	}

	admin := server.Group("/api/admin", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		admin.GET("/orders", controllers.GetOrders)
		admin.PATCH("/orders/:id", controllers.UpdateOrderStatus)
		admin.DELETE("/orders/:id", controllers.DeleteOrder)
		admin.GET("/undelivered-orders", controllers.GetUndeliveredOrders)
	}
}
