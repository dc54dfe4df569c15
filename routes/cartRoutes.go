package routes

import (
	"github.com/Kariqs/megano-api/controllers"
	"github.com/gin-gonic/gin"
)

func CartRoutes(server *gin.Engine) {
	server.GET("/api/basket", controllers.GetBasket)
	server.POST("/api/basket", controllers.AddToBasket)
	server.DELETE("/api/basket", controllers.RemoveFromBasket)
}
