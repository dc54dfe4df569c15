package routes

import (
	"github.com/Kariqs/megano-api/controllers"
	"github.com/Kariqs/megano-api/metrics"
	"github.com/gin-gonic/gin"
)

func DefaultRoutes(server *gin.Engine) {
	server.GET("/", controllers.GetHome)
	server.GET("/api", controllers.GetHome)
	server.GET("/health", controllers.Health)
	server.GET("/metrics", gin.WrapH(metrics.Handler()))
}
