package routes

import (
	"github.com/Kariqs/megano-api/metrics"
	"github.com/Kariqs/megano-api/middlewares"
	"github.com/gin-gonic/gin"
)

// Register installs the shared middleware and every route group.
func Register(server *gin.Engine) {
	server.Use(metrics.Middleware(), middlewares.Identify())

	DefaultRoutes(server)
	AuthRoutes(server)
	ProductRoutes(server)
	CartRoutes(server)
	OrderRoutes(server)
}
