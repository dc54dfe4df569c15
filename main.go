package main

import (
	"log"
	"time"

	"github.com/Kariqs/megano-api/initializers"
	"github.com/Kariqs/megano-api/metrics"
	"github.com/Kariqs/megano-api/routes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	initializers.LoadEnv()
	initializers.LoadConfig()
	initializers.ConnectToDB()
	initializers.SyncDatabase()
	initializers.ConnectToRedis()
	initializers.ConnectToEvents()
	initializers.ConnectToStorage()
	initializers.InitServices()
}

func main() {
	defer initializers.Events.Close()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("Failed to register metrics: ", err)
	}

	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     initializers.Cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.Register(server)

	if err := server.Run(":" + initializers.Cfg.Port); err != nil {
		log.Fatal("Server stopped: ", err)
	}
}
