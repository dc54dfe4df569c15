package initializers

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBDriver        string
	DBDSN           string
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	CORSOrigins     []string
	KafkaBrokers    string
	KafkaTopic      string
	OrderWebhookURL string
	S3Bucket        string
	CatalogCacheTTL time.Duration
	SessionTTL      time.Duration
}

var Cfg = &Config{}

// LoadEnv reads .env when there is one. Containers pass the environment directly.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}
}

func LoadConfig() {
	Cfg = &Config{
		Port:            getEnv("PORT", "8080"),
		DBDriver:        getEnv("DB_DRIVER", "mysql"),
		DBDSN:           getEnv("DB_DSN", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:8000,http://localhost:5173")),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "megano.orders"),
		OrderWebhookURL: getEnv("ORDER_WEBHOOK_URL", ""),
		S3Bucket:        getEnv("S3_BUCKET", "megano"),
		CatalogCacheTTL: time.Duration(getEnvAsInt("CATALOG_CACHE_TTL_SECONDS", 300)) * time.Second,
		SessionTTL:      time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 336)) * time.Hour,
	}
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(csv string) []string {
	items := []string{}
	for _, item := range strings.Split(csv, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
