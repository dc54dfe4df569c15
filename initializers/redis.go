package initializers

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stays nil when REDIS_URL is empty.
var Redis *redis.Client

func ConnectToRedis() {
	if Cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, anonymous baskets live in memory and the catalog is not cached.")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:         Cfg.RedisURL,
		Password:     Cfg.RedisPassword,
		DB:           Cfg.RedisDB,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis ping failed: ", err)
	}
	Redis = client
	log.Println("Connected to Redis.")
}
