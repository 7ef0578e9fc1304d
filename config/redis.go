package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// ConnectRedis wires the optional consistency-result cache. Redis is not
// required: with REDIS_ADDRESS unset every consistency check goes straight to
// the database.
func ConnectRedis() {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		log.Println("REDIS_ADDRESS not set, consistency cache disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis at %s unreachable (%v), consistency cache disabled", addr, err)
		return
	}
	redisClient = client
}

// GetRedis returns the cache client, or nil when caching is disabled.
func GetRedis() *redis.Client {
	return redisClient
}
