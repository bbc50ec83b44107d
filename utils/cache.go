// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"carvia/config"

	"github.com/go-redis/redis/v8"
)

// PaymentCacheClient is the dedicated client for payment session storage.
var PaymentCacheClient *redis.Client

// InitPaymentCache initializes the Redis client for payment sessions (using
// DB from AppConfig).
func InitPaymentCache() {
	PaymentCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPaymentDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := PaymentCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Payment Cache): %v", err)
	}
}

// GetPaymentCacheClient returns the Redis client for payment sessions.
func GetPaymentCacheClient() *redis.Client {
	if PaymentCacheClient == nil {
		InitPaymentCache()
	}
	return PaymentCacheClient
}
