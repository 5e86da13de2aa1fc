package cache

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"trade-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	stockListKey = "fg:stock:list"
	stockListTTL = 30 * time.Second
)

var client *redis.Client

// Init initializes the Redis connection. The cache is optional: callers keep
// working against the database when Redis is unavailable.
func Init() error {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetStockList returns the cached stock snapshot, if any.
func GetStockList(ctx context.Context) ([]models.ProductStock, bool) {
	if client == nil {
		return nil, false
	}

	data, err := client.Get(ctx, stockListKey).Bytes()
	if err != nil {
		return nil, false
	}

	var stocks []models.ProductStock
	if err := json.Unmarshal(data, &stocks); err != nil {
		return nil, false
	}
	return stocks, true
}

// SetStockList caches the stock snapshot with a short TTL. The TTL bounds
// staleness if an invalidation is ever missed.
func SetStockList(ctx context.Context, stocks []models.ProductStock) {
	if client == nil {
		return
	}

	data, err := json.Marshal(stocks)
	if err != nil {
		return
	}
	client.Set(ctx, stockListKey, data, stockListTTL)
}

// InvalidateStockList drops the cached snapshot. Called after every stock
// mutation so dashboards re-read fresh counters.
func InvalidateStockList(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, stockListKey)
}
