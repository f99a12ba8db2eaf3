package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig carries the connection settings for the shared Redis
// instance backing rate limiting, response caching and the visit counter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadRedisConfig reads the Redis settings from the environment.
// REDIS_ADDR takes precedence; otherwise the address is assembled from
// REDIS_HOST and REDIS_PORT.
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "")
	if addr == "" {
		addr = envStr("REDIS_HOST", "localhost") + ":" + envStr("REDIS_PORT", "6379")
	}
	return RedisConfig{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	}
}

// NewRedisClient connects to Redis and verifies the connection.  Redis is
// optional for the portal: on failure the function logs the reason and
// returns nil, and callers run without rate limiting, response caching or
// the visit counter.
func NewRedisClient() *redis.Client {
	rc := LoadRedisConfig()
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s, continuing without it: %v", rc.Addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
