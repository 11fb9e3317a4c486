package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/miz-art/Micro-narrativesxHarms-June25/internal/config"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/http/handlers"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/session"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the Redis store when a client is available and the
// in-process store otherwise.
func BuildSessionStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) narrative.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient == nil {
		logger.Warn("redis not configured; sessions are kept in memory and lost on restart")
		return session.NewMemoryStore()
	}
	return session.NewRedisStore(redisClient, cfg.SessionTTL, cfg.LockTTL)
}

// BuildPostgresPool opens the package database, or returns nil when DATABASE_URL is unset.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// HealthChecks returns health checks for the dependencies that are wired.
func HealthChecks(redisClient *redis.Client, pool *pgxpool.Pool) []handlers.HealthCheck {
	var checks []handlers.HealthCheck
	if redisClient != nil {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	if pool != nil {
		checks = append(checks, handlers.HealthCheck{Name: "postgres", Check: pool.Ping})
	}
	return checks
}
