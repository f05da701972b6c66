package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irfndi/kpi-forecast-go/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var errNoRedisClient = errors.New("redis client is not initialized")

type RedisClient struct {
	Client *redis.Client
	logger *logrus.Logger
}

// NewRedisConnection dials Redis and verifies the connection with a ping.
func NewRedisConnection(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger) (*RedisClient, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithField("addr", rdb.Options().Addr).Info("Successfully connected to Redis")

	return &RedisClient{Client: rdb, logger: logger}, nil
}

func (r *RedisClient) Close() {
	if r.Client != nil {
		if err := r.Client.Close(); err != nil {
			r.logger.WithError(err).Warn("Failed to close Redis connection")
			return
		}
		r.logger.Info("Redis connection closed")
	}
}

// HealthCheck pings Redis. It satisfies the health handler's checker interface.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errNoRedisClient
	}
	return r.Client.Ping(ctx).Err()
}
