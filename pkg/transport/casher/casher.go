// Package casher keeps JSON-encoded values in redis with a TTL
package casher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Casher handles caching operations using Redis as the backend
type Casher struct {
	client *redis.Client
	logger *logger.Logger
}

func Init(client *redis.Client, logger *logger.Logger) *Casher {
	return &Casher{
		client: client,
		logger: logger,
	}
}

// Connect parses a redis URL and pings the server
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func (c *Casher) Close() error {
	return c.client.Close()
}

func (c *Casher) IsHealthy() bool {
	return c.client.Ping(context.Background()).Err() == nil
}

// AddToCash stores payload as JSON under key. A ttl of zero keeps it until removed.
func (c *Casher) AddToCash(ctx context.Context, key string, payload any, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err = c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Error("failed to cash payload with",
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// GetCashFor decodes the value under key into dst and reports whether it was found
func (c *Casher) GetCashFor(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		c.logger.Error("error get cash",
			zap.String("key", key),
			zap.Error(err),
		)
		return false, err
	}

	if err = json.Unmarshal(data, dst); err != nil {
		c.logger.Error("error decode cashed value",
			zap.String("key", key),
			zap.Error(err),
		)
		return false, fmt.Errorf("decode %s: %w", key, err)
	}

	return true, nil
}

func (c *Casher) RemoveFromCash(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("error delete from redis",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	return nil
}
