package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "catalog:part:"

// RedisCatalog is the persistent-store-backed catalog used in production.
// Entries live in Redis as JSON values keyed by part number; a miss or a
// store error degrades to the fallback entry so Resolve never fails.
type RedisCatalog struct {
	rdb      *redis.Client
	defaults Defaults
	logger   *zap.Logger
}

// NewRedis creates a catalog backed by the given Redis instance.
func NewRedis(rdb *redis.Client, defaults Defaults, logger *zap.Logger) *RedisCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCatalog{rdb: rdb, defaults: defaults, logger: logger}
}

// Resolve returns the stored entry for partNumber, falling back to defaults
// on a miss or store error.
func (c *RedisCatalog) Resolve(ctx context.Context, partNumber string) Entry {
	data, err := c.rdb.Get(ctx, keyPrefix+partNumber).Bytes()
	if errors.Is(err, redis.Nil) {
		return c.defaults.Fallback(partNumber)
	}
	if err != nil {
		c.logger.Warn("catalog.redis_get_failed",
			zap.String("part_number", partNumber),
			zap.Error(err))
		return c.defaults.Fallback(partNumber)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("catalog.redis_decode_failed",
			zap.String("part_number", partNumber),
			zap.Error(err))
		return c.defaults.Fallback(partNumber)
	}
	return e
}

// Store upserts a catalog entry. Entries do not expire; pricing data is
// replaced by re-seeding, never aged out.
func (c *RedisCatalog) Store(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, keyPrefix+e.PartNumber, data, 0).Err(); err != nil {
		return fmt.Errorf("catalog store [%s]: %w", e.PartNumber, err)
	}
	return nil
}

// SeedIfEmpty loads entries unless the catalog already has at least one key.
func (c *RedisCatalog) SeedIfEmpty(ctx context.Context, entries []Entry) error {
	keys, err := c.rdb.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("catalog seed scan: %w", err)
	}
	if len(keys) > 0 {
		return nil
	}
	for _, e := range entries {
		if err := c.Store(ctx, e); err != nil {
			return err
		}
	}
	c.logger.Info("catalog.seeded", zap.Int("entries", len(entries)))
	return nil
}

// HealthCheck pings the backing store.
func (c *RedisCatalog) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}
