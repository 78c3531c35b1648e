package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nspec/internal/spectrum/model"

	"github.com/go-redis/redis/v8"
)

type Config struct {
	// Redis address; empty disables the continuum cache entirely.
	Addr     string        `envconfig:"NSPEC_REDIS_ADDR"`
	Password string        `envconfig:"NSPEC_REDIS_PASSWORD"`
	DB       int           `envconfig:"NSPEC_REDIS_DB"`
	TTL      time.Duration `envconfig:"NSPEC_REDIS_TTL" default:"1h"`
}

// Cache stores fitted continua keyed by spectrum id and anchor-set
// version, so an unchanged anchor set never pays for a refit.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(ctx context.Context, cfg *Config) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return &Cache{rdb: rdb, ttl: cfg.TTL}, nil
}

func key(spectrumID string, version uint64) string {
	return fmt.Sprintf("continuum:%s:%d", spectrumID, version)
}

func (c *Cache) PutContinuum(ctx context.Context, spectrumID string, version uint64, curve model.Curve) error {
	data, err := json.Marshal(curve)
	if err != nil {
		return fmt.Errorf("cache: encode continuum: %w", err)
	}
	if err := c.rdb.Set(ctx, key(spectrumID, version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set continuum: %w", err)
	}
	return nil
}

func (c *Cache) GetContinuum(ctx context.Context, spectrumID string, version uint64) (model.Curve, bool, error) {
	data, err := c.rdb.Get(ctx, key(spectrumID, version)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get continuum: %w", err)
	}
	var curve model.Curve
	if err := json.Unmarshal(data, &curve); err != nil {
		return nil, false, fmt.Errorf("cache: decode continuum: %w", err)
	}
	return curve, true, nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
