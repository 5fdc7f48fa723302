package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"roster-backend/models"
)

type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisTenantCache keeps company lookups by code in Redis. Every failure is
// treated as a miss; the database stays the source of truth.
type RedisTenantCache struct {
	redis RedisClient
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewRedisTenantCache(client RedisClient, ttl time.Duration, log logrus.FieldLogger) *RedisTenantCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisTenantCache{redis: client, ttl: ttl, log: log}
}

// Connect dials Redis and verifies the connection with PING.
func Connect(ctx context.Context, addr, password string, ttl time.Duration, log logrus.FieldLogger) (*RedisTenantCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisTenantCache(rdb, ttl, log), nil
}

func companyKey(code string) string {
	return fmt.Sprintf("company_code:%s", code)
}

func (c *RedisTenantCache) Get(ctx context.Context, code string) (*models.Company, bool) {
	cached, err := c.redis.Get(ctx, companyKey(code)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("company_code", code).Warn("tenant cache read failed")
		}
		return nil, false
	}

	company := &models.Company{}
	if err := json.Unmarshal([]byte(cached), company); err != nil {
		return nil, false
	}
	return company, true
}

func (c *RedisTenantCache) Set(ctx context.Context, company *models.Company) {
	data, err := json.Marshal(company)
	if err != nil {
		return
	}
	if err := c.redis.SetEx(ctx, companyKey(company.Code), data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("company_code", company.Code).Warn("tenant cache write failed")
	}
}

func (c *RedisTenantCache) Invalidate(ctx context.Context, code string) {
	if err := c.redis.Del(ctx, companyKey(code)).Err(); err != nil {
		c.log.WithError(err).WithField("company_code", code).Warn("tenant cache invalidation failed")
	}
}

func (c *RedisTenantCache) Close() error {
	return c.redis.Close()
}
