package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
)

// Cache is the TTL cache used for generated explanation text. The engine
// never depends on a process-wide singleton; implementations are injected.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key string, value string, ttl time.Duration)
}

type redisCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewCacheFromEnv(log *logger.Logger) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisCache{
		log: log.With("client", "RedisCache"),
		rdb: rdb,
	}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.rdb == nil || key == "" {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("redis get failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *redisCache) Put(ctx context.Context, key string, value string, ttl time.Duration) {
	if c == nil || c.rdb == nil || key == "" {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn("redis set failed", "key", key, "error", err)
	}
}
