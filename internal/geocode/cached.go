package geocode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vpn-geosanity/internal/countries"
	"vpn-geosanity/internal/logger"
	"vpn-geosanity/internal/metrics"
)

// NegativeTTL 未找到结果的缓存时长
const NegativeTTL = 10 * time.Minute

// 文档注释：两级缓存包装
// 背景：进程内 LRU 在前，Redis（可选）在后，跨批次复用；并发 worker 对同一国家的查询经 singleflight 合并为一次。
// 约束：ServiceError 不写缓存；Redis 失败只记录日志，不影响结果。
type Cached struct {
	Next  Locator
	Local *LRU
	Redis *redis.Client
	TTL   time.Duration

	group singleflight.Group
}

func NewCached(next Locator, rc *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cached{Next: next, Local: NewLRU(512), Redis: rc, TTL: ttl}
}

func (c *Cached) Locate(ctx context.Context, iso string) Result {
	key := "geosanity:geocode:" + countries.Normalize(iso)
	if r, ok := c.Local.Get(key); ok {
		metrics.GeocodeCacheHitsTotal.WithLabelValues("local").Inc()
		return r
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		if r, ok := c.fromRedis(ctx, key); ok {
			metrics.GeocodeCacheHitsTotal.WithLabelValues("redis").Inc()
			c.Local.Set(key, r, c.ttlFor(r))
			return r, nil
		}
		r := c.Next.Locate(ctx, iso)
		if r.Status != ServiceError {
			c.Local.Set(key, r, c.ttlFor(r))
			c.toRedis(ctx, key, r)
		}
		return r, nil
	})
	return v.(Result)
}

func (c *Cached) ttlFor(r Result) time.Duration {
	if r.Status == Found {
		return c.TTL
	}
	return NegativeTTL
}

func (c *Cached) fromRedis(ctx context.Context, key string) (Result, bool) {
	if c.Redis == nil {
		return Result{}, false
	}
	s, err := c.Redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.For("geocode").Debug("geocode_redis_get_error", "key", key, "err", err)
		}
		return Result{}, false
	}
	var r Result
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Result{}, false
	}
	return r, true
}

func (c *Cached) toRedis(ctx context.Context, key string, r Result) {
	if c.Redis == nil {
		return
	}
	b, _ := json.Marshal(r)
	if err := c.Redis.Set(ctx, key, string(b), c.ttlFor(r)).Err(); err != nil {
		logger.For("geocode").Debug("geocode_redis_set_error", "key", key, "err", err)
	}
}
