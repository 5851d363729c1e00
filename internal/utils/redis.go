// Redis 连接工具：地理编码缓存的可选后端

package utils

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// cachePingTimeout 启动时探活上限；超时即按不可用处理
const cachePingTimeout = 2 * time.Second

// redisOptionsFromEnv：REDIS_URL 优先；否则拼 REDIS_HOST/REDIS_PORT/REDIS_PASS/REDIS_DB
// 约束：REDIS_DB 非法或为负时回退到 0
func redisOptionsFromEnv() (*redis.Options, error) {
	if u := os.Getenv("REDIS_URL"); u != "" {
		return redis.ParseURL(u)
	}
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	db := 0
	if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil && n >= 0 {
		db = n
	}
	return &redis.Options{Addr: host + ":" + port, Password: os.Getenv("REDIS_PASS"), DB: db}, nil
}

// OpenCacheRedis：按开关与环境变量打开缓存用 Redis，并在启动时探活
// 背景：缓存只是加速，任何失败都退化为无缓存（返回 nil），不阻断批处理
// 约束：探活失败时关闭已建客户端；调用方负责关闭返回的非 nil 客户端
func OpenCacheRedis(ctx context.Context, l *slog.Logger, enabled bool) *redis.Client {
	if !enabled {
		l.Info("redis_disabled")
		return nil
	}
	opts, err := redisOptionsFromEnv()
	if err != nil {
		l.Error("redis_url_error", "err", err)
		return nil
	}
	rc := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, cachePingTimeout)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		l.Error("redis_ping_error", "addr", opts.Addr, "err", err)
		_ = rc.Close()
		return nil
	}
	l.Info("redis_ping_ok", "addr", opts.Addr, "db", opts.DB)
	return rc
}
