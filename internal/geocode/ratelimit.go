package geocode

import (
	"context"
	"sync"
	"time"
)

// 文档注释：每秒令牌桶
// 背景：公共 Nominatim 实例要求每秒不超过 1 次请求；并发 worker 共享同一个桶。
// 约束：按整秒补满，不做平滑；Wait 在 ctx 取消时返回错误。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
	now      func() time.Time
}

// NewTokenBucket qps <= 0 返回 nil（不限速）
func NewTokenBucket(qps int) *TokenBucket {
	if qps <= 0 {
		return nil
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) allow() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := tb.now()
	nowSec := now.Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}
	return false, time.Unix(nowSec+1, 0).Sub(now)
}

// Wait 阻塞直到拿到令牌；nil 桶直接放行
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if tb == nil {
		return nil
	}
	for {
		ok, d := tb.allow()
		if ok {
			return nil
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
