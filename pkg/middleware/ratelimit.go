package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"smart-product-analyzer/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter はクライアントIPごとのトークンバケットでリクエストを制限します。
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter は新しいRateLimiterを作成します。rps が0以下なら制限しません。
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		limit:    limit,
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow はキーに対するリクエストを許可するかどうかを返します。
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter.AllowN(v.lastSeen, 1)
}

// Cleanup は maxIdle 以上アクセスのないクライアントを削除します。
func (l *RateLimiter) Cleanup(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) >= maxIdle {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// StartCleanup は定期的に Cleanup を実行します。
func (l *RateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup(maxIdle)
			}
		}
	}()
}

// Middleware は制限を超えたリクエストに429を返すGinミドルウェアです。
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			logger.Log.WithField("ip", ip).Warn("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests",
			})
			return
		}
		c.Next()
	}
}
