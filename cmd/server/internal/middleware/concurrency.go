package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimiter 限制同时执行的流水线数量，超出时排队等待 wait 时长
type ConcurrencyLimiter struct {
	sem  *semaphore.Weighted
	wait time.Duration
}

// NewConcurrencyLimiter 创建限流器；max <= 0 时按 1 处理
func NewConcurrencyLimiter(max int, wait time.Duration) *ConcurrencyLimiter {
	if max <= 0 {
		max = 1
	}
	return &ConcurrencyLimiter{sem: semaphore.NewWeighted(int64(max)), wait: wait}
}

// Acquire 在 wait 时长内获取一个执行槽位
func (l *ConcurrencyLimiter) Acquire(ctx context.Context) error {
	if l.wait <= 0 {
		if !l.sem.TryAcquire(1) {
			return context.DeadlineExceeded
		}
		return nil
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	return l.sem.Acquire(timeoutCtx, 1)
}

// Release 释放槽位，必须与成功的 Acquire 成对调用
func (l *ConcurrencyLimiter) Release() {
	l.sem.Release(1)
}

// Limit 返回 gin 中间件；排队超时返回 503 与 Retry-After
func (l *ConcurrencyLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := l.Acquire(c.Request.Context()); err != nil {
			reqID, _ := c.Get("request_id")
			c.Header("Retry-After", "30")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":      "too many transcriptions in progress",
				"request_id": reqID,
			})
			return
		}
		defer l.Release()
		c.Next()
	}
}
