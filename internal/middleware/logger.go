package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/medibook/backend/internal/zlog"
)

// Logger middleware for request logging
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		zlog.Info("request",
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("service", CurrentService(c)))

		return err
	}
}

// rateLimitEntry tracks request count per IP
type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// RateLimiter middleware allowing maxRequests per window per client IP
func RateLimiter(maxRequests int, window time.Duration) fiber.Handler {
	var (
		mu      sync.Mutex
		entries = make(map[string]*rateLimitEntry)
	)

	return func(c *fiber.Ctx) error {
		if maxRequests <= 0 {
			return c.Next()
		}
		ip := c.IP()
		now := time.Now()

		mu.Lock()
		entry, exists := entries[ip]
		if !exists || now.After(entry.resetTime) {
			if len(entries) > 10000 {
				for k, e := range entries {
					if now.After(e.resetTime) {
						delete(entries, k)
					}
				}
			}
			entries[ip] = &rateLimitEntry{count: 1, resetTime: now.Add(window)}
			mu.Unlock()
			return c.Next()
		}

		if entry.count >= maxRequests {
			remaining := int(entry.resetTime.Sub(now).Seconds())
			mu.Unlock()
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Rate limit exceeded. Try again in " + strconv.Itoa(remaining) + " seconds",
			})
		}

		entry.count++
		mu.Unlock()
		return c.Next()
	}
}

// Recovery middleware to recover from panics
func Recovery() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				zlog.Error("Panic recovered", zap.Any("panic", r), zap.String("path", c.Path()))
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"message": "Internal server error",
				})
			}
		}()
		return c.Next()
	}
}
