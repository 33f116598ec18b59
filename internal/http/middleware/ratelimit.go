package middleware

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type RateLimitConfig struct {
	Redis     *redis.Client
	RPS       int    // allowed requests per window per caller
	KeyPrefix string // e.g. "rl:ops:"
	Window    time.Duration
}

// RateLimitMiddleware is a fixed-window per-IP limiter backed by Redis INCR.
// With no Redis or a zero RPS it passes everything through (dev). A Redis
// error also passes through: the limiter must never take the API down.
func RateLimitMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Redis == nil || cfg.RPS <= 0 {
				return next(c)
			}

			ctx := c.Request().Context()
			window := time.Now().UnixNano() / int64(cfg.Window)
			key := cfg.KeyPrefix + c.RealIP() + ":" + strconv.FormatInt(window, 10)

			n, err := cfg.Redis.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if n == 1 {
				cfg.Redis.Expire(ctx, key, cfg.Window*2)
			}

			if n > int64(cfg.RPS) {
				c.Response().Header().Set("Retry-After",
					strconv.Itoa(int(cfg.Window.Round(time.Second)/time.Second)))
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			}
			return next(c)
		}
	}
}
