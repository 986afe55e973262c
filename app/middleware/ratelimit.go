package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/authsvc/app/dto"
)

// RateLimiter enforces a fixed window per key backed by redis INCR/EXPIRE.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Middleware keys the window on the client IP. A redis outage fails open:
// auth availability beats strict limiting.
func (r *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("%s:%s", r.prefix, c.RealIP())

			count, err := r.rdb.Incr(ctx, key).Result()
			if err != nil {
				logrus.WithError(err).Warn("rate limiter unavailable, allowing request")
				return next(c)
			}
			if count == 1 {
				r.rdb.Expire(ctx, key, r.window)
			}
			if count > int64(r.limit) {
				return c.JSON(http.StatusTooManyRequests, dto.Fail("too many requests"))
			}
			return next(c)
		}
	}
}
