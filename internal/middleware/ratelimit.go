package middleware

import (
	"fmt"
	"time"

	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitMax    = 50
	rateLimitWindow = time.Second
)

// RateLimit enforces a sliding-window limit of 50 requests per second per IP.
// Operator-authenticated requests are exempt. Sustained abuse is logged for
// the on-call channel to pick up.
func RateLimit(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("RateLimit")
	return func(c *gin.Context) {
		if IsOperator(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		windowKey := time.Now().Unix()
		key := fmt.Sprintf("ch:rate_limit:%s:%d", ip, windowKey)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}

		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > rateLimitMax {
			log.Warn("rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", c.Request.URL.Path),
				zap.Int64("count", count),
			)
			response.TooManyRequests(c, "too many requests")
			return
		}

		c.Next()
	}
}
