package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const ContextKeyOperator = "operator"

// OperatorAuth guards operator-only endpoints (fan-out triggers, submission
// listings) with the static bearer token from the config file. The hub has no
// user accounts, so there is nothing to issue sessions for.
func OperatorAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			// No token configured: operator surface is closed, not open.
			response.Unauthorized(c)
			return
		}
		presented := extractToken(c)
		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyOperator, true)
		c.Next()
	}
}

// OperatorDetect marks operator requests without gating them, so shared
// middleware can exempt them from caching and rate limits.
func OperatorDetect(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" {
			presented := extractToken(c)
			if presented != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1 {
				c.Set(ContextKeyOperator, true)
			}
		}
		c.Next()
	}
}

// IsOperator reports whether the current request passed operator auth.
func IsOperator(c *gin.Context) bool {
	v, ok := c.Get(ContextKeyOperator)
	return ok && v == true
}

func extractToken(c *gin.Context) string {
	if raw := c.GetHeader("Authorization"); raw != "" {
		return NormalizeToken(raw)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken strips the Bearer prefix and surrounding whitespace.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	return token
}
