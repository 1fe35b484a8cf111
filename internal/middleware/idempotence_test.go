package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// commandCounter records how many commands the middleware sends to redis.
type commandCounter struct {
	commands atomic.Int64
}

func (c *commandCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (c *commandCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		c.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (c *commandCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newIdempotenceRouter(rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Idempotence(rdb, "/api/v2/subscriptions*"))
	r.POST("/api/v2/subscriptions", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/v2/forms/submit", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func newUnreachableRedis(counter *commandCounter) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	rdb.AddHook(counter)
	return rdb
}

func TestIdempotenceSkipsExemptRoutes(t *testing.T) {
	counter := &commandCounter{}
	router := newIdempotenceRouter(newUnreachableRedis(counter))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v2/subscriptions",
			strings.NewReader(`{"email":"a@example.com","campaignId":"camp_1"}`))
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "a retried subscribe must reach its handler")
	}

	assert.Zero(t, counter.commands.Load(), "exempt routes never consult redis")
}

func TestIdempotenceGuardsOtherWrites(t *testing.T) {
	counter := &commandCounter{}
	router := newIdempotenceRouter(newUnreachableRedis(counter))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v2/forms/submit",
		strings.NewReader(`{"name":"Ada"}`))
	router.ServeHTTP(rec, req)

	// The guard degrades open when redis is unreachable, but it did try.
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Positive(t, counter.commands.Load())
}
