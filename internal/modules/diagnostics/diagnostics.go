package diagnostics

import (
	"time"

	appconfig "github.com/campaign-hub/core/internal/config"
	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler exposes operational probes. The push probe reports which
// credentials are present without ever echoing their values.
type Handler struct {
	cfg     *appconfig.AppConfig
	started time.Time
}

func NewHandler(cfg *appconfig.AppConfig) *Handler {
	return &Handler{cfg: cfg, started: time.Now()}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", h.ping)
	rg.GET("/health", h.health)

	g := rg.Group("/diagnostics")
	g.GET("/push", h.push)
}

// GET /ping
func (h *Handler) ping(c *gin.Context) {
	response.OK(c, gin.H{"message": "pong"})
}

// GET /health
func (h *Handler) health(c *gin.Context) {
	response.OK(c, gin.H{
		"status": "ok",
		"env":    h.cfg.Env,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// GET /diagnostics/push
func (h *Handler) push(c *gin.Context) {
	push := h.cfg.Push
	response.OK(c, gin.H{
		"enabled":        push.Enable,
		"projectId":      Mask(push.ProjectID),
		"hasCredentials": push.CredentialsJSON != "" || push.CredentialsFile != "",
		"vapidPublicKey": Mask(push.VAPIDPublicKey),
	})
}

// Mask keeps just enough of a value to confirm which one is configured.
func Mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "***"
	}
	return v[:4] + "..." + v[len(v)-4:]
}
