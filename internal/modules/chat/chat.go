package chat

import (
	"time"

	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/campaign-hub/core/internal/pkg/slack"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotifyDTO struct {
	CampaignID     string            `json:"campaignId"    binding:"required"`
	CampaignTitle  string            `json:"campaignTitle"`
	CampaignURL    string            `json:"campaignUrl"`
	FormData       map[string]string `json:"formData"      binding:"required"`
	SubmissionTime string            `json:"submissionTime"`
}

// Handler exposes the operator-channel notification as its own endpoint so
// front ends can post notices directly.
type Handler struct {
	slackSvc *slack.Service
	logger   *zap.Logger
}

func NewHandler(slackSvc *slack.Service, logger *zap.Logger) *Handler {
	return &Handler{slackSvc: slackSvc, logger: logger.Named("ChatHandler")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/chat")
	g.POST("/notify", h.notify)
}

// POST /chat/notify
func (h *Handler) notify(c *gin.Context) {
	var dto NotifyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "campaignId and formData are required")
		return
	}

	if !h.slackSvc.Enabled() {
		response.OK(c, gin.H{"notified": false, "reason": "slack not configured"})
		return
	}

	submittedAt := dto.SubmissionTime
	if submittedAt == "" {
		submittedAt = time.Now().Format(time.RFC1123)
	}

	ts, err := h.slackSvc.NotifySubmission(c.Request.Context(), slack.SubmissionNotice{
		CampaignID:     dto.CampaignID,
		CampaignTitle:  dto.CampaignTitle,
		CampaignURL:    dto.CampaignURL,
		FormData:       dto.FormData,
		SubmissionTime: submittedAt,
	})
	if err != nil {
		h.logger.Warn("slack notification failed",
			zap.String("campaignId", dto.CampaignID), zap.Error(err))
		response.OK(c, gin.H{"notified": false, "reason": err.Error()})
		return
	}
	response.OK(c, gin.H{"notified": true, "ts": ts})
}
