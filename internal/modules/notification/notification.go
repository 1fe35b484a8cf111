package notification

import (
	"context"
	"errors"
	"time"

	"github.com/campaign-hub/core/internal/models"
	"github.com/campaign-hub/core/internal/pkg/fcm"
	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Multicast calls accept at most this many tokens per request.
const multicastBatchSize = 500

type SendDTO struct {
	CampaignID string `json:"campaignId" binding:"required"`
	Title      string `json:"title"      binding:"required"`
	Body       string `json:"body"       binding:"required"`
	ImageURL   string `json:"imageUrl"`
	Link       string `json:"link"`
}

// SendReport summarizes one fan-out: how many subscribers were targeted, how
// deliveries went, and how many dead tokens were pruned afterwards.
type SendReport struct {
	Total     int `json:"total"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	CleanedUp int `json:"cleanedUp"`
}

type Service struct {
	db     *gorm.DB
	sender fcm.MulticastSender
	logger *zap.Logger
}

func NewService(db *gorm.DB, sender fcm.MulticastSender, logger *zap.Logger) *Service {
	return &Service{db: db, sender: sender, logger: logger.Named("NotificationService")}
}

// Send fans a campaign notification out to every subscriber of the campaign
// that holds a device token, then prunes tokens the backend rejected as
// permanently invalid.
func (s *Service) Send(ctx context.Context, dto *SendDTO) (SendReport, error) {
	if s.sender == nil {
		return SendReport{}, errors.New("push delivery not configured")
	}

	tokens, err := s.campaignTokens(dto.CampaignID)
	if err != nil {
		return SendReport{}, err
	}
	report := SendReport{Total: len(tokens)}
	if len(tokens) == 0 {
		return report, nil
	}

	var invalid []fcm.TokenError
	for _, batch := range chunkTokens(tokens, multicastBatchSize) {
		result, err := s.sender.SendMulticast(ctx, fcm.Message{
			Tokens:     batch,
			CampaignID: dto.CampaignID,
			Title:      dto.Title,
			Body:       dto.Body,
			ImageURL:   dto.ImageURL,
			Link:       dto.Link,
		})
		if err != nil {
			return report, err
		}
		report.Sent += result.Sent
		report.Failed += result.Failed
		for _, f := range result.Failures {
			if f.Permanent {
				invalid = append(invalid, f)
			}
		}
	}

	cleaned, err := s.CleanupTokens(invalid)
	if err != nil {
		// Delivery already happened; report it even if pruning failed.
		s.logger.Error("token cleanup failed", zap.Error(err))
		return report, nil
	}
	report.CleanedUp = cleaned

	s.logger.Info("notification fan-out complete",
		zap.String("campaignId", dto.CampaignID),
		zap.Int("total", report.Total),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("cleanedUp", report.CleanedUp))
	return report, nil
}

func (s *Service) campaignTokens(campaignID string) ([]string, error) {
	var rows []string
	err := s.db.Model(&models.CampaignSubscriptionModel{}).
		Where("campaign_id = ? AND notifications_enabled = ? AND device_token <> ''", campaignID, true).
		Distinct().
		Pluck("device_token", &rows).Error
	return rows, err
}

// CleanupTokens removes permanently dead tokens everywhere they appear: the
// campaign subscription rows and the per-user rollups. All updates happen in
// one transaction so a crash never leaves the two views disagreeing.
func (s *Service) CleanupTokens(invalid []fcm.TokenError) (int, error) {
	if len(invalid) == 0 {
		return 0, nil
	}

	reasons := make(map[string]string, len(invalid))
	tokens := make([]string, 0, len(invalid))
	for _, f := range invalid {
		if _, seen := reasons[f.Token]; seen {
			continue
		}
		reasons[f.Token] = f.Reason
		tokens = append(tokens, f.Token)
	}

	now := time.Now()
	cleaned := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var affected []models.CampaignSubscriptionModel
		if err := tx.Where("device_token IN ?", tokens).Find(&affected).Error; err != nil {
			return err
		}

		for i := range affected {
			sub := &affected[i]
			reason := reasons[sub.DeviceToken]
			if err := tx.Model(sub).Updates(map[string]interface{}{
				"device_token":          "",
				"notifications_enabled": false,
				"token_removed_at":      now,
				"token_removed_reason":  reason,
			}).Error; err != nil {
				return err
			}
			cleaned++
		}

		emails := make(map[string]struct{}, len(affected))
		for _, sub := range affected {
			emails[sub.Email] = struct{}{}
		}
		for email := range emails {
			if err := s.scrubUserTokens(tx, email, reasons, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cleaned, nil
}

// scrubUserTokens drops the dead tokens from one rollup row and flips each
// orphaned campaign to notifications-off unless another live token still
// covers it.
func (s *Service) scrubUserTokens(tx *gorm.DB, email string, dead map[string]string, now time.Time) error {
	var user models.UserSubscriptionModel
	err := tx.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	orphaned := map[string]struct{}{}
	for token, ref := range user.DeviceTokens {
		if _, gone := dead[token]; !gone {
			continue
		}
		for _, campaignID := range ref.Campaigns {
			orphaned[campaignID] = struct{}{}
		}
		delete(user.DeviceTokens, token)
	}
	if len(orphaned) == 0 {
		return nil
	}

	for _, ref := range user.DeviceTokens {
		for _, campaignID := range ref.Campaigns {
			delete(orphaned, campaignID)
		}
	}
	for campaignID := range orphaned {
		ref, ok := user.Campaigns[campaignID]
		if !ok {
			continue
		}
		ref.NotificationsEnabled = false
		user.Campaigns[campaignID] = ref
	}

	user.LastUpdated = now
	return tx.Save(&user).Error
}

// Sweep dry-run-validates every live token and prunes the dead ones. Run
// periodically so lists stay clean between campaign sends.
func (s *Service) Sweep(ctx context.Context) (SendReport, error) {
	if s.sender == nil {
		return SendReport{}, errors.New("push delivery not configured")
	}

	var tokens []string
	err := s.db.Model(&models.CampaignSubscriptionModel{}).
		Where("notifications_enabled = ? AND device_token <> ''", true).
		Distinct().
		Pluck("device_token", &tokens).Error
	if err != nil {
		return SendReport{}, err
	}

	report := SendReport{Total: len(tokens)}
	if len(tokens) == 0 {
		return report, nil
	}

	var invalid []fcm.TokenError
	for _, batch := range chunkTokens(tokens, multicastBatchSize) {
		result, err := s.sender.ValidateTokens(ctx, batch)
		if err != nil {
			return report, err
		}
		report.Sent += result.Sent
		report.Failed += result.Failed
		for _, f := range result.Failures {
			if f.Permanent {
				invalid = append(invalid, f)
			}
		}
	}

	cleaned, err := s.CleanupTokens(invalid)
	if err != nil {
		return report, err
	}
	report.CleanedUp = cleaned
	return report, nil
}

// Stats reports subscriber counts, optionally scoped to one campaign.
func (s *Service) Stats(campaignID string) (gin.H, error) {
	base := s.db.Model(&models.CampaignSubscriptionModel{})
	if campaignID != "" {
		base = base.Where("campaign_id = ?", campaignID)
	}

	var total, enabled int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("notifications_enabled = ? AND device_token <> ''", true).
		Count(&enabled).Error; err != nil {
		return nil, err
	}
	return gin.H{
		"totalSubscribers":     total,
		"notificationEnabled":  enabled,
		"notificationDisabled": total - enabled,
	}, nil
}

func chunkTokens(tokens []string, size int) [][]string {
	var out [][]string
	for len(tokens) > size {
		out = append(out, tokens[:size])
		tokens = tokens[size:]
	}
	if len(tokens) > 0 {
		out = append(out, tokens)
	}
	return out
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, operatorMW gin.HandlerFunc) {
	g := rg.Group("/notifications", operatorMW)
	g.POST("/send", h.send)
	g.POST("/sweep", h.sweep)
	g.GET("/stats", h.stats)
}

// POST /notifications/send
func (h *Handler) send(c *gin.Context) {
	var dto SendDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "campaignId, title and body are required")
		return
	}
	report, err := h.svc.Send(c.Request.Context(), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, report)
}

// POST /notifications/sweep
func (h *Handler) sweep(c *gin.Context) {
	report, err := h.svc.Sweep(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, report)
}

// GET /notifications/stats?campaignId=
func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Query("campaignId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, stats)
}
