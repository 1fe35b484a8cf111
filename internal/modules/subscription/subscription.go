package subscription

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/campaign-hub/core/internal/models"
	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscribeDTO struct {
	Name          string `json:"name"          binding:"required"`
	Email         string `json:"email"         binding:"required"`
	CampaignID    string `json:"campaignId"    binding:"required"`
	CampaignTitle string `json:"campaignTitle"`
	CampaignURL   string `json:"campaignUrl"`
	DeviceToken   string `json:"deviceToken"`
}

type subscriptionResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	CampaignID           string    `json:"campaignId"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	SubmittedAt          time.Time `json:"submittedAt"`
}

func toResponse(m *models.CampaignSubscriptionModel) subscriptionResponse {
	return subscriptionResponse{
		ID: m.ID, Name: m.Name, Email: m.Email, CampaignID: m.CampaignID,
		NotificationsEnabled: m.NotificationsEnabled, SubmittedAt: m.SubmittedAt,
	}
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var errInvalidEmail = errors.New("invalid email address")

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger.Named("SubscriptionService")}
}

// Subscribe records a campaign signup. Repeat signups for the same email and
// campaign update the existing record in place rather than creating a second
// one, so the endpoint can be retried safely.
func (s *Service) Subscribe(dto *SubscribeDTO, ip, userAgent string) (*models.CampaignSubscriptionModel, error) {
	email := models.NormalizeEmail(dto.Email)
	if !emailShape.MatchString(email) {
		return nil, errInvalidEmail
	}
	campaignID := strings.TrimSpace(dto.CampaignID)
	now := time.Now()

	sub := models.CampaignSubscriptionModel{
		DocID:                models.SubscriptionDocID(email, campaignID),
		Name:                 strings.TrimSpace(dto.Name),
		Email:                email,
		CampaignID:           campaignID,
		CampaignTitle:        dto.CampaignTitle,
		CampaignURL:          dto.CampaignURL,
		SubmittedAt:          now,
		IPAddress:            ip,
		UserAgent:            userAgent,
		NotificationsEnabled: dto.DeviceToken != "",
		DeviceToken:          dto.DeviceToken,
	}
	if dto.DeviceToken != "" {
		sub.TokenUpdatedAt = &now
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		assignments := map[string]interface{}{
			"name":         sub.Name,
			"submitted_at": now,
			"ip_address":   ip,
			"user_agent":   userAgent,
		}
		if dto.CampaignTitle != "" {
			assignments["campaign_title"] = dto.CampaignTitle
		}
		if dto.CampaignURL != "" {
			assignments["campaign_url"] = dto.CampaignURL
		}
		if dto.DeviceToken != "" {
			// A fresh token re-enables delivery even if a previous one was
			// pruned as dead.
			assignments["device_token"] = dto.DeviceToken
			assignments["notifications_enabled"] = true
			assignments["token_updated_at"] = now
			assignments["token_removed_at"] = nil
			assignments["token_removed_reason"] = ""
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doc_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).Create(&sub).Error; err != nil {
			return err
		}
		if err := tx.First(&sub, "doc_id = ?", sub.DocID).Error; err != nil {
			return err
		}
		return s.mergeUserIndex(tx, email, campaignID, dto, now)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// mergeUserIndex maintains the per-user rollup: one row per email carrying the
// set of campaigns they joined and every device token they registered.
func (s *Service) mergeUserIndex(tx *gorm.DB, email, campaignID string, dto *SubscribeDTO, now time.Time) error {
	var user models.UserSubscriptionModel
	err := tx.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.UserSubscriptionModel{
			Email:        email,
			Name:         strings.TrimSpace(dto.Name),
			Campaigns:    map[string]models.CampaignRef{},
			DeviceTokens: map[string]models.TokenRef{},
		}
	} else if err != nil {
		return err
	}

	if user.Campaigns == nil {
		user.Campaigns = map[string]models.CampaignRef{}
	}
	if user.DeviceTokens == nil {
		user.DeviceTokens = map[string]models.TokenRef{}
	}

	ref := user.Campaigns[campaignID]
	if ref.SubscribedAt.IsZero() {
		ref.SubscribedAt = now
	}
	ref.CampaignTitle = dto.CampaignTitle
	ref.CampaignURL = dto.CampaignURL
	ref.NotificationsEnabled = dto.DeviceToken != "" || ref.NotificationsEnabled
	user.Campaigns[campaignID] = ref

	if dto.DeviceToken != "" {
		tok := user.DeviceTokens[dto.DeviceToken]
		if tok.AddedAt.IsZero() {
			tok.AddedAt = now
		}
		if !containsString(tok.Campaigns, campaignID) {
			tok.Campaigns = append(tok.Campaigns, campaignID)
		}
		user.DeviceTokens[dto.DeviceToken] = tok
	}

	user.Name = strings.TrimSpace(dto.Name)
	user.LastUpdated = now
	return tx.Save(&user).Error
}

// Check reports whether an email is already subscribed to a campaign.
func (s *Service) Check(email, campaignID string) (*models.CampaignSubscriptionModel, error) {
	docID := models.SubscriptionDocID(email, campaignID)
	var sub models.CampaignSubscriptionModel
	if err := s.db.First(&sub, "doc_id = ?", docID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetUser returns the rollup row for an email, or nil when unknown.
func (s *Service) GetUser(email string) (*models.UserSubscriptionModel, error) {
	var user models.UserSubscriptionModel
	err := s.db.First(&user, "email = ?", models.NormalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/subscriptions")
	g.POST("", h.create)
	g.GET("/check", h.check)
}

// POST /subscriptions
func (h *Handler) create(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "name, email and campaignId are required")
		return
	}
	sub, err := h.svc.Subscribe(&dto, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errInvalidEmail) {
			response.UnprocessableEntity(c, "invalid email address")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, toResponse(sub))
}

// GET /subscriptions/check?email=&campaignId=
func (h *Handler) check(c *gin.Context) {
	email := c.Query("email")
	campaignID := c.Query("campaignId")
	if email == "" || campaignID == "" {
		response.BadRequest(c, "email and campaignId are required")
		return
	}
	sub, err := h.svc.Check(email, campaignID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if sub == nil {
		response.OK(c, gin.H{"hasSubscribed": false})
		return
	}
	response.OK(c, gin.H{
		"hasSubscribed":        true,
		"notificationsEnabled": sub.NotificationsEnabled,
		"subscribedAt":         sub.SubmittedAt,
	})
}
