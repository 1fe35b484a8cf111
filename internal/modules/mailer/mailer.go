package mailer

import (
	"context"
	"errors"
	"fmt"

	appconfig "github.com/campaign-hub/core/internal/config"
	"github.com/campaign-hub/core/internal/modules/cms"
	"github.com/campaign-hub/core/internal/pkg/mail"
	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SendDTO struct {
	CampaignID string            `json:"campaignId" binding:"required"`
	Email      string            `json:"email"      binding:"required"`
	Name       string            `json:"name"`
	Data       map[string]string `json:"data"`
}

// Result reports what happened to a confirmation email. A campaign without a
// template is a normal outcome, not an error.
type Result struct {
	EmailSent bool   `json:"emailSent"`
	Reason    string `json:"reason,omitempty"`
}

type Service struct {
	cmsClient *cms.Client
	sender    *mail.Sender
	mailCfg   appconfig.MailConfig
	logger    *zap.Logger
}

func NewService(cmsClient *cms.Client, sender *mail.Sender, mailCfg appconfig.MailConfig, logger *zap.Logger) *Service {
	return &Service{
		cmsClient: cmsClient,
		sender:    sender,
		mailCfg:   mailCfg,
		logger:    logger.Named("MailerService"),
	}
}

// SendCampaignEmail resolves the campaign's template reference and sends the
// confirmation email, filling {{field}} placeholders from the submission data.
func (s *Service) SendCampaignEmail(ctx context.Context, dto *SendDTO) (Result, error) {
	campaign, err := s.cmsClient.GetCampaign(ctx, dto.CampaignID)
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			return Result{Reason: "campaign not found"}, nil
		}
		return Result{}, err
	}
	if len(campaign.EmailTemplate) == 0 {
		return Result{Reason: "no email template configured"}, nil
	}

	tpl, err := s.cmsClient.GetEmailTemplate(ctx, campaign.EmailTemplate[0].UID)
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			return Result{Reason: "email template missing"}, nil
		}
		return Result{}, err
	}

	if !s.sender.Enabled() {
		s.logger.Warn("mail transport disabled, skipping send",
			zap.String("campaignId", dto.CampaignID))
		return Result{Reason: "mail transport not configured"}, nil
	}

	data := map[string]string{
		"email":          dto.Email,
		"campaign_title": campaign.Title,
		"campaign_url":   campaign.URL,
	}
	for k, v := range dto.Data {
		data[k] = v
	}
	data["name"] = mail.FallbackName(data, dto.Name)

	msg := mail.Message{
		From:    s.fromAddress(tpl),
		To:      []string{dto.Email},
		Subject: mail.Substitute(tpl.Subject, data),
		HTML:    mail.Substitute(tpl.TemplateBody, data),
	}
	if err := s.sender.Send(msg); err != nil {
		return Result{}, fmt.Errorf("send campaign email: %w", err)
	}

	s.logger.Info("confirmation email sent",
		zap.String("campaignId", dto.CampaignID),
		zap.String("template", tpl.Title))
	return Result{EmailSent: true}, nil
}

func (s *Service) fromAddress(tpl *cms.EmailTemplate) string {
	if tpl.FromEmail != "" {
		if tpl.FromName != "" {
			return fmt.Sprintf("%q <%s>", tpl.FromName, tpl.FromEmail)
		}
		return tpl.FromEmail
	}
	return s.mailCfg.From
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/mail")
	g.POST("/send", h.send)
}

// POST /mail/send
func (h *Handler) send(c *gin.Context) {
	var dto SendDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "campaignId and email are required")
		return
	}
	result, err := h.svc.SendCampaignEmail(c.Request.Context(), &dto)
	if err != nil {
		var upstream *cms.UpstreamError
		if errors.As(err, &upstream) {
			response.Upstream(c, upstream.Status, "content store request failed", nil)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, result)
}
