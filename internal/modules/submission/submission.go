package submission

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/campaign-hub/core/internal/modules/cms"
	"github.com/campaign-hub/core/internal/modules/mailer"
	"github.com/campaign-hub/core/internal/pkg/dispatch"
	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/campaign-hub/core/internal/pkg/slack"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Form variants and the submission fields each one requires.
const (
	FormSimple      = "simple"
	FormDetailed    = "detailed"
	FormDemoRequest = "demo-request"
)

var requiredFields = map[string][]string{
	FormSimple:      {"name", "email"},
	FormDetailed:    {"name", "email", "message"},
	FormDemoRequest: {"name", "email", "company"},
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SubmitDTO struct {
	CampaignID string            `json:"campaignId" binding:"required"`
	FormType   string            `json:"formType"`
	Data       map[string]string `json:"data"       binding:"required"`
}

type submitResponse struct {
	UID       string `json:"uid"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type validationError struct{ missing []string }

func (e *validationError) Error() string {
	return "missing required fields: " + strings.Join(e.missing, ", ")
}

type Service struct {
	cmsClient  *cms.Client
	mailerSvc  *mailer.Service
	slackSvc   *slack.Service
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewService(cmsClient *cms.Client, mailerSvc *mailer.Service, slackSvc *slack.Service,
	dispatcher *dispatch.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		cmsClient:  cmsClient,
		mailerSvc:  mailerSvc,
		slackSvc:   slackSvc,
		dispatcher: dispatcher,
		logger:     logger.Named("SubmissionService"),
	}
}

// Validate checks the payload against its form variant. Unknown variants fall
// back to the simple field set.
func Validate(dto *SubmitDTO) error {
	fields, ok := requiredFields[dto.FormType]
	if !ok {
		fields = requiredFields[FormSimple]
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(dto.Data[f]) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &validationError{missing: missing}
	}
	if !emailShape.MatchString(strings.TrimSpace(dto.Data["email"])) {
		return &validationError{missing: []string{"email"}}
	}
	return nil
}

// Submit stores the entry, then hands the email and chat notifications to
// detached workers. Notification failures never affect the stored entry or
// the caller's response.
func (s *Service) Submit(ctx context.Context, dto *SubmitDTO) (*cms.Submission, error) {
	if err := Validate(dto); err != nil {
		return nil, err
	}

	now := time.Now()
	data := make(map[string]string, len(dto.Data)+2)
	for k, v := range dto.Data {
		data[k] = strings.TrimSpace(v)
	}
	data["campaignId"] = dto.CampaignID
	if dto.FormType != "" {
		data["formType"] = dto.FormType
	}

	stored, err := s.cmsClient.CreateSubmission(ctx, cms.Submission{
		Title:      "Submission - " + now.Format(time.RFC3339),
		CampaignID: dto.CampaignID,
		Data:       data,
	})
	if err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}

	s.notify(dto, data, now)
	return stored, nil
}

func (s *Service) notify(dto *SubmitDTO, data map[string]string, submittedAt time.Time) {
	email := data["email"]

	s.dispatcher.Go("submission-email", func(ctx context.Context) error {
		result, err := s.mailerSvc.SendCampaignEmail(ctx, &mailer.SendDTO{
			CampaignID: dto.CampaignID,
			Email:      email,
			Name:       data["name"],
			Data:       data,
		})
		if err != nil {
			return err
		}
		if !result.EmailSent {
			s.logger.Info("confirmation email skipped",
				zap.String("campaignId", dto.CampaignID),
				zap.String("reason", result.Reason))
		}
		return nil
	})

	if !s.slackSvc.Enabled() {
		return
	}
	s.dispatcher.Go("submission-slack", func(ctx context.Context) error {
		notice := slack.SubmissionNotice{
			CampaignID:     dto.CampaignID,
			FormData:       data,
			SubmissionTime: submittedAt.Format(time.RFC1123),
		}
		if campaign, err := s.cmsClient.GetCampaign(ctx, dto.CampaignID); err == nil {
			notice.CampaignTitle = campaign.Title
			notice.CampaignURL = campaign.URL
		}
		_, err := s.slackSvc.NotifySubmission(ctx, notice)
		return err
	})
}

// List returns stored submissions, optionally scoped to one campaign.
func (s *Service) List(ctx context.Context, campaignID string) ([]cms.Submission, error) {
	return s.cmsClient.ListSubmissions(ctx, campaignID)
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, operatorMW gin.HandlerFunc) {
	g := rg.Group("/forms")
	g.POST("/submit", h.submit)
	g.GET("/submissions", operatorMW, h.list)
}

// POST /forms/submit
func (h *Handler) submit(c *gin.Context) {
	var dto SubmitDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "campaignId and data are required")
		return
	}
	stored, err := h.svc.Submit(c.Request.Context(), &dto)
	if err != nil {
		var vErr *validationError
		if errors.As(err, &vErr) {
			response.UnprocessableEntity(c, vErr.Error())
			return
		}
		var upstream *cms.UpstreamError
		if errors.As(err, &upstream) {
			response.Upstream(c, upstream.Status, "content store request failed", nil)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, submitResponse{UID: stored.UID, CreatedAt: stored.CreatedAt})
}

// GET /forms/submissions?campaignId=
func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Query("campaignId"))
	if err != nil {
		var upstream *cms.UpstreamError
		if errors.As(err, &upstream) {
			response.Upstream(c, upstream.Status, "content store request failed", nil)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}
