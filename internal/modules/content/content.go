package content

import (
	"bytes"
	"errors"

	"github.com/campaign-hub/core/internal/modules/cms"
	"github.com/campaign-hub/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// Handler serves campaign landing page content. Read-only; all writes happen
// in the CMS.
type Handler struct {
	cmsClient *cms.Client
	logger    *zap.Logger
}

func NewHandler(cmsClient *cms.Client, logger *zap.Logger) *Handler {
	return &Handler{cmsClient: cmsClient, logger: logger.Named("ContentHandler")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/campaigns")
	g.GET("", h.list)
	g.GET("/:slug", h.bySlug)
}

type campaignSummary struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary,omitempty"`
}

type campaignPage struct {
	campaignSummary
	HeroImage string `json:"heroImage,omitempty"`
	FormType  string `json:"formType,omitempty"`
	BodyHTML  string `json:"bodyHtml"`
}

// GET /campaigns
func (h *Handler) list(c *gin.Context) {
	entries, err := h.cmsClient.ListCampaigns(c.Request.Context())
	if err != nil {
		// Content failures degrade to an empty listing; the page still renders.
		h.logger.Warn("campaign listing unavailable", zap.Error(err))
		response.OK(c, []campaignSummary{})
		return
	}

	out := make([]campaignSummary, len(entries))
	for i, entry := range entries {
		out[i] = campaignSummary{
			UID:     entry.UID,
			Title:   entry.Title,
			URL:     entry.URL,
			Summary: entry.Summary,
		}
	}
	response.OK(c, out)
}

// GET /campaigns/:slug
func (h *Handler) bySlug(c *gin.Context) {
	slug := c.Param("slug")
	entry, err := h.cmsClient.GetCampaignBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			response.NotFoundMsg(c, "campaign not found")
			return
		}
		// Degrade to a default shell instead of a broken page.
		h.logger.Warn("campaign fetch failed", zap.String("slug", slug), zap.Error(err))
		response.OK(c, campaignPage{campaignSummary: campaignSummary{URL: "/" + slug}})
		return
	}

	response.OK(c, campaignPage{
		campaignSummary: campaignSummary{
			UID:     entry.UID,
			Title:   entry.Title,
			URL:     entry.URL,
			Summary: entry.Summary,
		},
		HeroImage: entry.HeroImage,
		FormType:  entry.FormType,
		BodyHTML:  renderMarkdown(entry.Body),
	})
}

func renderMarkdown(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(src), &buf); err != nil {
		return ""
	}
	return buf.String()
}
