package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appconfig "github.com/campaign-hub/core/internal/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no entry matches the lookup.
var ErrNotFound = errors.New("cms: entry not found")

const (
	campaignsContentType   = "campaigns"
	templatesContentType   = "email_templates"
	submissionsContentType = "form_submissions"
)

// Client talks to the headless content store. Published entries are read
// through the CDN host with the delivery token; form-submission entries are
// written through the API host with the management token. Constructed once at
// startup.
type Client struct {
	cfg        appconfig.CMSConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg appconfig.CMSConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.Named("CMSClient"),
	}
}

// ListCampaigns returns all published campaign entries.
func (c *Client) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	var out struct {
		Entries []Campaign `json:"entries"`
	}
	endpoint := c.deliveryURL(campaignsContentType, "", nil)
	if err := c.do(ctx, http.MethodGet, endpoint, deliveryAuth, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// GetCampaign fetches one campaign entry by uid.
func (c *Client) GetCampaign(ctx context.Context, uid string) (*Campaign, error) {
	var out struct {
		Entry *Campaign `json:"entry"`
	}
	endpoint := c.deliveryURL(campaignsContentType, uid, nil)
	if err := c.do(ctx, http.MethodGet, endpoint, deliveryAuth, nil, &out); err != nil {
		return nil, err
	}
	if out.Entry == nil {
		return nil, ErrNotFound
	}
	return out.Entry, nil
}

// GetCampaignBySlug fetches one campaign entry by its url path.
func (c *Client) GetCampaignBySlug(ctx context.Context, slug string) (*Campaign, error) {
	query, _ := json.Marshal(map[string]string{"url": "/" + slug})
	params := url.Values{"query": []string{string(query)}}

	var out struct {
		Entries []Campaign `json:"entries"`
	}
	endpoint := c.deliveryURL(campaignsContentType, "", params)
	if err := c.do(ctx, http.MethodGet, endpoint, deliveryAuth, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Entries) == 0 {
		return nil, ErrNotFound
	}
	return &out.Entries[0], nil
}

// GetEmailTemplate fetches a transactional email template entry by uid.
func (c *Client) GetEmailTemplate(ctx context.Context, uid string) (*EmailTemplate, error) {
	var out struct {
		Entry *EmailTemplate `json:"entry"`
	}
	endpoint := c.deliveryURL(templatesContentType, uid, nil)
	if err := c.do(ctx, http.MethodGet, endpoint, deliveryAuth, nil, &out); err != nil {
		return nil, err
	}
	if out.Entry == nil {
		return nil, ErrNotFound
	}
	return out.Entry, nil
}

// CreateSubmission appends one form-submission entry through the management
// API. Entries are created once and never mutated.
func (c *Client) CreateSubmission(ctx context.Context, sub Submission) (*Submission, error) {
	payload := map[string]interface{}{
		"entry": map[string]interface{}{
			"title":       sub.Title,
			"campaign_id": sub.CampaignID,
			"data":        sub.Data,
			"locale":      "en-us",
		},
	}

	var out struct {
		Entry *Submission `json:"entry"`
	}
	endpoint := fmt.Sprintf("%s/v3/content_types/%s/entries", c.cfg.APIBase, submissionsContentType)
	if err := c.do(ctx, http.MethodPost, endpoint, managementAuth, payload, &out); err != nil {
		return nil, err
	}
	if out.Entry == nil {
		return &sub, nil
	}
	return out.Entry, nil
}

// ListSubmissions returns stored submissions, optionally filtered by campaign.
func (c *Client) ListSubmissions(ctx context.Context, campaignID string) ([]Submission, error) {
	endpoint := fmt.Sprintf("%s/v3/content_types/%s/entries", c.cfg.APIBase, submissionsContentType)
	if campaignID != "" {
		query, _ := json.Marshal(map[string]string{"campaign_id": campaignID})
		endpoint += "?query=" + url.QueryEscape(string(query))
	}

	var out struct {
		Entries []Submission `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, managementAuth, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

type authMode int

const (
	deliveryAuth authMode = iota
	managementAuth
)

func (c *Client) deliveryURL(contentType, uid string, params url.Values) string {
	endpoint := fmt.Sprintf("%s/v3/content_types/%s/entries", c.cfg.CDNBase, contentType)
	if uid != "" {
		endpoint += "/" + url.PathEscape(uid)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return endpoint
}

func (c *Client) do(ctx context.Context, method, endpoint string, mode authMode, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("api_key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	switch mode {
	case deliveryAuth:
		req.Header.Set("access_token", c.cfg.DeliveryToken)
		req.Header.Set("environment", c.cfg.Environment)
	case managementAuth:
		req.Header.Set("authorization", c.cfg.ManagementToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cms request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("cms response read: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("cms error response",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return &UpstreamError{Status: resp.StatusCode, Body: raw}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cms response decode: %w", err)
	}
	return nil
}
