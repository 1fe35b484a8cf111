package cms

import (
	"encoding/json"
	"fmt"
)

// EntryRef is a reference field pointing at another entry.
type EntryRef struct {
	UID         string `json:"uid"`
	ContentType string `json:"_content_type_uid,omitempty"`
}

// Campaign is one marketing landing page entry.
type Campaign struct {
	UID           string     `json:"uid"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Summary       string     `json:"summary,omitempty"`
	Body          string     `json:"body,omitempty"` // markdown
	HeroImage     string     `json:"hero_image,omitempty"`
	FormType      string     `json:"form_type,omitempty"`
	EmailTemplate []EntryRef `json:"email_template,omitempty"`
}

// EmailTemplate is a CMS-authored transactional email. Subject and body carry
// {{field}} placeholders filled from submission data.
type EmailTemplate struct {
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	TemplateBody string `json:"template_body"`
	FromEmail    string `json:"from_email"`
	FromName     string `json:"from_name"`
}

// Submission is one append-only form submission entry.
type Submission struct {
	UID        string            `json:"uid"`
	Title      string            `json:"title"`
	CampaignID string            `json:"campaign_id"`
	Data       map[string]string `json:"data"`
	CreatedAt  string            `json:"created_at,omitempty"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
}

// UpstreamError mirrors a non-success response from the content store.
type UpstreamError struct {
	Status int
	Body   json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("cms responded %d: %s", e.Status, string(e.Body))
}
