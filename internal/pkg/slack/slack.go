package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const postMessageURL = "https://slack.com/api/chat.postMessage"

// Service posts operator notifications to a fixed Slack channel.
type Service struct {
	token      string
	channel    string
	httpClient *http.Client
}

// New creates a Slack service. An empty token disables sending.
func New(token, channel string) *Service {
	return &Service{
		token:      token,
		channel:    channel,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a bot token is configured.
func (s *Service) Enabled() bool { return s.token != "" }

// SubmissionNotice carries everything shown in a new-submission message.
type SubmissionNotice struct {
	CampaignID     string
	CampaignTitle  string
	CampaignURL    string
	FormData       map[string]string
	SubmissionTime string
}

type block map[string]interface{}

func text(kind, body string) map[string]string {
	return map[string]string{"type": kind, "text": body}
}

// NotifySubmission posts a structured block message for one form submission.
// Returns the provider message timestamp on success.
func (s *Service) NotifySubmission(ctx context.Context, notice SubmissionNotice) (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("slack bot token not configured")
	}

	userName := resolveField(notice.FormData, "Unknown", "name", "first_name")
	userEmail := resolveField(notice.FormData, "No email provided", "email", "work_email")
	company := resolveField(notice.FormData, "Not specified", "company", "company_name")

	payload := map[string]interface{}{
		"channel": s.channel,
		"text":    "New Form Submission: " + notice.CampaignTitle,
		"blocks": []block{
			{"type": "header", "text": text("plain_text", "New Campaign Form Submission")},
			{"type": "section", "fields": []map[string]string{
				text("mrkdwn", "*Campaign:*\n"+notice.CampaignTitle),
				text("mrkdwn", "*Submitted By:*\n"+userName),
				text("mrkdwn", "*Email:*\n"+userEmail),
				text("mrkdwn", "*Company:*\n"+company),
			}},
			{"type": "section", "fields": []map[string]string{
				text("mrkdwn", "*Campaign ID:*\n`"+notice.CampaignID+"`"),
				text("mrkdwn", "*Campaign URL:*\n"+notice.CampaignURL),
			}},
			{"type": "divider"},
			{"type": "section", "text": text("mrkdwn", "*Submission Details:*\n"+formatFormData(notice.FormData))},
			{"type": "context", "elements": []map[string]string{
				text("mrkdwn", "Submitted at: "+notice.SubmissionTime),
			}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postMessageURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		TS    string `json:"ts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("slack response decode: %w", err)
	}
	if !out.OK {
		return "", fmt.Errorf("%s", TranslateError(out.Error, s.channel))
	}
	return out.TS, nil
}

// TranslateError turns Slack API error codes into actionable operator
// guidance.
func TranslateError(code, channel string) string {
	switch code {
	case "missing_scope":
		return "missing Slack permissions; required scopes: chat:write, chat:write.public; add them at https://api.slack.com/apps and reinstall the app"
	case "not_in_channel":
		return "bot not in channel; either add the chat:write.public scope or invite the bot with /invite"
	case "invalid_auth":
		return "invalid Slack token; check slack.bot_token in the config file"
	case "channel_not_found":
		return "channel not found; check slack.channel (current: " + channel + ")"
	default:
		return "failed to send Slack notification: " + code
	}
}

// formatFormData renders the field map as mrkdwn `*Label:* value` lines with
// stable ordering.
func formatFormData(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		if key == "campaignId" || key == "formType" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, "*"+labelize(key)+":* "+data[key])
	}
	return strings.Join(lines, "\n")
}

func labelize(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func resolveField(data map[string]string, fallback string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(data[key]); v != "" {
			return v
		}
	}
	return fallback
}
