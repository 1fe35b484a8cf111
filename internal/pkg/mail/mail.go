package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	appconfig "github.com/campaign-hub/core/internal/config"
)

// Message is a single email to send.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender sends emails via SMTP or Resend.
type Sender struct {
	cfg appconfig.MailConfig
}

func New(cfg appconfig.MailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Enabled reports whether the relay is configured to send at all.
func (s *Sender) Enabled() bool { return s.cfg.Enable }

// Send dispatches an email. Uses Resend if configured, otherwise SMTP.
func (s *Sender) Send(msg Message) error {
	if !s.cfg.Enable {
		return nil
	}
	if s.cfg.UseResend && s.cfg.ResendKey != "" {
		return s.sendResend(msg)
	}
	return s.sendSMTP(msg)
}

func (s *Sender) sendSMTP(msg Message) error {
	host := s.cfg.Host
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	from := msg.From
	if from == "" {
		from = s.cfg.From
	}
	if from == "" {
		from = s.cfg.User
	}

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	if s.cfg.ReplyTo != "" {
		body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", s.cfg.ReplyTo))
	}
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, host)
	envelopeFrom := extractAddress(from)
	return smtp.SendMail(addr, auth, envelopeFrom, msg.To, body.Bytes())
}

func (s *Sender) sendResend(msg Message) error {
	from := msg.From
	if from == "" {
		from = s.cfg.From
	}
	if from == "" {
		from = s.cfg.User
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"from":    from,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	})

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}

// extractAddress pulls the bare address out of `"Name" <addr>` forms for the
// SMTP envelope.
func extractAddress(from string) string {
	if open := strings.LastIndex(from, "<"); open >= 0 {
		if end := strings.LastIndex(from, ">"); end > open {
			return from[open+1 : end]
		}
	}
	return from
}

// Substitute replaces {{field}} placeholders in a CMS-authored template with
// submission data. Placeholders without a matching field are left untouched
// so a broken template is visible, not silently blanked.
func Substitute(tpl string, data map[string]string) string {
	out := tpl
	for key, value := range data {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}

// FallbackName resolves a display name from submission data, preferring an
// explicit name, then first/last name pairs, then a neutral default.
func FallbackName(data map[string]string, explicit string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(data["name"]); v != "" {
		if last := strings.TrimSpace(data["last_name"]); last != "" {
			return v + " " + last
		}
		return v
	}
	first := strings.TrimSpace(data["first_name"])
	last := strings.TrimSpace(data["last_name"])
	if first != "" && last != "" {
		return first + " " + last
	}
	if first != "" {
		return first
	}
	return "User"
}
