package fcm

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	appconfig "github.com/campaign-hub/core/internal/config"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Message is one campaign notification fanned out to many device tokens.
type Message struct {
	Tokens     []string
	CampaignID string
	Title      string
	Body       string
	ImageURL   string
	Link       string
}

// TokenError is a per-token delivery failure.
type TokenError struct {
	Token     string
	Reason    string
	Permanent bool // token deregistered/malformed; safe to prune
}

// SendResult is the outcome of one multicast call.
type SendResult struct {
	Sent     int
	Failed   int
	Failures []TokenError
}

// InvalidTokens returns the tokens the backend judged permanently invalid.
func (r SendResult) InvalidTokens() []string {
	var out []string
	for _, f := range r.Failures {
		if f.Permanent {
			out = append(out, f.Token)
		}
	}
	return out
}

// MulticastSender is the delivery backend surface the fan-out layer needs.
// The production implementation wraps the managed push service; tests supply
// fakes.
type MulticastSender interface {
	SendMulticast(ctx context.Context, msg Message) (SendResult, error)
	// ValidateTokens dry-runs a send so dead tokens can be pruned without
	// notifying anyone.
	ValidateTokens(ctx context.Context, tokens []string) (SendResult, error)
}

// Client sends web push notifications through Firebase Cloud Messaging.
type Client struct {
	mc     *messaging.Client
	logger *zap.Logger
}

// NewClient initializes the FCM client from the service account credentials.
// Constructed once at startup and passed down; never re-created per request.
func NewClient(ctx context.Context, cfg appconfig.PushConfig, logger *zap.Logger) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, fmt.Errorf("push credentials not configured")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init push app: %w", err)
	}
	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &Client{mc: mc, logger: logger.Named("FCMClient")}, nil
}

func (c *Client) SendMulticast(ctx context.Context, msg Message) (SendResult, error) {
	resp, err := c.mc.SendEachForMulticast(ctx, buildMulticast(msg))
	if err != nil {
		return SendResult{}, fmt.Errorf("multicast send: %w", err)
	}
	return c.collect(msg.Tokens, resp), nil
}

func (c *Client) ValidateTokens(ctx context.Context, tokens []string) (SendResult, error) {
	probe := buildMulticast(Message{
		Tokens: tokens,
		Title:  "validation",
		Body:   "validation",
	})
	resp, err := c.mc.SendEachForMulticastDryRun(ctx, probe)
	if err != nil {
		return SendResult{}, fmt.Errorf("multicast dry run: %w", err)
	}
	return c.collect(tokens, resp), nil
}

func buildMulticast(msg Message) *messaging.MulticastMessage {
	link := msg.Link
	if link == "" {
		link = "/"
	}
	notification := &messaging.Notification{
		Title:    msg.Title,
		Body:     msg.Body,
		ImageURL: msg.ImageURL,
	}
	webpush := &messaging.WebpushNotification{
		Title: msg.Title,
		Body:  msg.Body,
		Icon:  "/icon-192x192.png",
		Badge: "/badge-72x72.png",
	}
	if msg.ImageURL != "" {
		webpush.Image = msg.ImageURL
	}
	return &messaging.MulticastMessage{
		Tokens:       msg.Tokens,
		Notification: notification,
		Data: map[string]string{
			"campaignId": msg.CampaignID,
			"url":        link,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
		Webpush: &messaging.WebpushConfig{
			Notification: webpush,
			FCMOptions:   &messaging.WebpushFCMOptions{Link: link},
		},
	}
}

func (c *Client) collect(tokens []string, resp *messaging.BatchResponse) SendResult {
	result := SendResult{Sent: resp.SuccessCount, Failed: resp.FailureCount}
	for i, r := range resp.Responses {
		if r.Success || i >= len(tokens) {
			continue
		}
		tokenErr := TokenError{
			Token:     tokens[i],
			Reason:    r.Error.Error(),
			Permanent: isPermanentTokenError(r.Error),
		}
		result.Failures = append(result.Failures, tokenErr)
		c.logger.Debug("token delivery failed",
			zap.String("reason", tokenErr.Reason),
			zap.Bool("permanent", tokenErr.Permanent),
		)
	}
	return result
}

// isPermanentTokenError reports whether the backend judged a token dead:
// deregistered, malformed, or otherwise permanently invalid. Everything else
// is transient and left alone.
func isPermanentTokenError(err error) bool {
	return messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err)
}
