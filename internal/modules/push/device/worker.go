package device

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Notification is what the background worker shows for one push payload.
type Notification struct {
	Title string
	Body  string
	Icon  string
	Badge string
	// Tag carries the campaign id so repeated sends for one campaign
	// replace each other instead of stacking up.
	Tag  string
	Link string
}

// Lifecycle lets an installing worker replace its predecessor immediately.
type Lifecycle interface {
	// SkipWaiting promotes the installing worker without waiting for open
	// pages to close.
	SkipWaiting()
	// ClaimClients takes control of already-open pages on activation.
	ClaimClients(ctx context.Context) error
}

// NotificationShower displays notifications from worker context.
type NotificationShower interface {
	Show(ctx context.Context, n Notification) error
}

// NotificationHandle is an on-screen notification carried by a click event.
// Close dismisses it from the notification tray.
type NotificationHandle interface {
	Payload() Notification
	Close()
}

// WindowClient is one open page under the worker's control.
type WindowClient interface {
	URL() string
	Focus(ctx context.Context) error
}

// WindowRegistry enumerates and opens controlled pages.
type WindowRegistry interface {
	List(ctx context.Context) ([]WindowClient, error)
	OpenWindow(ctx context.Context, url string) error
}

// Worker is the background half of the push pipeline: it initializes exactly
// once, shows notifications for background payloads, and routes clicks to an
// existing page when one is open.
type Worker struct {
	lifecycle Lifecycle
	shower    NotificationShower
	windows   WindowRegistry
	logger    *zap.Logger

	initOnce sync.Once
	initErr  error
}

func NewWorker(lifecycle Lifecycle, shower NotificationShower,
	windows WindowRegistry, logger *zap.Logger) *Worker {
	return &Worker{
		lifecycle: lifecycle,
		shower:    shower,
		windows:   windows,
		logger:    logger.Named("PushWorker"),
	}
}

// Init runs the one-time startup handshake. Repeat calls return the first
// outcome without redoing any of it.
func (w *Worker) Init(ctx context.Context, init func(ctx context.Context) error) error {
	w.initOnce.Do(func() {
		w.lifecycle.SkipWaiting()
		if err := w.lifecycle.ClaimClients(ctx); err != nil {
			w.initErr = err
			return
		}
		if init != nil {
			w.initErr = init(ctx)
		}
	})
	return w.initErr
}

// HandleMessage shows a notification for one background payload.
func (w *Worker) HandleMessage(ctx context.Context, msg IncomingMessage) error {
	title := msg.Title
	if title == "" {
		title = "New Notification"
	}
	link := msg.Link
	if link == "" {
		link = "/"
	}
	n := Notification{
		Title: title,
		Body:  msg.Body,
		Icon:  "/icon-192x192.png",
		Badge: "/badge-72x72.png",
		Tag:   msg.CampaignID,
		Link:  link,
	}
	if err := w.shower.Show(ctx, n); err != nil {
		w.logger.Warn("show notification failed",
			zap.String("campaignId", msg.CampaignID), zap.Error(err))
		return err
	}
	return nil
}

// HandleClick dismisses the clicked notification, then routes: focus a page
// already showing the target URL, or open a new one. Never both.
func (w *Worker) HandleClick(ctx context.Context, handle NotificationHandle) error {
	handle.Close()

	target := handle.Payload().Link
	if target == "" {
		target = "/"
	}

	clients, err := w.windows.List(ctx)
	if err != nil {
		return err
	}
	for _, client := range clients {
		if client.URL() == target {
			return client.Focus(ctx)
		}
	}
	return w.windows.OpenWindow(ctx, target)
}
