// Package device models the subscriber side of the push pipeline: permission
// prompts, worker registration, and device-token acquisition. The concrete
// Runtime, WorkerHost, and TokenSource implementations live in the embedding
// client; everything here is the lifecycle glue between them.
package device

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Permission is the user's notification permission decision.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

var (
	// ErrUnsupportedEnvironment means the runtime lacks notification or
	// worker support entirely.
	ErrUnsupportedEnvironment = errors.New("push not supported in this environment")
	// ErrWorkerNotActive means registration succeeded but the worker never
	// reached the active state.
	ErrWorkerNotActive = errors.New("service worker not active")
	// ErrMissingCredential means no public VAPID key was configured.
	ErrMissingCredential = errors.New("push credential not configured")
)

// Runtime exposes the host environment's notification capabilities.
type Runtime interface {
	SupportsNotifications() bool
	SupportsServiceWorker() bool
	Permission() Permission
	// RequestPermission shows the permission prompt. Only called while the
	// decision is still PermissionDefault.
	RequestPermission(ctx context.Context) (Permission, error)
}

// Registration is a handle to an installed worker.
type Registration interface {
	Active() bool
	Scope() string
}

// WorkerHost installs and tracks the background worker.
type WorkerHost interface {
	Register(ctx context.Context, scriptPath string) (Registration, error)
	// Ready blocks until the registered worker is activated.
	Ready(ctx context.Context) (Registration, error)
}

// TokenSource exchanges an active registration for a device token.
type TokenSource interface {
	Token(ctx context.Context, vapidKey string, reg Registration) (string, error)
	DeleteToken(ctx context.Context) error
}

// Acquirer drives the token acquisition flow end to end.
type Acquirer struct {
	runtime    Runtime
	host       WorkerHost
	source     TokenSource
	vapidKey   string
	scriptPath string
	logger     *zap.Logger
}

func NewAcquirer(runtime Runtime, host WorkerHost, source TokenSource,
	vapidKey, scriptPath string, logger *zap.Logger) *Acquirer {
	if scriptPath == "" {
		scriptPath = "/firebase-messaging-sw.js"
	}
	return &Acquirer{
		runtime:    runtime,
		host:       host,
		source:     source,
		vapidKey:   vapidKey,
		scriptPath: scriptPath,
		logger:     logger.Named("TokenAcquirer"),
	}
}

// AcquireToken walks capability check, permission prompt, worker registration,
// and token exchange. A user declining the prompt is a normal outcome: the
// returned token is empty and the error is nil. Errors are reserved for
// environments or flows that actually broke.
func (a *Acquirer) AcquireToken(ctx context.Context) (string, error) {
	if !a.runtime.SupportsNotifications() || !a.runtime.SupportsServiceWorker() {
		return "", ErrUnsupportedEnvironment
	}
	if a.vapidKey == "" {
		return "", ErrMissingCredential
	}

	perm := a.runtime.Permission()
	if perm == PermissionDefault {
		var err error
		perm, err = a.runtime.RequestPermission(ctx)
		if err != nil {
			return "", fmt.Errorf("request permission: %w", err)
		}
	}
	if perm != PermissionGranted {
		a.logger.Info("notification permission declined")
		return "", nil
	}

	if _, err := a.host.Register(ctx, a.scriptPath); err != nil {
		return "", fmt.Errorf("register worker: %w", err)
	}
	reg, err := a.host.Ready(ctx)
	if err != nil {
		return "", fmt.Errorf("await worker: %w", err)
	}
	if reg == nil || !reg.Active() {
		return "", ErrWorkerNotActive
	}

	token, err := a.source.Token(ctx, a.vapidKey, reg)
	if err != nil {
		return "", fmt.Errorf("fetch device token: %w", err)
	}
	if token == "" {
		// The backend can answer without issuing a token. Nothing broke;
		// the caller just has no token to register.
		a.logger.Info("token exchange yielded no token")
		return "", nil
	}

	a.logger.Info("device token acquired", zap.String("scope", reg.Scope()))
	return token, nil
}

// ReleaseToken invalidates the current device token, typically on opt-out.
func (a *Acquirer) ReleaseToken(ctx context.Context) error {
	return a.source.DeleteToken(ctx)
}
