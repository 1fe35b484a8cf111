package device

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
)

// IncomingMessage is one push payload as seen by the page.
type IncomingMessage struct {
	CampaignID string
	Title      string
	Body       string
	Link       string
	Data       map[string]string
}

// MessageStream yields push payloads delivered while the page is in the
// foreground. Receive blocks until a message arrives, the stream closes
// (io.EOF), or ctx is done.
type MessageStream interface {
	Receive(ctx context.Context) (IncomingMessage, error)
	Close() error
}

// Toaster renders an in-page notification.
type Toaster interface {
	Show(msg IncomingMessage)
}

// NativePoster raises an OS-level notification from page context.
type NativePoster interface {
	Post(msg IncomingMessage) error
}

// Navigator changes the current page location.
type Navigator interface {
	Navigate(url string) error
}

// Listener consumes foreground push messages and surfaces each one as an
// in-page toast, plus a native notification when permission allows.
type Listener struct {
	runtime   Runtime
	stream    MessageStream
	toaster   Toaster
	poster    NativePoster
	navigator Navigator
	logger    *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewListener(runtime Runtime, stream MessageStream, toaster Toaster,
	poster NativePoster, navigator Navigator, logger *zap.Logger) *Listener {
	return &Listener{
		runtime:   runtime,
		stream:    stream,
		toaster:   toaster,
		poster:    poster,
		navigator: navigator,
		logger:    logger.Named("ForegroundListener"),
	}
}

// Start begins consuming the stream. Calling Start on a running listener is a
// no-op, so pages that re-run their setup never double-subscribe.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.started = true
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(runCtx)
	return nil
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)
	for {
		msg, err := l.stream.Receive(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				l.logger.Warn("message stream ended", zap.Error(err))
			}
			return
		}
		l.handle(msg)
	}
}

func (l *Listener) handle(msg IncomingMessage) {
	l.toaster.Show(msg)
	if l.runtime.Permission() != PermissionGranted || l.poster == nil {
		return
	}
	if err := l.poster.Post(msg); err != nil {
		l.logger.Warn("native notification failed",
			zap.String("campaignId", msg.CampaignID), zap.Error(err))
	}
}

// HandleNoticeClick navigates to the message's embedded link. A message
// without a link leaves the page where it is.
func (l *Listener) HandleNoticeClick(msg IncomingMessage) {
	if msg.Link == "" || l.navigator == nil {
		return
	}
	if err := l.navigator.Navigate(msg.Link); err != nil {
		l.logger.Warn("navigation failed",
			zap.String("url", msg.Link), zap.Error(err))
	}
}

// Close stops consumption and releases the stream. Safe to call twice.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		return nil
	}
	l.started = false
	l.cancel()
	<-l.done
	return l.stream.Close()
}
