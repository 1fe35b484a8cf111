package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTaskTimeout = 30 * time.Second

// Dispatcher runs named notifier tasks detached from the request path.
// Contract: best-effort, logged, never retried. A slow or failing downstream
// notifier must never delay or fail the user-visible response. If stronger
// delivery guarantees are ever wanted, this is the seam to insert a durable
// queue.
type Dispatcher struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func New(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger:  logger.Named("Dispatch"),
		timeout: defaultTaskTimeout,
	}
}

// Go runs fn in the background. The caller returns immediately; errors and
// panics are logged and swallowed.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	id := uuid.New().String()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("task panicked",
					zap.String("task", name),
					zap.String("id", id),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			d.logger.Warn("task failed",
				zap.String("task", name),
				zap.String("id", id),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		d.logger.Info("task done",
			zap.String("task", name),
			zap.String("id", id),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()
}

// Drain waits up to timeout for in-flight tasks to finish. Returns false if
// the wait expired with tasks still running.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
