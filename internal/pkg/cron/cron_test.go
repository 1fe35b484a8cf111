package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, s *Scheduler, name string, want JobStatus) ListItem {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		for _, item := range s.List() {
			if item.Name == name && item.Status == want {
				return item
			}
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never reached %s", name, want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManualRunRecordsOutcome(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Register(Job{
		Name:     "sweep",
		Interval: time.Hour,
		Fn: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	require.NoError(t, s.Run(context.Background(), "sweep"))
	item := waitForStatus(t, s, "sweep", StatusFulfill)

	assert.EqualValues(t, 1, runs.Load())
	assert.NotNil(t, item.LastRunAt)
	assert.Empty(t, item.Message)
}

func TestFailedRunKeepsMessage(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "sweep",
		Interval: time.Hour,
		Fn: func(context.Context) error {
			return errors.New("backend unavailable")
		},
	})

	require.NoError(t, s.Run(context.Background(), "sweep"))
	item := waitForStatus(t, s, "sweep", StatusReject)
	assert.Equal(t, "backend unavailable", item.Message)
}

func TestRunUnknownJob(t *testing.T) {
	assert.Error(t, New().Run(context.Background(), "nope"))
}

func TestIntervalSchedulingFires(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Register(Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Fn: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("job never fired twice")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
