// Package scheduler runs the dispatcher on a minute tick. Schedule matching
// is exact to the minute, so the tick interval must stay at one minute.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dcerezal/homeplan/internal/dispatch"
)

// Scheduler drives the event dispatcher once per minute.
type Scheduler struct {
	mu         sync.RWMutex
	dispatcher *dispatch.Dispatcher
	interval   time.Duration
	now        func() time.Time
	cancel     context.CancelFunc
	done       chan struct{}
	logger     *slog.Logger
}

func New(d *dispatch.Dispatcher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		dispatcher: d,
		interval:   60 * time.Second,
		now:        time.Now,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start begins the tick loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	report, err := s.dispatcher.HandleEvent(ctx, dispatch.EventAuto, s.now())
	if err != nil {
		s.logger.Error("tick failed", "error", err)
		return
	}
	if len(report.Ran) > 0 {
		s.logger.Info("events fired", "events", report.Ran, "outcomes", len(report.Outcomes))
	}
}
