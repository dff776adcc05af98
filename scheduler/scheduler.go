// Package scheduler runs the periodic simulator jobs (candle ticks and
// regime switches) on robfig/cron constant-delay schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrRunning = errors.New("scheduler already running")

// Scheduler manages the periodic jobs of one session.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	log     *zap.Logger
	running bool
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	logger := cronLogger{log.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		log: log,
	}
}

// Every registers fn to run every d. cron cannot express sub-second
// delays, so d must be at least one second.
func (s *Scheduler) Every(name string, d time.Duration, fn func()) error {
	if d < time.Second {
		return fmt.Errorf("schedule %s: interval %s is below one second", name, d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("schedule %s: %w", name, ErrRunning)
	}
	s.cron.Schedule(cron.Every(d), cron.FuncJob(fn))
	s.log.Debug("job scheduled", zap.String("job", name), zap.Duration("every", d))
	return nil
}

// Start launches the jobs. Starting twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop prevents any further job from firing and waits until jobs already
// dispatched have returned, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	done := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
