// Package scheduler wires up the cron job that periodically runs a check.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RunFunc is one monitor cycle.
type RunFunc func(ctx context.Context) error

// Scheduler wraps robfig/cron. Runs never overlap: a tick that arrives while
// the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	job    cron.Job
	spec   string
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a Scheduler that fires every interval.
func New(ctx context.Context, interval time.Duration, run RunFunc, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{log: logger.Sugar()}

	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cl)),
		spec:   fmt.Sprintf("@every %s", interval),
		logger: logger,
	}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		s.logger.Info("⏰ Scheduled check started")
		if err := run(ctx); err != nil {
			s.logger.Error("❌ Scheduled check failed", zap.Error(err))
			return
		}
		s.logger.Info("✅ Scheduled check complete")
	}))
	return s
}

func (s *Scheduler) Spec() string {
	return s.spec
}

// Start registers the job, starts the cron loop and runs one check right away
// so the first results do not wait for the first tick.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddJob(s.spec, s.job); err != nil {
		return fmt.Errorf("cron.AddJob: %w", err)
	}
	s.cron.Start()
	s.logger.Info("⏰ Scheduler started", zap.String("spec", s.spec))

	s.RunNow()
	return nil
}

// RunNow triggers a check outside the schedule. It is skipped if one is
// already running.
func (s *Scheduler) RunNow() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
}

// Stop halts the schedule and waits for running checks to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("⏰ Scheduler stopped")
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
