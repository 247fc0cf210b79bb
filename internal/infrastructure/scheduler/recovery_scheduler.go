// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultRecoveryInterval = 5 * time.Minute

// DocumentRecoverer re-queues documents whose processing never reached a
// final outcome, typically after a crash mid-extraction.
type DocumentRecoverer interface {
	RecoverUnprocessed(ctx context.Context, limit int) (int, error)
}

// RecoverySchedulerConfig holds configuration for the recovery scheduler
type RecoverySchedulerConfig struct {
	// Interval between recovery sweeps
	Interval time.Duration
	// BatchSize limits documents re-queued per sweep
	BatchSize int
	// JobTimeout caps one sweep
	JobTimeout time.Duration
}

// RecoveryScheduler periodically sweeps for unprocessed documents and
// hands them back to the verification pipeline.
type RecoveryScheduler struct {
	config    RecoverySchedulerConfig
	recoverer DocumentRecoverer
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt *time.Time
}

// NewRecoveryScheduler creates a new recovery scheduler
func NewRecoveryScheduler(config RecoverySchedulerConfig, recoverer DocumentRecoverer, logger *zap.Logger) *RecoveryScheduler {
	if config.Interval <= 0 {
		config.Interval = defaultRecoveryInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = time.Minute
	}
	return &RecoveryScheduler{
		config:    config,
		recoverer: recoverer,
		logger:    logger,
	}
}

// Start begins the periodic sweep. Calling Start on a running scheduler
// is a no-op.
func (s *RecoveryScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		s.logger.Warn("Recovery scheduler already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.isRunning = true

	s.wg.Add(1)
	go s.run(runCtx)

	s.logger.Info("Recovery scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish
func (s *RecoveryScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.isRunning = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Recovery scheduler stopped")
}

// IsRunning reports whether the scheduler loop is active
func (s *RecoveryScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRunAt returns the start time of the most recent sweep, if any
func (s *RecoveryScheduler) LastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}

func (s *RecoveryScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RecoveryScheduler) sweep(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	sweepCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	recovered, err := s.recoverer.RecoverUnprocessed(sweepCtx, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Recovery sweep failed", zap.Error(err))
		return
	}
	if recovered > 0 {
		s.logger.Info("Recovery sweep re-queued documents", zap.Int("count", recovered))
	}
}
