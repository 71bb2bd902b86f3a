package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
)

const defaultInterval = 15 * time.Minute

type jobMetrics interface {
	ObserveRun(job string, took time.Duration, err error)
	IncSkippedCycle()
}

// ServiceParams configure the cron service. JobTimeout bounds each job so a
// cycle finishes before the distributed lock expires.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    jobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs every registered job once per interval, on at most one instance.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    jobMetrics
	interval   time.Duration
	jobTimeout time.Duration
	// cycles counts cycles this instance ran while holding the lock.
	cycles int
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	svc := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if svc.registry == nil {
		svc.registry = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.metrics == nil {
		svc.metrics = noopJobMetrics{}
	}
	return svc, nil
}

// Run executes a cycle immediately, then on every tick until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.metrics.IncSkippedCycle()
		s.logg.Info(ctx, "another cron instance holds the lock; skipping cycle")
		return nil
	}
	defer func() {
		switch err := s.lock.Release(ctx); {
		case errors.Is(err, ErrLockLost):
			s.logg.Warn(ctx, "cron lock expired during the cycle; consider raising KUMSS_CRON_LOCK_TTL")
		case err != nil:
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	cycle := s.cycles
	s.cycles++
	entries := s.registry.Entries()
	ran, failed := 0, 0
	for _, entry := range entries {
		if !entry.due(cycle) {
			continue
		}
		ran++
		if err := s.runJob(ctx, entry); err != nil {
			failed++
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cycle":  cycle,
		"jobs":   ran,
		"failed": failed,
	}), "scheduled run complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, entry Entry) error {
	job := entry.Job
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	timeout := s.jobTimeout
	if entry.Timeout > 0 {
		timeout = entry.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(jobCtx)
	took := time.Since(start)
	s.metrics.ObserveRun(job.Name(), took, err)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", took.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	return nil
}

type noopJobMetrics struct{}

func (noopJobMetrics) ObserveRun(string, time.Duration, error) {}
func (noopJobMetrics) IncSkippedCycle()                        {}
