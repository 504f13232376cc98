package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/restaurant-backend/pkg/logger"
	"github.com/angelmondragon/restaurant-backend/pkg/metrics"
)

const defaultTick = 5 * time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Tick is how often the service checks for due jobs.
	Tick time.Duration
}

// Service wakes every tick, takes the cluster-wide cron lock and runs the
// jobs whose cadence has elapsed. A failed job is retried on the next tick.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	tick     time.Duration
	now      func() time.Time
	lastRun  map[string]time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	if params.Registry == nil || params.Registry.Len() == 0 {
		return nil, errors.New("at least one cron job is required")
	}
	tick := params.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	return &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		tick:     tick,
		now:      time.Now,
		lastRun:  make(map[string]time.Time),
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		if err := s.runDue(ctx); err != nil {
			s.logg.Error(ctx, "cron tick failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runDue runs the due jobs under the lock. Another instance holding the
// lock is not an error; this instance simply waits for the next tick.
func (s *Service) runDue(ctx context.Context) error {
	now := s.now()
	due := s.registry.Due(now, s.lastRun)
	if len(due) == 0 {
		return nil
	}
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !locked {
		s.logg.Info(ctx, "cron lock held elsewhere, skipping tick")
		return nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "release cron lock", err)
		}
	}()

	for _, job := range due {
		if s.runJob(ctx, job) {
			s.lastRun[job.Name()] = now
		}
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) bool {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if s.metrics != nil {
		s.metrics.ObserveDuration(name, elapsed)
	}
	if err != nil {
		s.logg.Error(jobCtx, "cron job failed", err)
		if s.metrics != nil {
			s.metrics.IncFailure(name)
		}
		return false
	}
	s.logg.Info(jobCtx, "cron job finished")
	if s.metrics != nil {
		s.metrics.IncSuccess(name)
	}
	return true
}
