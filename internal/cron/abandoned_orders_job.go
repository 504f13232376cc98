package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

const abandonedOrderTTL = 72 * time.Hour

type idleOrderReader interface {
	ListIdleSince(ctx context.Context, cutoff time.Time, limit int) ([]models.OutstandingOrder, error)
}

type orderAbandoner interface {
	Abandon(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error)
}

// AbandonedOrdersJobParams configure the idle outstanding order sweep.
type AbandonedOrdersJobParams struct {
	Logger    *logger.Logger
	Reader    idleOrderReader
	Abandoner orderAbandoner
	TTL       time.Duration
	BatchSize int
	Metrics   affectedRecorder
}

// NewAbandonedOrdersJob builds the job that removes outstanding orders nobody
// has touched within the TTL.
func NewAbandonedOrdersJob(params AbandonedOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("outstanding order reader required")
	}
	if params.Abandoner == nil {
		return nil, fmt.Errorf("outstanding order service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = abandonedOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &abandonedOrdersJob{
		logg:      params.Logger,
		reader:    params.Reader,
		abandoner: params.Abandoner,
		ttl:       ttl,
		batch:     batch,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

type abandonedOrdersJob struct {
	logg      *logger.Logger
	reader    idleOrderReader
	abandoner orderAbandoner
	ttl       time.Duration
	batch     int
	metrics   affectedRecorder
	now       func() time.Time
}

func (j *abandonedOrdersJob) Name() string { return "abandoned-orders" }

func (j *abandonedOrdersJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	orders, err := j.reader.ListIdleSince(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list idle orders: %w", err)
	}

	var (
		removed int64
		skipped int
		errs    error
	)
	for _, order := range orders {
		ok, err := j.abandoner.Abandon(ctx, order.ID, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("abandon %s: %w", order.ID, err))
			continue
		}
		if !ok {
			// busy or touched since the listing
			skipped++
			continue
		}
		removed++
	}

	if j.metrics != nil {
		j.metrics.AddAffected(j.Name(), removed)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": len(orders),
		"removed": removed,
		"skipped": skipped,
	})
	j.logg.Info(logCtx, "abandoned order sweep complete")
	return errs
}
