package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

const stuckChargeGrace = 10 * time.Minute

type chargedAttemptReader interface {
	ListChargedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.CheckoutAttempt, error)
}

// StuckChargesJobParams configure the charged-but-unfinalized sweep.
type StuckChargesJobParams struct {
	Logger    *logger.Logger
	Reader    chargedAttemptReader
	Grace     time.Duration
	BatchSize int
	Metrics   affectedRecorder
}

// NewStuckChargesJob builds the reconciliation job that surfaces checkout
// attempts whose payment succeeded but whose order was never finalized. The
// customer's retry resumes those attempts; the job only reports them.
func NewStuckChargesJob(params StuckChargesJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("checkout attempt reader required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = stuckChargeGrace
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &stuckChargesJob{
		logg:    params.Logger,
		reader:  params.Reader,
		grace:   grace,
		batch:   batch,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type stuckChargesJob struct {
	logg    *logger.Logger
	reader  chargedAttemptReader
	grace   time.Duration
	batch   int
	metrics affectedRecorder
	now     func() time.Time
}

func (j *stuckChargesJob) Name() string { return "stuck-charges" }

func (j *stuckChargesJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	attempts, err := j.reader.ListChargedBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list charged attempts: %w", err)
	}

	for _, attempt := range attempts {
		fields := map[string]any{
			"outstanding_order_id": attempt.OutstandingOrderID.String(),
			"amount_cents":         attempt.AmountCents,
			"payment_provider":     attempt.PaymentProvider,
			"charged_at":           attempt.UpdatedAt,
		}
		if attempt.TransactionID != nil {
			fields["transaction_id"] = *attempt.TransactionID
		}
		j.logg.Warn(j.logg.WithFields(ctx, fields), "checkout attempt charged but not finalized")
	}

	if j.metrics != nil {
		j.metrics.AddAffected(j.Name(), int64(len(attempts)))
	}
	j.logg.Info(j.logg.WithField(ctx, "stuck", len(attempts)), "stuck charge sweep complete")
	return nil
}
