package cron

import (
	"context"

	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// affectedRecorder is satisfied by *metrics.CronJobMetrics.
type affectedRecorder interface {
	AddAffected(job string, rows int64)
}

const defaultSweepBatch = 100
