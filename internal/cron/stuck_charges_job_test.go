package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type fakeChargedReader struct {
	attempts   []models.CheckoutAttempt
	lastCutoff time.Time
	err        error
}

func (f *fakeChargedReader) ListChargedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.CheckoutAttempt, error) {
	f.lastCutoff = cutoff
	return f.attempts, f.err
}

func TestStuckChargesJobCountsAttempts(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	txn := "pay_123"
	reader := &fakeChargedReader{attempts: []models.CheckoutAttempt{
		{OutstandingOrderID: uuid.New(), AmountCents: 990, TransactionID: &txn},
		{OutstandingOrderID: uuid.New(), AmountCents: 450},
	}}
	affected := &fakeAffected{}
	jobIface, err := NewStuckChargesJob(StuckChargesJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Reader:  reader,
		Metrics: affected,
	})
	if err != nil {
		t.Fatalf("NewStuckChargesJob: %v", err)
	}
	job := jobIface.(*stuckChargesJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reader.lastCutoff.Equal(now.Add(-stuckChargeGrace)) {
		t.Fatalf("unexpected cutoff %s", reader.lastCutoff)
	}
	if affected.rows["stuck-charges"] != 2 {
		t.Fatalf("expected two stuck attempts recorded, got %d", affected.rows["stuck-charges"])
	}
}

func TestStuckChargesJobPropagatesError(t *testing.T) {
	jobIface, err := NewStuckChargesJob(StuckChargesJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Reader: &fakeChargedReader{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewStuckChargesJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
