package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type fakeLock struct {
	heldElsewhere bool
	acquired      int
	released      int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.heldElsewhere {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.released++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, registry *Registry, lock Lock, clock *time.Time) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	service.now = func() time.Time { return *clock }
	return service
}

func TestRunDueRunsEveryJobEvenWhenOneFails(t *testing.T) {
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ok := &testJob{name: "sweep"}
	failing := &testJob{name: "prune", err: errors.New("boom")}
	registry := NewRegistry()
	registry.Register(ok, time.Hour)
	registry.Register(failing, time.Hour)
	lock := &fakeLock{}
	service := newTestService(t, registry, lock, &clock)

	if err := service.runDue(context.Background()); err != nil {
		t.Fatalf("run due: %v", err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected both jobs to run once, got %d and %d", ok.runs, failing.runs)
	}
	if lock.acquired != 1 || lock.released != 1 {
		t.Fatalf("expected lock taken and released once, got %d/%d", lock.acquired, lock.released)
	}

	clock = clock.Add(10 * time.Minute)
	if err := service.runDue(context.Background()); err != nil {
		t.Fatalf("run due: %v", err)
	}
	if ok.runs != 1 {
		t.Fatalf("successful job should wait for its cadence, ran %d", ok.runs)
	}
	if failing.runs != 2 {
		t.Fatalf("failed job should retry on the next tick, ran %d", failing.runs)
	}
}

func TestRunDueSkipsWhenLockHeldElsewhere(t *testing.T) {
	clock := time.Now()
	job := &testJob{name: "sweep"}
	registry := NewRegistry()
	registry.Register(job, 0)
	service := newTestService(t, registry, &fakeLock{heldElsewhere: true}, &clock)

	if err := service.runDue(context.Background()); err != nil {
		t.Fatalf("run due: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
}

func TestRunDueLeavesLockAloneWhenNothingIsDue(t *testing.T) {
	clock := time.Now()
	registry := NewRegistry()
	registry.Register(&testJob{name: "prune"}, 24*time.Hour)
	lock := &fakeLock{}
	service := newTestService(t, registry, lock, &clock)
	service.lastRun["prune"] = clock

	if err := service.runDue(context.Background()); err != nil {
		t.Fatalf("run due: %v", err)
	}
	if lock.acquired != 0 {
		t.Fatalf("lock should not be taken without due jobs")
	}
}

func TestNewServiceRequiresJobs(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: NewRegistry(),
		Lock:     &fakeLock{},
	})
	if err == nil {
		t.Fatalf("expected error for empty registry")
	}
}
