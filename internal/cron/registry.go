package cron

import (
	"context"
	"time"
)

// Job is one unit of scheduled maintenance run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type entry struct {
	job   Job
	every time.Duration
}

// Registry holds jobs with their own cadence. A job registered with a
// non-positive cadence runs on every tick.
type Registry struct {
	entries []entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(job Job, every time.Duration) {
	if job == nil {
		return
	}
	r.entries = append(r.entries, entry{job: job, every: every})
}

// Due returns, in registration order, the jobs whose cadence has elapsed
// since lastRun. Jobs missing from lastRun are always due.
func (r *Registry) Due(now time.Time, lastRun map[string]time.Time) []Job {
	var due []Job
	for _, e := range r.entries {
		last, ran := lastRun[e.job.Name()]
		if !ran || e.every <= 0 || !now.Before(last.Add(e.every)) {
			due = append(due, e.job)
		}
	}
	return due
}

func (r *Registry) Len() int {
	return len(r.entries)
}
