package cron

import (
	"context"
	"fmt"
	"time"
)

// Job is one unit of scheduled work. Name doubles as the metrics label.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry is a registered job plus its scheduling overrides.
type Entry struct {
	Job Job
	// Timeout replaces the service-wide job timeout when positive.
	Timeout time.Duration
	// Every runs the job on one cycle out of Every; zero or one means each cycle.
	Every int
}

func (e Entry) due(cycle int) bool {
	return e.Every <= 1 || cycle%e.Every == 0
}

type Option func(*Entry)

// WithTimeout bounds a single job tighter or looser than the service default.
func WithTimeout(d time.Duration) Option {
	return func(e *Entry) { e.Timeout = d }
}

// EveryNthCycle spaces out a job that does not need to run on every tick,
// such as retention sweeps. The first cycle always runs it.
func EveryNthCycle(n int) Option {
	return func(e *Entry) { e.Every = n }
}

// Registry holds the jobs run by the cron worker, in registration order.
type Registry struct {
	entries []Entry
	names   map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: map[string]struct{}{}}
}

// Register adds a job. Names must be unique since metrics and logs key on them.
func (r *Registry) Register(job Job, opts ...Option) error {
	if job == nil {
		return fmt.Errorf("cron job is nil")
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("cron job name required")
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("cron job %q already registered", name)
	}
	entry := Entry{Job: job}
	for _, opt := range opts {
		opt(&entry)
	}
	if entry.Every < 0 || entry.Timeout < 0 {
		return fmt.Errorf("cron job %q: negative schedule option", name)
	}
	r.names[name] = struct{}{}
	r.entries = append(r.entries, entry)
	return nil
}

// Entries returns a copy of the registered jobs.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}
