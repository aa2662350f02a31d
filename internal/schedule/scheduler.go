// Package schedule drives registered task runners from cron expressions and
// owns their lifecycle: it is the only component that marks a task stopped.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/seantiz/warden/internal/model"
	"github.com/seantiz/warden/internal/task"
)

// ValidateSpec reports whether spec parses as a cron expression.
func ValidateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

type entry struct {
	runner *task.Runner
	id     cron.EntryID
}

// Scheduler maps task names to runners and fires them on their cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a scheduler. Specs use the standard 5-field cron syntax plus
// descriptors such as "@every 30s" and "@hourly".
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Register schedules r under spec. The cron entry invokes the runner
// fire-and-forget: outcomes are reported through hooks and notifications,
// never inspected by the trigger.
func (s *Scheduler) Register(spec string, r *task.Runner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[r.Name()]; ok {
		return fmt.Errorf("task %q already registered", r.Name())
	}

	id, err := s.cron.AddFunc(spec, func() {
		r.Invoke(context.Background(), model.TriggerSchedule)
	})
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	s.entries[r.Name()] = &entry{runner: r, id: id}
	s.logger.Info("task registered", "task", r.Name(), "spec", spec)
	return nil
}

// Deregister removes the named task from the schedule and marks it stopped.
func (s *Scheduler) Deregister(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(e.id)
	delete(s.entries, name)
	e.runner.MarkStopped()
	s.logger.Info("task deregistered", "task", name)
	return true
}

// Lookup returns the runner for the named task.
func (s *Scheduler) Lookup(name string) (*task.Runner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.runner, true
}

// Runners returns all registered runners, sorted by task name.
func (s *Scheduler) Runners() []*task.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*task.Runner, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.runner)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Start begins firing cron entries.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron engine, waits for in-flight scheduled runs to finish,
// and marks every registered task stopped.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		e.runner.MarkStopped()
	}
	s.logger.Info("scheduler stopped", "tasks", len(s.entries))
}
