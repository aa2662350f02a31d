package schedule_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seantiz/warden/internal/command"
	"github.com/seantiz/warden/internal/model"
	"github.com/seantiz/warden/internal/schedule"
	"github.com/seantiz/warden/internal/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func countingRunner(name string, calls *atomic.Int32) *task.Runner {
	return task.New(task.Config{
		Name: name,
		Func: func(ctx context.Context) (any, error) {
			calls.Add(1)
			return nil, nil
		},
		Logger: testLogger(),
	})
}

func TestRegisterRejectsInvalidSpec(t *testing.T) {
	s := schedule.New(testLogger())
	var calls atomic.Int32

	err := s.Register("not a cron spec", countingRunner("bad", &calls))
	if err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	if _, ok := s.Lookup("bad"); ok {
		t.Error("runner registered despite invalid spec")
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	s := schedule.New(testLogger())
	var calls atomic.Int32

	if err := s.Register("@hourly", countingRunner("dup", &calls)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("@daily", countingRunner("dup", &calls)); err == nil {
		t.Fatal("expected error for duplicate task name")
	}
}

func TestScheduledTaskFires(t *testing.T) {
	s := schedule.New(testLogger())
	var calls atomic.Int32

	if err := s.Register("@every 1s", countingRunner("tick", &calls)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled task never fired")
		}
		time.Sleep(20 * time.Millisecond)
	}

	r, ok := s.Lookup("tick")
	if !ok {
		t.Fatal("Lookup(tick) = false")
	}
	hist := r.History()
	if len(hist) == 0 {
		t.Fatal("no history after scheduled run")
	}
	if hist[0].TriggeredBy != model.TriggerSchedule {
		t.Errorf("triggered_by = %q, want schedule", hist[0].TriggeredBy)
	}
}

func TestStopMarksTasksStopped(t *testing.T) {
	s := schedule.New(testLogger())
	var calls atomic.Int32
	r := countingRunner("stoppable", &calls)

	if err := s.Register("@hourly", r); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Start()
	s.Stop()

	if got := r.Status(); got != model.TaskStopped {
		t.Errorf("status after Stop = %q, want stopped", got)
	}
}

func TestDeregister(t *testing.T) {
	s := schedule.New(testLogger())
	var calls atomic.Int32
	r := countingRunner("gone", &calls)

	if err := s.Register("@hourly", r); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !s.Deregister("gone") {
		t.Fatal("Deregister(gone) = false")
	}
	if _, ok := s.Lookup("gone"); ok {
		t.Error("runner still registered after Deregister")
	}
	if got := r.Status(); got != model.TaskStopped {
		t.Errorf("status = %q, want stopped", got)
	}
	if s.Deregister("gone") {
		t.Error("second Deregister = true, want false")
	}
}

func TestRunnersSortedByName(t *testing.T) {
	s := schedule.New(testLogger())
	var calls atomic.Int32
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Register("@hourly", countingRunner(name, &calls)); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	runners := s.Runners()
	want := []string{"alpha", "mid", "zeta"}
	if len(runners) != len(want) {
		t.Fatalf("len(Runners) = %d, want %d", len(runners), len(want))
	}
	for i, w := range want {
		if runners[i].Name() != w {
			t.Errorf("Runners[%d] = %q, want %q", i, runners[i].Name(), w)
		}
	}
}

func TestBuildRunnerAppliesPolicy(t *testing.T) {
	maxDelay := int64(5000)
	timeout := int64(60000)
	def := &model.Task{
		Name:            "nightly-backup",
		CronSpec:        "0 2 * * *",
		Command:         "echo backup",
		Retries:         2,
		RetryDelayMS:    1000,
		Backoff:         model.BackoffExponential,
		MaxRetryDelayMS: &maxDelay,
		PreventOverlap:  true,
		TimeoutMS:       &timeout,
		HistoryLimit:    5,
		NotifySuccess:   true,
		NotifyError:     true,
		NotifyTimeout:   true,
	}

	r := schedule.BuildRunner(def, command.New(testLogger()), testLogger())
	if r.Name() != "nightly-backup" {
		t.Errorf("Name = %q, want nightly-backup", r.Name())
	}
	if got := r.Status(); got != model.TaskScheduled {
		t.Errorf("Status = %q, want scheduled", got)
	}

	// The built runner executes the definition's command.
	result, rec := r.Invoke(context.Background(), model.TriggerManual)
	if rec == nil || rec.Status != model.RunSuccess {
		t.Fatalf("Invoke record = %+v, want success", rec)
	}
	if out, _ := result.(string); out != "backup\n" {
		t.Errorf("result = %q, want %q", out, "backup\n")
	}
}
