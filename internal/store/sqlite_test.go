package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seantiz/warden/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTask(name string) *model.Task {
	maxDelay := int64(5000)
	timeout := int64(30000)
	return &model.Task{
		Name:            name,
		CronSpec:        "*/5 * * * *",
		Command:         "echo hi",
		Retries:         3,
		RetryDelayMS:    1000,
		Backoff:         model.BackoffExponential,
		MaxRetryDelayMS: &maxDelay,
		PreventOverlap:  true,
		TimeoutMS:       &timeout,
		HistoryLimit:    20,
		WebhookURL:      "http://example.com/hook",
		NotifySuccess:   true,
		NotifyError:     true,
		NotifyTimeout:   true,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := sampleTask("backup")
	if err := s.CreateTask(ctx, want); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := s.GetTask(ctx, "backup")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Name != want.Name || got.CronSpec != want.CronSpec || got.Command != want.Command {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Retries != 3 || got.RetryDelayMS != 1000 || got.Backoff != model.BackoffExponential {
		t.Errorf("policy fields = %+v", got)
	}
	if got.MaxRetryDelayMS == nil || *got.MaxRetryDelayMS != 5000 {
		t.Errorf("max_retry_delay_ms = %v, want 5000", got.MaxRetryDelayMS)
	}
	if got.TimeoutMS == nil || *got.TimeoutMS != 30000 {
		t.Errorf("timeout_ms = %v, want 30000", got.TimeoutMS)
	}
	if !got.PreventOverlap || !got.NotifySuccess || got.NotifyOverlapSkip {
		t.Errorf("bool fields = %+v", got)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTask(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateTaskDuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTask(ctx, sampleTask("dup")); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := s.CreateTask(ctx, sampleTask("dup")); err == nil {
		t.Fatal("expected error for duplicate task name")
	}
}

func TestListTasksOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.CreateTask(ctx, sampleTask(name)); err != nil {
			t.Fatalf("CreateTask(%s): %v", name, err)
		}
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(tasks) != len(want) {
		t.Fatalf("len(tasks) = %d, want %d", len(tasks), len(want))
	}
	for i, w := range want {
		if tasks[i].Name != w {
			t.Errorf("tasks[%d].Name = %q, want %q", i, tasks[i].Name, w)
		}
	}
}

func TestListTasksEmpty(t *testing.T) {
	s := newTestStore(t)

	tasks, err := s.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("len(tasks) = %d, want 0", len(tasks))
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTask(ctx, sampleTask("gone")); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := s.DeleteTask(ctx, "gone"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := s.GetTask(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTask(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteTask: err = %v, want ErrNotFound", err)
	}
}

func TestNullableFieldsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := sampleTask("minimal")
	task.MaxRetryDelayMS = nil
	task.TimeoutMS = nil
	task.WebhookURL = ""

	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	got, err := s.GetTask(ctx, "minimal")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.MaxRetryDelayMS != nil {
		t.Errorf("max_retry_delay_ms = %v, want nil", got.MaxRetryDelayMS)
	}
	if got.TimeoutMS != nil {
		t.Errorf("timeout_ms = %v, want nil", got.TimeoutMS)
	}
	if got.WebhookURL != "" {
		t.Errorf("webhook_url = %q, want empty", got.WebhookURL)
	}
}
