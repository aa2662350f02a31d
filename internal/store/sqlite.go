package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seantiz/warden/internal/model"

	_ "modernc.org/sqlite"
)

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
    name                TEXT PRIMARY KEY,
    cron_spec           TEXT NOT NULL,
    command             TEXT NOT NULL,
    retries             INTEGER NOT NULL,
    retry_delay_ms      INTEGER NOT NULL,
    backoff             TEXT NOT NULL,
    max_retry_delay_ms  INTEGER,
    prevent_overlap     INTEGER NOT NULL,
    timeout_ms          INTEGER,
    history_limit       INTEGER NOT NULL,
    webhook_url         TEXT,
    notify_success      INTEGER NOT NULL,
    notify_error        INTEGER NOT NULL,
    notify_timeout      INTEGER NOT NULL,
    notify_overlap_skip INTEGER NOT NULL,
    created_at          DATETIME NOT NULL
)`

// ErrNotFound is returned when a task definition is not found.
var ErrNotFound = errors.New("task not found")

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createTasksTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tasks table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTask inserts a new task definition.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *model.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (
			name, cron_spec, command, retries, retry_delay_ms, backoff,
			max_retry_delay_ms, prevent_overlap, timeout_ms, history_limit,
			webhook_url, notify_success, notify_error, notify_timeout,
			notify_overlap_skip, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.CronSpec, t.Command, t.Retries, t.RetryDelayMS, t.Backoff,
		t.MaxRetryDelayMS, t.PreventOverlap, t.TimeoutMS, t.HistoryLimit,
		t.WebhookURL, t.NotifySuccess, t.NotifyError, t.NotifyTimeout,
		t.NotifyOverlapSkip, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task definition by name.
func (s *SQLiteStore) GetTask(ctx context.Context, name string) (*model.Task, error) {
	t := &model.Task{}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, cron_spec, command, retries, retry_delay_ms, backoff,
			max_retry_delay_ms, prevent_overlap, timeout_ms, history_limit,
			webhook_url, notify_success, notify_error, notify_timeout,
			notify_overlap_skip, created_at
		FROM tasks WHERE name = ?`, name,
	).Scan(
		&t.Name, &t.CronSpec, &t.Command, &t.Retries, &t.RetryDelayMS, &t.Backoff,
		&t.MaxRetryDelayMS, &t.PreventOverlap, &t.TimeoutMS, &t.HistoryLimit,
		&t.WebhookURL, &t.NotifySuccess, &t.NotifyError, &t.NotifyTimeout,
		&t.NotifyOverlapSkip, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns all task definitions ordered by name.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]*model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, cron_spec, command, retries, retry_delay_ms, backoff,
			max_retry_delay_ms, prevent_overlap, timeout_ms, history_limit,
			webhook_url, notify_success, notify_error, notify_timeout,
			notify_overlap_skip, created_at
		FROM tasks ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t := &model.Task{}
		if err := rows.Scan(
			&t.Name, &t.CronSpec, &t.Command, &t.Retries, &t.RetryDelayMS, &t.Backoff,
			&t.MaxRetryDelayMS, &t.PreventOverlap, &t.TimeoutMS, &t.HistoryLimit,
			&t.WebhookURL, &t.NotifySuccess, &t.NotifyError, &t.NotifyTimeout,
			&t.NotifyOverlapSkip, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// DeleteTask removes a task definition by name.
func (s *SQLiteStore) DeleteTask(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
