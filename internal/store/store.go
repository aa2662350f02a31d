package store

import (
	"context"

	"github.com/seantiz/warden/internal/model"
)

// Store defines persistence for task definitions. Run history is runtime
// state owned by the runners and is deliberately never persisted.
type Store interface {
	CreateTask(ctx context.Context, t *model.Task) error
	GetTask(ctx context.Context, name string) (*model.Task, error)
	ListTasks(ctx context.Context) ([]*model.Task, error)
	DeleteTask(ctx context.Context, name string) error
	Close() error
}
