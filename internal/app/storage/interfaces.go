package storage

import (
	"context"

	"github.com/credittrack/credittrack/internal/app/domain/task"
	"github.com/credittrack/credittrack/internal/app/domain/user"
)

// UserRecord pairs a user with its ordered task list. Snapshots return
// deep copies so callers cannot corrupt store state.
type UserRecord struct {
	User  user.User   `json:"user"`
	Tasks []task.Task `json:"tasks"`
}

// Totals aggregates store-wide counts. Objects counts every user plus
// every task.
type Totals struct {
	Users   int `json:"nb_of_users"`
	Objects int `json:"nb_of_objects"`
}

// UserStore persists user records.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, username string) (user.User, error)
	DeleteUser(ctx context.Context, username string) error
	Snapshot(ctx context.Context) (map[string]UserRecord, error)
}

// TaskStore persists tasks within a user's list.
type TaskStore interface {
	AppendTask(ctx context.Context, username string, t task.Task) (task.Task, error)
	ListTasks(ctx context.Context, username string) ([]task.Task, error)
}

// UsageStore aggregates usage across the whole store.
type UsageStore interface {
	CountObjects(ctx context.Context) (Totals, error)
	TopUsers(ctx context.Context, n int) ([]string, error)
}
