// Package tasks appends credit-consuming tasks to user task lists.
package tasks

import (
	"context"

	"github.com/credittrack/credittrack/internal/app/domain/task"
	"github.com/credittrack/credittrack/internal/app/metrics"
	"github.com/credittrack/credittrack/internal/app/storage"
	"github.com/credittrack/credittrack/internal/errors"
	"github.com/credittrack/credittrack/pkg/logger"
)

// Service exposes per-user task operations on top of a TaskStore.
type Service struct {
	store storage.TaskStore
	log   *logger.Logger
}

// New creates a task service.
func New(store storage.TaskStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tasks")
	}
	return &Service{store: store, log: log}
}

// Create appends a task to username's list, consuming one credit.
func (s *Service) Create(ctx context.Context, username string, completed *bool) (task.Task, error) {
	created, err := s.store.AppendTask(ctx, username, task.Task{Completed: completed})
	if err != nil {
		if errors.IsCode(err, errors.CodeLimitExceeded) {
			metrics.RecordCreditExhaustion(username)
		}
		return task.Task{}, err
	}

	metrics.RecordTaskCreated()
	s.log.WithField("username", username).Info("task created")
	return created, nil
}

// List returns the ordered task list for username.
func (s *Service) List(ctx context.Context, username string) ([]task.Task, error) {
	return s.store.ListTasks(ctx, username)
}
