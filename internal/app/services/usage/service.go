// Package usage reports per-user and aggregate credit consumption.
package usage

import (
	"context"

	"github.com/credittrack/credittrack/internal/app/storage"
	"github.com/credittrack/credittrack/pkg/logger"
)

// TopUserCount is how many usernames the top-usage report returns.
const TopUserCount = 10

// UserUsage describes one user's credit consumption.
type UserUsage struct {
	RemainingCredits int `json:"remaining_credits"`
	Credits          int `json:"credits"`
}

// Service aggregates usage numbers from the store.
type Service struct {
	users storage.UserStore
	tasks storage.TaskStore
	store storage.UsageStore
	log   *logger.Logger
}

// New creates a usage service.
func New(users storage.UserStore, tasks storage.TaskStore, store storage.UsageStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("usage")
	}
	return &Service{users: users, tasks: tasks, store: store, log: log}
}

// ForUser reports the credit budget and what is left of it.
func (s *Service) ForUser(ctx context.Context, username string) (UserUsage, error) {
	u, err := s.users.GetUser(ctx, username)
	if err != nil {
		return UserUsage{}, err
	}
	list, err := s.tasks.ListTasks(ctx, username)
	if err != nil {
		return UserUsage{}, err
	}
	return UserUsage{
		RemainingCredits: u.Credits - len(list),
		Credits:          u.Credits,
	}, nil
}

// Global reports store-wide totals.
func (s *Service) Global(ctx context.Context) (storage.Totals, error) {
	return s.store.CountObjects(ctx)
}

// Top returns the usernames with the most tasks, busiest first. Ties keep
// creation order.
func (s *Service) Top(ctx context.Context) ([]string, error) {
	return s.store.TopUsers(ctx, TopUserCount)
}
