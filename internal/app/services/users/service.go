// Package users manages user accounts and their credit budgets.
package users

import (
	"context"

	"github.com/credittrack/credittrack/internal/app/domain/user"
	"github.com/credittrack/credittrack/internal/app/metrics"
	"github.com/credittrack/credittrack/internal/app/storage"
	"github.com/credittrack/credittrack/internal/errors"
	"github.com/credittrack/credittrack/pkg/logger"
)

// Update carries the fields a partial update may change. Nil fields are
// left untouched. The username itself is immutable.
type Update struct {
	Password *string
	Credits  *int
}

// Service exposes user management on top of a UserStore.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New creates a user service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// Create registers a new user with an empty task list.
func (s *Service) Create(ctx context.Context, username, password string, credits int) (user.User, error) {
	created, err := s.store.CreateUser(ctx, user.User{
		Username: username,
		Password: password,
		Credits:  credits,
	})
	if err != nil {
		return user.User{}, err
	}

	metrics.RecordUserCreated()
	s.log.WithField("username", created.Username).
		WithField("credits", created.Credits).
		Info("user created")
	return created, nil
}

// Get returns the user record for username.
func (s *Service) Get(ctx context.Context, username string) (user.User, error) {
	return s.store.GetUser(ctx, username)
}

// Update merges the supplied fields into the stored record.
func (s *Service) Update(ctx context.Context, username string, upd Update) (user.User, error) {
	current, err := s.store.GetUser(ctx, username)
	if err != nil {
		return user.User{}, err
	}

	if upd.Password != nil {
		current.Password = *upd.Password
	}
	if upd.Credits != nil {
		if *upd.Credits < 0 {
			return user.User{}, errors.InvalidRequest("credits must not be negative")
		}
		current.Credits = *upd.Credits
	}

	updated, err := s.store.UpdateUser(ctx, current)
	if err != nil {
		return user.User{}, err
	}

	s.log.WithField("username", username).Info("user updated")
	return updated, nil
}

// Delete removes the user and every task it owns.
func (s *Service) Delete(ctx context.Context, username string) error {
	if err := s.store.DeleteUser(ctx, username); err != nil {
		return err
	}
	s.log.WithField("username", username).Info("user deleted")
	return nil
}

// Snapshot returns a copy of every user record with its task list.
func (s *Service) Snapshot(ctx context.Context) (map[string]storage.UserRecord, error) {
	return s.store.Snapshot(ctx)
}
