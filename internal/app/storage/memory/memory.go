package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/credittrack/credittrack/internal/app/domain/task"
	"github.com/credittrack/credittrack/internal/app/domain/user"
	"github.com/credittrack/credittrack/internal/app/storage"
	"github.com/credittrack/credittrack/internal/errors"
)

// Store is the in-memory implementation of the storage interfaces. It is
// the single process-wide registry of users and their tasks and is safe
// for concurrent use: all mutations run under the write lock so the
// check-then-act sequences (existence check before insert, credit check
// before append) are atomic, and reads observe a consistent snapshot
// under the read lock.
type Store struct {
	mu      sync.RWMutex
	nextSeq int64
	users   map[string]*entry
}

// entry holds the canonical record for one user. seq preserves insertion
// order for the stable top-N tie-break.
type entry struct {
	user  user.User
	tasks []task.Task
	seq   int64
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.TaskStore = (*Store)(nil)
var _ storage.UsageStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextSeq: 1,
		users:   make(map[string]*entry),
	}
}

func (s *Store) nextSeqLocked() int64 {
	seq := s.nextSeq
	s.nextSeq++
	return seq
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	if len(u.Username) > user.MaxUsernameLength {
		return user.User{}, errors.LimitExceeded("length of username is higher than max length")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.Username]; exists {
		return user.User{}, errors.Conflict("already_exists")
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.Username] = &entry{user: u, tasks: []task.Task{}, seq: s.nextSeqLocked()}
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.users[u.Username]
	if !ok {
		return user.User{}, errors.NotFound("user %s does not exist", u.Username)
	}

	u.CreatedAt = ent.user.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	ent.user = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ent, ok := s.users[username]
	if !ok {
		return user.User{}, errors.NotFound("user %s does not exist", username)
	}
	return ent.user, nil
}

func (s *Store) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return errors.NotFound("user %s does not exist", username)
	}
	delete(s.users, username)
	return nil
}

func (s *Store) Snapshot(_ context.Context) (map[string]storage.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]storage.UserRecord, len(s.users))
	for name, ent := range s.users {
		out[name] = storage.UserRecord{
			User:  ent.user,
			Tasks: cloneTasks(ent.tasks),
		}
	}
	return out, nil
}

// TaskStore implementation ----------------------------------------------------

func (s *Store) AppendTask(_ context.Context, username string, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.users[username]
	if !ok {
		return task.Task{}, errors.NotFound("user %s does not exist", username)
	}

	if len(ent.tasks) >= ent.user.Credits {
		return task.Task{}, errors.LimitExceeded("Credits Exhausted")
	}
	if ent.user.Credits == user.MaxCreditsValue {
		return task.Task{}, errors.LimitExceeded("credits value ceiling reached")
	}

	t.CreatedAt = time.Now().UTC()
	ent.tasks = append(ent.tasks, t)
	return t, nil
}

func (s *Store) ListTasks(_ context.Context, username string) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ent, ok := s.users[username]
	if !ok {
		return nil, errors.NotFound("user %s does not exist", username)
	}
	return cloneTasks(ent.tasks), nil
}

// UsageStore implementation ---------------------------------------------------

func (s *Store) CountObjects(_ context.Context) (storage.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := storage.Totals{Users: len(s.users)}
	totals.Objects = totals.Users
	for _, ent := range s.users {
		totals.Objects += len(ent.tasks)
	}
	return totals, nil
}

func (s *Store) TopUsers(_ context.Context, n int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*entry, 0, len(s.users))
	for _, ent := range s.users {
		entries = append(entries, ent)
	}

	// Descending task count, ties broken by insertion order.
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].tasks) != len(entries[j].tasks) {
			return len(entries[i].tasks) > len(entries[j].tasks)
		}
		return entries[i].seq < entries[j].seq
	})

	if n > len(entries) {
		n = len(entries)
	}
	result := make([]string, 0, n)
	for _, ent := range entries[:n] {
		result = append(result, ent.user.Username)
	}
	return result, nil
}

// Helpers ---------------------------------------------------------------------

func cloneTasks(src []task.Task) []task.Task {
	out := make([]task.Task, len(src))
	for i, t := range src {
		if t.Completed != nil {
			completed := *t.Completed
			t.Completed = &completed
		}
		out[i] = t
	}
	return out
}
