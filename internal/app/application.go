package app

import (
	"github.com/credittrack/credittrack/internal/app/services/tasks"
	"github.com/credittrack/credittrack/internal/app/services/usage"
	"github.com/credittrack/credittrack/internal/app/services/users"
	"github.com/credittrack/credittrack/internal/app/storage"
	"github.com/credittrack/credittrack/internal/app/storage/memory"
	"github.com/credittrack/credittrack/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to one
// shared in-memory implementation, which is also the only one this
// service ships: state does not survive a restart.
type Stores struct {
	Users storage.UserStore
	Tasks storage.TaskStore
	Usage storage.UsageStore
}

// Application ties the domain services together. It is constructed once
// at startup and handed to the transport layer; there is no lazily
// initialised singleton anywhere.
type Application struct {
	log *logger.Logger

	Users *users.Service
	Tasks *tasks.Service
	Usage *usage.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Tasks == nil {
		stores.Tasks = mem
	}
	if stores.Usage == nil {
		stores.Usage = mem
	}

	return &Application{
		log:   log,
		Users: users.New(stores.Users, log),
		Tasks: tasks.New(stores.Tasks, log),
		Usage: usage.New(stores.Users, stores.Tasks, stores.Usage, log),
	}
}
