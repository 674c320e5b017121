// Package app composes the task-credit tracker into a running
// application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct and wiring
//	├── domain/             # Domain models (pure data structures)
//	│   ├── user/           # User records and field limits
//	│   └── task/           # Task entries
//	├── storage/            # Storage interfaces
//	│   └── memory/         # The concurrent in-memory store
//	├── services/           # Thin service façades over the store
//	│   ├── users/          # User management
//	│   ├── tasks/          # Task creation (credit consumption)
//	│   └── usage/          # Per-user and aggregate usage reports
//	├── httpapi/            # HTTP handlers, routing, error translation
//	└── metrics/            # Prometheus collectors and instrumentation
//
// All state lives in the store; handlers and services are stateless. The
// Application is constructed explicitly at startup and injected into the
// transport layer.
package app
