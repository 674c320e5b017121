package task

import "time"

// Task is a unit of consumed credit. Tasks carry no identity and exist
// only as entries in their owner's list.
type Task struct {
	Completed *bool     `json:"completed"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
