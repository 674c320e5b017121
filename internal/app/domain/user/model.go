package user

import "time"

// Field limits enforced at insertion time.
const (
	// MaxUsernameLength bounds the length of a username key.
	MaxUsernameLength = 64
	// MaxCreditsValue is the global credits ceiling checked when a task is
	// created. The comparison is an exact equality against the user's
	// credits; see DESIGN.md for the history of this check.
	MaxCreditsValue = 1024
)

// User represents a tenant that owns a credit budget. The username is the
// store key and is immutable for the record's lifetime; the password is
// stored verbatim and never verified.
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"password,omitempty"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
