package domain

import (
	"time"
)

// User is an authenticated account. Every catalog and ledger is scoped to
// exactly one user ID.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this via JSON
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"createdAt"`
}
