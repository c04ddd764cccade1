package model

import "time"

// Identity mirrors the `users` table owned by the identity service.
// PasswordHash is a bcrypt hash and is never serialized.
type Identity struct {
	ID           uint64    `json:"id"`        // auto-increment primary key
	Email        string    `json:"email"`     // lower-cased, unique
	Name         string    `json:"name"`      // display name
	PasswordHash string    `json:"-"`         // bcrypt hash
	CreatedAt    time.Time `json:"createdAt"` // set by the database
	UpdatedAt    time.Time `json:"updatedAt"` // refreshed on every write
}
