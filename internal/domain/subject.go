package domain

import "time"

// Subject is the identity record resolved by the credential store.
type Subject struct {
	ID           string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
