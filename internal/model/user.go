// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
// The password hash is never serialized in API responses.
type User struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
