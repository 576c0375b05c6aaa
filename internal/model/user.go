// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// WHY `json:"-"` ON PasswordHash?
// The dash tells encoding/json to NEVER serialize this field. A user record
// travels through several handlers (profile, admin listing, login responses)
// and it only takes one forgotten DTO for a hash to leak into a response body.
// Excluding it at the model level makes the safe behaviour the default.
//
// WHY IsAdmin ON THE USER (not a roles table)?
// This application has exactly two capability levels: regular user and admin.
// A boolean column is the simplest thing that models that. If more roles ever
// appear, this becomes a role string or a join table — not worth the
// complexity today.
//
// Email is stored lowercased. Normalising once at the write path means the
// UNIQUE constraint and every lookup agree on what "the same email" means.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"` // always lowercase
	PasswordHash string    `json:"-"         db:"password_hash"`
	IsAdmin      bool      `json:"isAdmin"   db:"is_admin"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
