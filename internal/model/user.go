// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered student account.
//
// A user signs up with email + password + roll number, or arrives through
// GitHub OAuth. GitHub-only accounts have no password hash and no roll number
// until they complete their profile, so those columns are nullable in the DB
// and empty strings here.
//
// WHY PasswordHash HAS json:"-"?
// The struct is returned from handlers as-is. The dash tag keeps the bcrypt
// hash out of every JSON response without a separate DTO.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Name         string    `json:"name"       db:"name"`
	Email        string    `json:"email"      db:"email"`
	RollNumber   string    `json:"rollNumber" db:"roll_number"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	GitHubID     int64     `json:"githubId,omitempty" db:"github_id"` // 0 when not linked to GitHub
	AvatarURL    string    `json:"avatarUrl,omitempty" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"  db:"updated_at"`
}
