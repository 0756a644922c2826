// Package models defines the core data structures for users, quiz content
// and process-wide store configuration.
package models

import "time"

// User represents an application user record keyed by e-mail address.
type User struct {
	// Email is the lowercased e-mail address identifying the user.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	// Nil for accounts that have not completed signup.
	PasswordHash []byte
	// Verified reports whether the user has proven control of the e-mail address.
	Verified bool
	// SessionHash is the bcrypt hash of the current session token.
	// Nil when no session has been issued.
	SessionHash []byte
	// MaxSessionTime is the instant after which the current session token
	// is no longer accepted. Zero when no session has been issued.
	MaxSessionTime time.Time
	// CreatedAt is the record creation timestamp.
	CreatedAt time.Time
}

// UserUpdate is a merge-write of user fields: nil fields preserve the
// stored values, non-nil fields overwrite them.
type UserUpdate struct {
	PasswordHash   []byte
	Verified       *bool
	SessionHash    []byte
	MaxSessionTime *time.Time
}

// WordEntry is a single quiz record: one word and its meaning within a
// named collection.
type WordEntry struct {
	Collection string `json:"collectionName"`
	Word       string `json:"word"`
	Meaning    string `json:"meaning"`
}

// QuizCollection maps each word of one quiz topic to its meaning.
type QuizCollection map[string]string

// Snapshot is the full in-memory quiz content plus the current version token.
type Snapshot struct {
	Version     string                    `json:"version"`
	Collections map[string]QuizCollection `json:"quizSet"`
}

// MailCredentials holds the relay settings for outgoing verification mail.
type MailCredentials struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// OAuthCredentials holds third-party OAuth client settings.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
}

// RootConfig is the store's root configuration record. It is loaded once
// while connecting to the store and never mutated afterwards.
type RootConfig struct {
	// Version is the content version token reported to clients.
	Version string
	// JWTSecret signs e-mail verification tokens.
	JWTSecret string
	Mail      MailCredentials
	OAuth     OAuthCredentials
}
