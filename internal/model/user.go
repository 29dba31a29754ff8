// Package model defines the data structures used throughout the application.
package model

import "time"

// Roles a profile can hold. Every account gets exactly one role, set at
// registration time. RoleWorker is the baseline — it is what Google sign-ups
// receive and what registration defaults to when the client omits the field.
const (
	RoleWorker = "worker"
	RoleClient = "client"
)

// ValidRole reports whether userType is one of the known profile roles.
func ValidRole(userType string) bool {
	return userType == RoleWorker || userType == RoleClient
}

// Account represents a registered user account.
//
// Username and email are each globally unique. The sqlite layer enforces
// this with UNIQUE constraints, so a lost race between two concurrent
// registrations surfaces as a conflict error rather than a duplicate row.
//
// PasswordHash is empty for accounts created via Google sign-in. An empty
// hash is an "unusable credential": password verification against it always
// fails and never errors — the user has no local password, so no password
// can ever match.
type Account struct {
	ID           int64     `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	Email        string    `json:"email"      db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name"  db:"last_name"`
	PasswordHash string    `json:"-"          db:"password_hash"` // never serialized
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HasUsableCredential reports whether the account can be authenticated with
// a local password at all. Google-created accounts return false.
func (a *Account) HasUsableCredential() bool {
	return a.PasswordHash != ""
}

// Profile is the one-to-one extension of an Account. It is created in the
// same transaction as its account and removed with it (FK cascade), so a
// profile never exists without an owner.
type Profile struct {
	AccountID  int64    `json:"-"           db:"account_id"`
	UserType   string   `json:"user_type"   db:"user_type"`
	TrustScore float64  `json:"trust_score" db:"trust_score"`
	Level      int      `json:"level"       db:"level"`
	XPPoints   int      `json:"xp_points"   db:"xp_points"`
	Skills     []string `json:"skills"      db:"skills"` // stored as a JSON array
}

// NewProfile returns a profile with the baseline values every fresh account
// starts from: trust 50, level 1, no XP, no skills.
func NewProfile(userType string) *Profile {
	return &Profile{
		UserType:   userType,
		TrustScore: 50,
		Level:      1,
		XPPoints:   0,
		Skills:     []string{},
	}
}
