// Package model defines the data structures used throughout the application.
package model

import "time"

// Role controls what a user may moderate. Regular users own their snippets;
// admins can moderate anything.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account.
//
// Identity comes either from email+password registration or from GitHub
// OAuth (GitHubID > 0). Either way we generate our own internal xid so
// primary keys aren't tied to a third party's numbering scheme.
//
// PasswordHash is never serialized: the json:"-" tag keeps it out of every
// API response.
type User struct {
	ID            string `json:"id"            db:"id"`
	Username      string `json:"username"      db:"username"`
	Email         string `json:"email"         db:"email"`
	PasswordHash  string `json:"-"             db:"password_hash"`
	Role          Role   `json:"role"          db:"role"`
	Bio           string `json:"bio"           db:"bio"`
	GitHubProfile string `json:"githubProfile" db:"github_profile"`
	GitHubID      int64  `json:"-"             db:"github_id"` // 0 unless the account was created via OAuth

	// Gamification state. Points only ever grow; Level is derived from
	// Points via the threshold table and is monotonic with it.
	Points int      `json:"points" db:"points"`
	Level  int      `json:"level"  db:"level"`
	Badges []string `json:"badges" db:"-"`

	// Streak of consecutive contribution days. LastContribution holds the
	// UTC day of the most recent streak-counted action.
	Streak           int       `json:"streak"           db:"streak"`
	LastContribution time.Time `json:"lastContribution" db:"last_contribution"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStats are the aggregates badge predicates and public profiles are
// computed from. All values are derived from the snippet/comment tables at
// read time, never stored.
type UserStats struct {
	TotalContributions int `json:"totalContributions"`
	ApprovedSnippets   int `json:"approvedSnippets"`
	TotalUpvotes       int `json:"totalUpvotes"`
	TotalViews         int `json:"totalViews"`
	CommentsWritten    int `json:"commentsWritten"`
}
