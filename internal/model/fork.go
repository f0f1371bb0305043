package model

import "time"

// ForkStatus is the lifecycle state of a fork.
// pending → accepted | rejected; both transitions are terminal and only
// pending forks can be resolved.
type ForkStatus string

const (
	ForkPending  ForkStatus = "pending"
	ForkAccepted ForkStatus = "accepted"
	ForkRejected ForkStatus = "rejected"
)

// Fork is a community-submitted modification of a snippet's code.
//
// Votes mirrors the voter membership set exactly, under the same
// transactional rule as Snippet.Upvotes. Accepting a fork is terminal: the
// modified code is written back into the parent snippet, which re-enters
// moderation.
type Fork struct {
	ID          string     `json:"id"              db:"id"`
	SnippetID   string     `json:"originalSnippet" db:"snippet_id"`
	ForkerID    string     `json:"forkedBy"        db:"forker_id"`
	ForkerName  string     `json:"forkerUsername,omitempty" db:"-"`
	Title       string     `json:"title"           db:"title"`
	Description string     `json:"description"     db:"description"`
	Language    Language   `json:"language"        db:"language"`
	Code        string     `json:"modifiedCode"    db:"code"`
	Changes     string     `json:"changes"         db:"changes"`
	TestResults string     `json:"testResults,omitempty" db:"test_results"` // free-form JSON snapshot, optional
	Votes       int        `json:"votes"           db:"votes"`
	Status      ForkStatus `json:"status"          db:"status"`
	CreatedAt   time.Time  `json:"createdAt"       db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt"       db:"updated_at"`
}
