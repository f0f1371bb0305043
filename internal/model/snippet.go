package model

import "time"

// SnippetStatus is the moderation state of a snippet.
// Transitions: pending → approved | rejected; any non-admin edit of an
// approved/rejected snippet forces it back to pending.
type SnippetStatus string

const (
	SnippetPending  SnippetStatus = "pending"
	SnippetApproved SnippetStatus = "approved"
	SnippetRejected SnippetStatus = "rejected"
)

// Snippet is a moderated, community-submitted code sample.
//
// Upvotes always equals the cardinality of the upvoter membership set: the
// repository recomputes it from the set inside the same transaction as every
// membership change, so the two cannot drift.
type Snippet struct {
	ID          string        `json:"id"                 db:"id"`
	Title       string        `json:"title"              db:"title"`
	Description string        `json:"problemDescription" db:"description"`
	Language    Language      `json:"language"           db:"language"`
	Tags        []string      `json:"tags"               db:"-"`
	Code        string        `json:"code"               db:"code"`
	AuthorID    string        `json:"submittedBy"        db:"author_id"`
	AuthorName  string        `json:"authorUsername,omitempty" db:"-"`
	Status      SnippetStatus `json:"status"             db:"status"`
	Views       int           `json:"views"              db:"views"`
	Upvotes     int           `json:"upvotes"            db:"upvotes"`
	Comments    []Comment     `json:"comments,omitempty" db:"-"`
	CreatedAt   time.Time     `json:"createdAt"          db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt"          db:"updated_at"`
}

// Comment is embedded in a snippet's detail view. Comments are independently
// deletable by their author or an admin.
type Comment struct {
	ID         string    `json:"id"        db:"id"`
	SnippetID  string    `json:"-"         db:"snippet_id"`
	AuthorID   string    `json:"user"      db:"author_id"`
	AuthorName string    `json:"username,omitempty" db:"-"`
	Text       string    `json:"text"      db:"text"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// SnippetPatch carries the optional fields of an edit request. Nil means
// "leave unchanged"; validation of provided values happens in the service.
type SnippetPatch struct {
	Title       *string
	Description *string
	Language    *string
	Tags        *[]string
	Code        *string
}
