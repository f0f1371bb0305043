// Package repository defines the persistence interfaces the service layer
// programs against. The sqlite subpackage provides the implementation; tests
// swap in :memory: databases.
package repository

import (
	"context"
	"time"

	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
)

// Sort orders accepted by SnippetFilter.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
	SortViews   = "views"
)

// SnippetFilter narrows and orders a snippet listing. Zero values mean
// "don't filter". Search matches title or description, case-insensitively.
type SnippetFilter struct {
	Status   model.SnippetStatus
	Language string
	Tag      string
	Search   string
	AuthorID string
	Sort     string // SortNewest (default), SortOldest, SortPopular, SortViews
	Limit    int
	Offset   int
}

// Overview is the platform-wide aggregate used by the analytics endpoints.
// Views/upvotes count approved snippets only.
type Overview struct {
	TotalUsers    int `json:"totalUsers"`
	TotalSnippets int `json:"totalSnippets"`
	TotalViews    int `json:"totalViews"`
	TotalUpvotes  int `json:"totalUpvotes"`
}

// LanguageCount is one bucket of the language distribution.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// ChartPoint is one approved snippet's contribution to a user's activity
// chart, ordered by creation time.
type ChartPoint struct {
	Title     string    `json:"title"`
	Views     int       `json:"views"`
	Upvotes   int       `json:"upvotes"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserRepository interface {
	// CreateUser inserts a new account. Returns a conflict error if the
	// username or email is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// UpsertGitHubUser creates or refreshes an account keyed by GitHub ID.
	// On return user.ID is populated with the internal ID.
	UpsertGitHubUser(ctx context.Context, user *model.User) error

	UpdateProfile(ctx context.Context, id, bio, githubProfile string) error

	// UpdatePassword stores a new hash and clears any pending reset token.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	// GetUserByResetToken resolves an unexpired reset token hash.
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)

	// AwardPoints atomically increments the user's point total and returns
	// the new total. delta must be positive.
	AwardPoints(ctx context.Context, id string, delta int) (int, error)
	// SetLevelIfHigher raises the stored level, never lowers it.
	SetLevelIfHigher(ctx context.Context, id string, level int) error
	UpdateStreak(ctx context.Context, id string, streak int, day time.Time) error

	GetBadges(ctx context.Context, userID string) ([]string, error)
	// AddBadges persists newly earned badges; already-held badges are
	// silently kept (never duplicated, never removed).
	AddBadges(ctx context.Context, userID string, badges []string) error

	GetUserStats(ctx context.Context, userID string) (*model.UserStats, error)

	// CountUsersWithMorePoints backs rank computation:
	// rank = 1 + CountUsersWithMorePoints(points).
	CountUsersWithMorePoints(ctx context.Context, points int) (int, error)
	// Leaderboard returns users created at or after since (zero time = all),
	// ordered by points descending, then id, capped at limit.
	Leaderboard(ctx context.Context, since time.Time, limit int) ([]model.User, error)
}

type SnippetRepository interface {
	CreateSnippet(ctx context.Context, snippet *model.Snippet) error
	// GetSnippetByID loads a snippet with its tags and comments.
	GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error)
	ListSnippets(ctx context.Context, filter SnippetFilter) ([]model.Snippet, error)
	// UpdateSnippet writes title, description, language, code, status and
	// tags. Counters and membership sets are untouched.
	UpdateSnippet(ctx context.Context, snippet *model.Snippet) error
	SetSnippetStatus(ctx context.Context, id string, status model.SnippetStatus) error
	DeleteSnippet(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error

	// ToggleUpvote flips the caller's membership in the upvoter set and
	// returns the resulting counter and membership, updated atomically.
	ToggleUpvote(ctx context.Context, snippetID, userID string) (count int, voted bool, err error)
	// ToggleFavorite flips membership in the favorites relation. The
	// relation is stored once and read from both sides, so user.favorites
	// and snippet.favoritedBy can never disagree.
	ToggleFavorite(ctx context.Context, snippetID, userID string) (favorited bool, err error)
	ListFavorites(ctx context.Context, userID string, limit, offset int) ([]model.Snippet, error)

	AddComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, snippetID, commentID string) (*model.Comment, error)
	DeleteComment(ctx context.Context, snippetID, commentID string) error
}

type ForkRepository interface {
	CreateFork(ctx context.Context, fork *model.Fork) error
	GetForkByID(ctx context.Context, id string) (*model.Fork, error)
	// ListForksBySnippet orders by votes descending, then creation time
	// descending, then id descending. A total order, so pagination and
	// tests are deterministic.
	ListForksBySnippet(ctx context.Context, snippetID string) ([]model.Fork, error)
	ToggleForkVote(ctx context.Context, forkID, userID string) (count int, voted bool, err error)

	// AcceptFork performs the terminal accept transition in one
	// transaction: parent.code = fork.code, parent.status = pending,
	// fork.status = accepted. Returns a conflict error if the fork has
	// already been resolved, so a double accept can never double-apply.
	AcceptFork(ctx context.Context, forkID string) (*model.Fork, error)
	// RejectFork marks a pending fork rejected. The parent snippet is
	// untouched. Conflict if the fork has already been resolved.
	RejectFork(ctx context.Context, forkID string) (*model.Fork, error)
	DeleteFork(ctx context.Context, id string) error
}

type AnalyticsRepository interface {
	Overview(ctx context.Context) (*Overview, error)
	LanguageDistribution(ctx context.Context) ([]LanguageCount, error)
	// UserChartData returns the user's approved snippets oldest-first.
	UserChartData(ctx context.Context, userID string) ([]ChartPoint, error)
}
