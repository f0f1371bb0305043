package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func TestCreateUserAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := seedUser(t, db, "ada")
	require.NotEmpty(t, u.ID)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, 1, u.Level)

	byID, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", byID.Username)

	byName, err := db.GetUserByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := db.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestCreateUserConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, "ada")

	dupName := &model.User{Username: "Ada", Email: "other@example.com", PasswordHash: "h"}
	err := db.CreateUser(ctx, dupName)
	assert.ErrorIs(t, err, apperror.ErrConflict, "usernames are case-insensitively unique")

	dupEmail := &model.User{Username: "grace", Email: "ADA@example.com", PasswordHash: "h"}
	err = db.CreateUser(ctx, dupEmail)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestGetUserNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpsertGitHubUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &model.User{Username: "octocat", Email: "octo@example.com", GitHubID: 583231, GitHubProfile: "https://github.com/octocat"}
	require.NoError(t, db.UpsertGitHubUser(ctx, u))
	firstID := u.ID
	require.NotEmpty(t, firstID)

	// Second login with the same GitHub ID resolves to the same account.
	again := &model.User{Username: "octocat", Email: "octo@example.com", GitHubID: 583231, GitHubProfile: "https://github.com/octocat"}
	require.NoError(t, db.UpsertGitHubUser(ctx, again))
	assert.Equal(t, firstID, again.ID)
}

func TestAwardPointsAndLevel(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "ada")

	total, err := db.AwardPoints(ctx, u.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	total, err = db.AwardPoints(ctx, u.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 55, total)

	require.NoError(t, db.SetLevelIfHigher(ctx, u.ID, 3))
	// Lower level must not overwrite a higher one.
	require.NoError(t, db.SetLevelIfHigher(ctx, u.ID, 2))

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 55, got.Points)
	assert.Equal(t, 3, got.Level)
}

func TestBadgesIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "ada")

	require.NoError(t, db.AddBadges(ctx, u.ID, []string{model.BadgeFirstSnippet, model.BadgeContributor}))
	require.NoError(t, db.AddBadges(ctx, u.ID, []string{model.BadgeFirstSnippet}))

	badges, err := db.GetBadges(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{model.BadgeFirstSnippet, model.BadgeContributor}, badges)
}

func TestLeaderboardAndRank(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	grace := seedUser(t, db, "grace")
	linus := seedUser(t, db, "linus")

	_, err := db.AwardPoints(ctx, ada.ID, 100)
	require.NoError(t, err)
	_, err = db.AwardPoints(ctx, grace.ID, 300)
	require.NoError(t, err)
	_, err = db.AwardPoints(ctx, linus.ID, 100)
	require.NoError(t, err)

	board, err := db.Leaderboard(ctx, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "grace", board[0].Username)
	// Tied totals fall back to id order, so repeated calls agree.
	assert.Equal(t, board[1].Username, "ada")
	assert.Equal(t, board[2].Username, "linus")

	// rank = 1 + number of users with strictly more points; ties share a rank.
	ahead, err := db.CountUsersWithMorePoints(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)

	// A future cutoff excludes everyone.
	board, err = db.Leaderboard(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestPasswordResetTokenFlow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "ada")

	expires := time.Now().Add(time.Hour)
	require.NoError(t, db.SetResetToken(ctx, u.ID, "tokenhash", expires))

	got, err := db.GetUserByResetToken(ctx, "tokenhash", time.Now())
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Expired tokens do not resolve.
	_, err = db.GetUserByResetToken(ctx, "tokenhash", expires.Add(time.Minute))
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// A password change consumes the token.
	require.NoError(t, db.UpdatePassword(ctx, u.ID, "newhash"))
	_, err = db.GetUserByResetToken(ctx, "tokenhash", time.Now())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateStreak(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "ada")

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpdateStreak(ctx, u.ID, 4, day))

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Streak)
	assert.Equal(t, day.Unix(), got.LastContribution.Unix())
}
