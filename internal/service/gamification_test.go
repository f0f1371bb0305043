package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaditya248659/Code-Snippet-Library/internal/cache"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository/sqlite"
)

func TestAwardRaisesLevelMonotonically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")

	total, err := env.game.Award(ctx, ada.ID, 90)
	require.NoError(t, err)
	assert.Equal(t, 90, total)

	got, err := env.db.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Level)

	total, err = env.game.Award(ctx, ada.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 110, total)

	got, err = env.db.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Level, "crossing 100 points reaches level 2")
}

func TestAwardRejectsNonPositive(t *testing.T) {
	env := newTestEnv(t)
	ada := env.user(t, "ada")

	_, err := env.game.Award(context.Background(), ada.ID, 0)
	assert.Error(t, err)
	_, err = env.game.Award(context.Background(), ada.ID, -5)
	assert.Error(t, err)
}

func TestLevelForPoints(t *testing.T) {
	cases := []struct {
		points int
		level  int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{250, 3},
		{10000, 11},
		{14999, 11},
		{15000, 12},
		{-5, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, model.LevelForPoints(tc.points), "points=%d", tc.points)
	}
}

func TestRecordContributionStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")

	// First contribution starts the streak.
	require.NoError(t, env.game.RecordContribution(ctx, ada.ID))
	got, err := env.db.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Streak)

	// A second contribution the same day changes nothing.
	require.NoError(t, env.game.RecordContribution(ctx, ada.ID))
	got, err = env.db.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Streak)

	// Pretend the last contribution was yesterday: the streak extends.
	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, env.db.UpdateStreak(ctx, ada.ID, 3, yesterday))
	require.NoError(t, env.game.RecordContribution(ctx, ada.ID))
	got, err = env.db.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Streak)

	// A gap resets the streak to 1.
	lastWeek := time.Now().AddDate(0, 0, -7)
	require.NoError(t, env.db.UpdateStreak(ctx, ada.ID, 9, lastWeek))
	require.NoError(t, env.game.RecordContribution(ctx, ada.ID))
	got, err = env.db.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Streak)
}

func TestBadgesAreNeverRevoked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	s := env.submit(t, ada.ID, "Hello")

	got, err := env.db.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	require.Contains(t, got.Badges, model.BadgeFirstSnippet)

	// Deleting the snippet regresses the stat, not the badge.
	require.NoError(t, env.db.DeleteSnippet(ctx, s.ID))

	earned, err := env.game.CheckBadges(ctx, ada.ID)
	require.NoError(t, err)
	assert.Empty(t, earned)

	got, err = env.db.GetUserByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Badges, model.BadgeFirstSnippet)
}

func TestRankSharesTies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	linus := env.user(t, "linus")

	_, err := env.game.Award(ctx, ada.ID, 100)
	require.NoError(t, err)
	_, err = env.game.Award(ctx, grace.ID, 300)
	require.NoError(t, err)
	_, err = env.game.Award(ctx, linus.ID, 100)
	require.NoError(t, err)

	rank, err := env.game.Rank(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	for _, id := range []string{ada.ID, linus.ID} {
		rank, err := env.game.Rank(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2, rank, "tied totals share a rank")
	}
}

func TestLeaderboardCaching(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedis(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { redisCache.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	game := NewGamificationService(db, redisCache, logger)
	ctx := context.Background()

	ada := &model.User{Username: "ada", Email: "ada@example.com", PasswordHash: "h"}
	require.NoError(t, db.CreateUser(ctx, ada))
	_, err = game.Award(ctx, ada.ID, 100)
	require.NoError(t, err)

	board, err := game.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 100, board[0].Points)

	// Within the TTL the cached board is served even after an award.
	_, err = game.Award(ctx, ada.ID, 50)
	require.NoError(t, err)

	board, err = game.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, board[0].Points, "served from cache")

	// After expiry the fresh totals come back.
	mr.FastForward(time.Minute)
	board, err = game.Leaderboard(ctx, TimeframeAll, 10)
	require.NoError(t, err)
	assert.Equal(t, 150, board[0].Points)
}

func TestLeaderboardTimeframe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	_, err := env.game.Award(ctx, ada.ID, 10)
	require.NoError(t, err)

	// All accounts here were created just now, so every timeframe sees them.
	for _, tf := range []string{TimeframeAll, TimeframeWeek, TimeframeMonth} {
		board, err := env.game.Leaderboard(ctx, tf, 10)
		require.NoError(t, err)
		assert.Len(t, board, 1, "timeframe %s", tf)
	}
}
