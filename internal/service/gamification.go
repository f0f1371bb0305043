// Package service contains the business logic layer. Handlers parse HTTP
// and delegate here; repositories do the persistence. Services accept
// primitives and models, return domain errors from apperror, and never see
// a status code.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaditya248659/Code-Snippet-Library/internal/cache"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

// Leaderboard timeframes.
const (
	TimeframeAll   = "all"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

const (
	leaderboardTTL      = 30 * time.Second
	defaultLeaderboard  = 10
	maxLeaderboardLimit = 100
)

// GamificationService owns points, levels, streaks, badges and the
// leaderboard. Other services call into it after the action that earns the
// reward has been committed, so a gamification failure never rolls back a
// snippet or a fork.
type GamificationService struct {
	users  repository.UserRepository
	cache  *cache.Redis // nil disables caching
	logger *slog.Logger
}

// NewGamificationService creates a GamificationService. cache may be nil.
func NewGamificationService(users repository.UserRepository, c *cache.Redis, logger *slog.Logger) *GamificationService {
	return &GamificationService{users: users, cache: c, logger: logger}
}

// Award adds points to a user, raising their level when a threshold is
// crossed. Points only ever go up; the level guard in the repository keeps
// the level monotonic even when concurrent awards land out of order.
func (g *GamificationService) Award(ctx context.Context, userID string, points int) (int, error) {
	if points <= 0 {
		return 0, fmt.Errorf("service/gamification: award must be positive, got %d", points)
	}

	total, err := g.users.AwardPoints(ctx, userID, points)
	if err != nil {
		return 0, fmt.Errorf("service/gamification: awarding %d points to %s: %w", points, userID, err)
	}

	level := model.LevelForPoints(total)
	if err := g.users.SetLevelIfHigher(ctx, userID, level); err != nil {
		return total, fmt.Errorf("service/gamification: updating level for %s: %w", userID, err)
	}

	g.logger.Info("points awarded",
		slog.String("userID", userID),
		slog.Int("points", points),
		slog.Int("total", total),
		slog.Int("level", level),
	)
	return total, nil
}

// RecordContribution updates the user's daily streak: a second contribution
// on the same day is a no-op, a contribution the day after the last one
// extends the streak, anything later restarts it at 1.
func (g *GamificationService) RecordContribution(ctx context.Context, userID string) error {
	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/gamification: loading user %s: %w", userID, err)
	}

	now := time.Now()
	today := now.Truncate(24 * time.Hour)

	streak := 1
	if !user.LastContribution.IsZero() {
		last := user.LastContribution.Truncate(24 * time.Hour)
		switch {
		case last.Equal(today):
			return nil
		case today.Sub(last) == 24*time.Hour:
			streak = user.Streak + 1
		}
	}

	if err := g.users.UpdateStreak(ctx, userID, streak, now); err != nil {
		return fmt.Errorf("service/gamification: updating streak for %s: %w", userID, err)
	}
	return nil
}

// CheckBadges evaluates every badge predicate against the user's current
// stats and persists any newly earned badges. Returns the new badge IDs.
// Badges are never revoked; a stat regressing later leaves them in place.
func (g *GamificationService) CheckBadges(ctx context.Context, userID string) ([]string, error) {
	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/gamification: loading user %s: %w", userID, err)
	}
	stats, err := g.users.GetUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/gamification: loading stats for %s: %w", userID, err)
	}

	held := make(map[string]bool, len(user.Badges))
	for _, b := range user.Badges {
		held[b] = true
	}

	earned := []string{}
	award := func(id string, unlocked bool) {
		if unlocked && !held[id] {
			earned = append(earned, id)
		}
	}

	award(model.BadgeFirstSnippet, stats.TotalContributions >= 1)
	award(model.BadgeContributor, stats.TotalContributions >= 10)
	award(model.BadgeCodeMaster, stats.TotalContributions >= 50)
	award(model.BadgePopular, stats.TotalUpvotes >= 100)
	award(model.BadgeInfluencer, stats.TotalViews >= 1000)
	award(model.BadgeConsistent, user.Streak >= 7)
	award(model.BadgeHelpful, stats.CommentsWritten >= 50)
	award(model.BadgeRisingStar, user.Level >= 10)
	award(model.BadgeLegend, user.Level >= 50)

	if len(earned) == 0 {
		return nil, nil
	}

	if err := g.users.AddBadges(ctx, userID, earned); err != nil {
		return nil, fmt.Errorf("service/gamification: persisting badges for %s: %w", userID, err)
	}

	g.logger.Info("badges earned",
		slog.String("userID", userID),
		slog.Any("badges", earned),
	)
	return earned, nil
}

// Rank returns the user's leaderboard position. Users with equal points
// share a rank: rank = 1 + count of users with strictly more points.
func (g *GamificationService) Rank(ctx context.Context, userID string) (int, error) {
	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service/gamification: loading user %s: %w", userID, err)
	}

	ahead, err := g.users.CountUsersWithMorePoints(ctx, user.Points)
	if err != nil {
		return 0, fmt.Errorf("service/gamification: counting users ahead of %s: %w", userID, err)
	}
	return ahead + 1, nil
}

// Stats returns the aggregates backing a user's profile page.
func (g *GamificationService) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	stats, err := g.users.GetUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/gamification: loading stats for %s: %w", userID, err)
	}
	return stats, nil
}

// Badges returns the fixed badge catalog.
func (g *GamificationService) Badges() []model.Badge {
	return model.BadgeCatalog
}

// Leaderboard returns the top users for a timeframe. "week" and "month"
// restrict the board to recently created accounts; anything else means all
// time. Results are cached briefly in Redis when a cache is configured.
func (g *GamificationService) Leaderboard(ctx context.Context, timeframe string, limit int) ([]model.User, error) {
	if limit <= 0 {
		limit = defaultLeaderboard
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	var since time.Time
	switch timeframe {
	case TimeframeWeek:
		since = time.Now().AddDate(0, 0, -7)
	case TimeframeMonth:
		since = time.Now().AddDate(0, -1, 0)
	default:
		timeframe = TimeframeAll
	}

	key := fmt.Sprintf("leaderboard:%s:%d", timeframe, limit)
	if g.cache != nil {
		if raw, err := g.cache.Get(ctx, key); err == nil {
			var users []model.User
			if err := json.Unmarshal(raw, &users); err == nil {
				return users, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			g.logger.Warn("leaderboard cache read failed", slog.String("error", err.Error()))
		}
	}

	users, err := g.users.Leaderboard(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("service/gamification: loading leaderboard: %w", err)
	}

	if g.cache != nil {
		if raw, err := json.Marshal(users); err == nil {
			if err := g.cache.Set(ctx, key, raw, leaderboardTTL); err != nil {
				g.logger.Warn("leaderboard cache write failed", slog.String("error", err.Error()))
			}
		}
	}
	return users, nil
}

// rewardContribution bundles the post-action gamification steps. Failures
// are logged, not returned: the triggering action already committed.
func (g *GamificationService) rewardContribution(ctx context.Context, userID string, points int) {
	if _, err := g.Award(ctx, userID, points); err != nil {
		g.logger.Warn("failed to award points", slog.String("userID", userID), slog.String("error", err.Error()))
	}
	if err := g.RecordContribution(ctx, userID); err != nil {
		g.logger.Warn("failed to record contribution", slog.String("userID", userID), slog.String("error", err.Error()))
	}
	if _, err := g.CheckBadges(ctx, userID); err != nil {
		g.logger.Warn("failed to check badges", slog.String("userID", userID), slog.String("error", err.Error()))
	}
}
