package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

// AnalyticsService serves the platform-wide aggregate endpoints.
type AnalyticsService struct {
	analytics repository.AnalyticsRepository
	users     repository.UserRepository
	logger    *slog.Logger
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(analytics repository.AnalyticsRepository, users repository.UserRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{analytics: analytics, users: users, logger: logger}
}

// Overview returns the platform totals.
func (a *AnalyticsService) Overview(ctx context.Context) (*repository.Overview, error) {
	overview, err := a.analytics.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: computing overview: %w", err)
	}
	return overview, nil
}

// LanguageDistribution returns approved snippet counts per language.
func (a *AnalyticsService) LanguageDistribution(ctx context.Context) ([]repository.LanguageCount, error) {
	counts, err := a.analytics.LanguageDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: computing language distribution: %w", err)
	}
	return counts, nil
}

// UserChart returns a user's approved snippets as chart points, keyed by
// username since the chart lives on public profile pages.
func (a *AnalyticsService) UserChart(ctx context.Context, username string) ([]repository.ChartPoint, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	points, err := a.analytics.UserChartData(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/analytics: loading chart data: %w", err)
	}
	return points, nil
}
