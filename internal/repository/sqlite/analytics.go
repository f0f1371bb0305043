package sqlite

import (
	"context"
	"fmt"

	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

// compile-time check that *DB implements repository.AnalyticsRepository
var _ repository.AnalyticsRepository = (*DB)(nil)

func (db *DB) Overview(ctx context.Context) (*repository.Overview, error) {
	var o repository.Overview
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM snippets WHERE status = ?),
			(SELECT COALESCE(SUM(views), 0) FROM snippets WHERE status = ?),
			(SELECT COALESCE(SUM(upvotes), 0) FROM snippets WHERE status = ?)`,
		model.SnippetApproved, model.SnippetApproved, model.SnippetApproved,
	).Scan(&o.TotalUsers, &o.TotalSnippets, &o.TotalViews, &o.TotalUpvotes)
	if err != nil {
		return nil, fmt.Errorf("sqlite: computing overview: %w", err)
	}
	return &o, nil
}

func (db *DB) LanguageDistribution(ctx context.Context) ([]repository.LanguageCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT language, COUNT(*) AS n
		 FROM snippets
		 WHERE status = ?
		 GROUP BY language
		 ORDER BY n DESC, language`,
		model.SnippetApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: computing language distribution: %w", err)
	}
	defer rows.Close()

	counts := []repository.LanguageCount{}
	for rows.Next() {
		var c repository.LanguageCount
		if err := rows.Scan(&c.Language, &c.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning language count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating language counts: %w", err)
	}
	return counts, nil
}

func (db *DB) UserChartData(ctx context.Context, userID string) ([]repository.ChartPoint, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT title, views, upvotes, created_at
		 FROM snippets
		 WHERE author_id = ? AND status = ?
		 ORDER BY created_at, id`,
		userID, model.SnippetApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading chart data for %s: %w", userID, err)
	}
	defer rows.Close()

	points := []repository.ChartPoint{}
	for rows.Next() {
		var p repository.ChartPoint
		if err := rows.Scan(&p.Title, &p.Views, &p.Upvotes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning chart point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating chart points: %w", err)
	}
	return points, nil
}
