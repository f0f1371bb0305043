package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, role, bio, github_profile,
	github_id, points, level, streak, last_contribution, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var lastContribution sql.NullTime
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Bio,
		&u.GitHubProfile, &u.GitHubID, &u.Points, &u.Level, &u.Streak,
		&lastContribution, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastContribution.Valid {
		u.LastContribution = lastContribution.Time
	}
	return &u, nil
}

// isUniqueViolation detects SQLite UNIQUE constraint failures. The modernc
// driver exposes them only through the error string.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a new account. Username and email collisions surface as
// a conflict error rather than a bare driver error.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Level == 0 {
		user.Level = 1
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, bio, github_profile, github_id,
			points, level, streak, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
		user.Bio, user.GitHubProfile, user.GitHubID,
		user.Points, user.Level, user.Streak, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "username or email already taken")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user with their badge set.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, "user", id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `WHERE username = ?`, "user", username)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, "user", email)
}

func (db *DB) getUser(ctx context.Context, where, resource, arg string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, arg)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound(resource, arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", arg, err)
	}

	badges, err := db.GetBadges(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Badges = badges
	return user, nil
}

// UpsertGitHubUser creates or refreshes an account keyed by github_id.
// First login inserts; later logins keep the internal ID and just refresh
// the profile link. Username collisions with existing local accounts get an
// xid suffix.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET github_profile = ?, updated_at = ? WHERE id = ?`,
			user.GitHubProfile, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	if err := db.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			return err
		}
		// Local account already owns this username, so disambiguate and retry.
		user.Username = user.Username + "-" + xid.New().String()[:5]
		return db.CreateUser(ctx, user)
	}
	return nil
}

func (db *DB) UpdateProfile(ctx context.Context, id, bio, githubProfile string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET bio = ?, github_profile = ?, updated_at = ? WHERE id = ?`,
		bio, githubProfile, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile %s: %w", id, err)
	}
	return requireRowsAffected(result, "user", id)
}

// UpdatePassword stores a new hash and invalidates any pending reset token.
func (db *DB) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, reset_token_hash = '', reset_expires = NULL, updated_at = ?
		 WHERE id = ?`,
		passwordHash, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for %s: %w", id, err)
	}
	return requireRowsAffected(result, "user", id)
}

func (db *DB) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET reset_token_hash = ?, reset_expires = ? WHERE id = ?`,
		tokenHash, expires, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting reset token for %s: %w", id, err)
	}
	return requireRowsAffected(result, "user", id)
}

func (db *DB) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE reset_token_hash = ? AND reset_token_hash != '' AND reset_expires > ?`,
		tokenHash, now)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("reset token", "provided")
		}
		return nil, fmt.Errorf("sqlite: resolving reset token: %w", err)
	}
	return user, nil
}

// AwardPoints increments the point total atomically and returns the new
// total. The increment and the read happen in one transaction so concurrent
// awards can't lose updates.
func (db *DB) AwardPoints(ctx context.Context, id string, delta int) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning award tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET points = points + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now(), id,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: awarding points to %s: %w", id, err)
	}
	if err := requireRowsAffected(result, "user", id); err != nil {
		return 0, err
	}

	var total int
	if err := tx.QueryRowContext(ctx,
		`SELECT points FROM users WHERE id = ?`, id,
	).Scan(&total); err != nil {
		return 0, fmt.Errorf("sqlite: reading points for %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing award tx: %w", err)
	}
	return total, nil
}

// SetLevelIfHigher raises the stored level. The guard keeps level monotonic
// even when concurrent awards finish out of order.
func (db *DB) SetLevelIfHigher(ctx context.Context, id string, level int) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET level = ? WHERE id = ? AND level < ?`,
		level, id, level,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting level for %s: %w", id, err)
	}
	return nil
}

func (db *DB) UpdateStreak(ctx context.Context, id string, streak int, day time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET streak = ?, last_contribution = ? WHERE id = ?`,
		streak, day, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating streak for %s: %w", id, err)
	}
	return requireRowsAffected(result, "user", id)
}

func (db *DB) GetBadges(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT badge FROM badges WHERE user_id = ? ORDER BY awarded_at, badge`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing badges for %s: %w", userID, err)
	}
	defer rows.Close()

	badges := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("sqlite: scanning badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating badges: %w", err)
	}
	return badges, nil
}

// AddBadges persists newly earned badges. INSERT OR IGNORE makes the call
// idempotent: a badge already held is kept, never duplicated.
func (db *DB) AddBadges(ctx context.Context, userID string, badges []string) error {
	for _, badge := range badges {
		_, err := db.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO badges (user_id, badge) VALUES (?, ?)`,
			userID, badge,
		)
		if err != nil {
			return fmt.Errorf("sqlite: awarding badge %s to %s: %w", badge, userID, err)
		}
	}
	return nil
}

func (db *DB) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	var stats model.UserStats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM snippets WHERE author_id = ?),
			(SELECT COUNT(*) FROM snippets WHERE author_id = ? AND status = 'approved'),
			(SELECT COALESCE(SUM(upvotes), 0) FROM snippets WHERE author_id = ?),
			(SELECT COALESCE(SUM(views), 0) FROM snippets WHERE author_id = ?),
			(SELECT COUNT(*) FROM comments WHERE author_id = ?)`,
		userID, userID, userID, userID, userID,
	).Scan(
		&stats.TotalContributions,
		&stats.ApprovedSnippets,
		&stats.TotalUpvotes,
		&stats.TotalViews,
		&stats.CommentsWritten,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: computing stats for %s: %w", userID, err)
	}
	return &stats, nil
}

func (db *DB) CountUsersWithMorePoints(ctx context.Context, points int) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE points > ?`, points,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting users by points: %w", err)
	}
	return count, nil
}

// Leaderboard returns users ordered by points descending. The id tie-break
// keeps the order stable between calls.
func (db *DB) Leaderboard(ctx context.Context, since time.Time, limit int) ([]model.User, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if !since.IsZero() {
		query += ` WHERE created_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY points DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying leaderboard: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboard: %w", err)
	}
	return users, nil
}

// requireRowsAffected translates "UPDATE matched nothing" into NotFound.
func requireRowsAffected(result sql.Result, resource, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
