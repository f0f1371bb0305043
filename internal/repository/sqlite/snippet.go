package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

// compile-time check that *DB implements repository.SnippetRepository
var _ repository.SnippetRepository = (*DB)(nil)

func (db *DB) CreateSnippet(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now()
	snippet.ID = xid.New().String()
	if snippet.Status == "" {
		snippet.Status = model.SnippetPending
	}
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning create tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snippets (id, title, description, language, code, author_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID, snippet.Title, snippet.Description, snippet.Language,
		snippet.Code, snippet.AuthorID, snippet.Status,
		snippet.CreatedAt, snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting snippet: %w", err)
	}

	if err := replaceTags(ctx, tx, snippet.ID, snippet.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet create: %w", err)
	}
	return nil
}

// GetSnippetByID loads a snippet with its author name, tags and comments.
func (db *DB) GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var s model.Snippet
	err := db.conn.QueryRowContext(ctx,
		`SELECT s.id, s.title, s.description, s.language, s.code, s.author_id, u.username,
		        s.status, s.views, s.upvotes, s.created_at, s.updated_at
		 FROM snippets s
		 JOIN users u ON u.id = s.author_id
		 WHERE s.id = ?`,
		id,
	).Scan(
		&s.ID, &s.Title, &s.Description, &s.Language, &s.Code,
		&s.AuthorID, &s.AuthorName, &s.Status, &s.Views, &s.Upvotes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	if s.Tags, err = db.tagsFor(ctx, id); err != nil {
		return nil, err
	}
	if s.Comments, err = db.commentsFor(ctx, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) ListSnippets(ctx context.Context, filter repository.SnippetFilter) ([]model.Snippet, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := []string{}
	args := []any{}
	if filter.Status != "" {
		where = append(where, "s.status = ?")
		args = append(args, filter.Status)
	}
	if filter.Language != "" {
		where = append(where, "s.language = ?")
		args = append(args, strings.ToLower(filter.Language))
	}
	if filter.AuthorID != "" {
		where = append(where, "s.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.Tag != "" {
		where = append(where, "s.id IN (SELECT snippet_id FROM snippet_tags WHERE tag = ?)")
		args = append(args, strings.ToLower(filter.Tag))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, "(s.title LIKE ? OR s.description LIKE ?)")
		args = append(args, pattern, pattern)
	}

	var order string
	switch filter.Sort {
	case repository.SortOldest:
		order = "s.created_at ASC, s.id ASC"
	case repository.SortPopular:
		order = "s.upvotes DESC, s.created_at DESC, s.id DESC"
	case repository.SortViews:
		order = "s.views DESC, s.created_at DESC, s.id DESC"
	default: // newest first
		order = "s.created_at DESC, s.id DESC"
	}

	query := `SELECT s.id, s.title, s.description, s.language, s.code, s.author_id, u.username,
	                 s.status, s.views, s.upvotes, s.created_at, s.updated_at
	          FROM snippets s
	          JOIN users u ON u.id = s.author_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + order + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.Language, &s.Code,
			&s.AuthorID, &s.AuthorName, &s.Status, &s.Views, &s.Upvotes,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	for i := range snippets {
		if snippets[i].Tags, err = db.tagsFor(ctx, snippets[i].ID); err != nil {
			return nil, err
		}
	}
	return snippets, nil
}

func (db *DB) UpdateSnippet(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning update tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, language = ?, code = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title, snippet.Description, snippet.Language, snippet.Code,
		snippet.Status, snippet.UpdatedAt, snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}
	if err := requireRowsAffected(result, "snippet", snippet.ID); err != nil {
		return err
	}

	if err := replaceTags(ctx, tx, snippet.ID, snippet.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet update: %w", err)
	}
	return nil
}

func (db *DB) SetSnippetStatus(ctx context.Context, id string, status model.SnippetStatus) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting status of snippet %s: %w", id, err)
	}
	return requireRowsAffected(result, "snippet", id)
}

// DeleteSnippet removes a snippet. Tags, votes, favorites, comments and
// forks go with it via ON DELETE CASCADE; the author's contributions set is
// derived from snippets.author_id, so it shrinks automatically.
func (db *DB) DeleteSnippet(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}
	return requireRowsAffected(result, "snippet", id)
}

func (db *DB) IncrementViews(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing views of %s: %w", id, err)
	}
	return requireRowsAffected(result, "snippet", id)
}

// ToggleUpvote flips the user's membership in the upvoter set. The counter
// is recomputed from the set inside the same transaction, so
// snippets.upvotes always equals the set cardinality.
func (db *DB) ToggleUpvote(ctx context.Context, snippetID, userID string) (int, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: beginning upvote tx: %w", err)
	}
	defer tx.Rollback()

	if err := snippetExists(ctx, tx, snippetID); err != nil {
		return 0, false, err
	}

	voted, err := toggleMembership(ctx, tx, "snippet_upvotes", "snippet_id", snippetID, userID)
	if err != nil {
		return 0, false, err
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		UPDATE snippets
		SET upvotes = (SELECT COUNT(*) FROM snippet_upvotes WHERE snippet_id = ?)
		WHERE id = ?
		RETURNING upvotes`,
		snippetID, snippetID,
	).Scan(&count)
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: syncing upvote counter for %s: %w", snippetID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("sqlite: committing upvote tx: %w", err)
	}
	return count, voted, nil
}

// ToggleFavorite flips membership in the favorites relation. A single table
// holds the relation, read from both the user and snippet side, so the two
// views can never disagree and no two-document update exists to fail halfway.
func (db *DB) ToggleFavorite(ctx context.Context, snippetID, userID string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning favorite tx: %w", err)
	}
	defer tx.Rollback()

	if err := snippetExists(ctx, tx, snippetID); err != nil {
		return false, err
	}

	favorited, err := toggleMembership(ctx, tx, "snippet_favorites", "snippet_id", snippetID, userID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing favorite tx: %w", err)
	}
	return favorited, nil
}

func (db *DB) ListFavorites(ctx context.Context, userID string, limit, offset int) ([]model.Snippet, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.title, s.description, s.language, s.code, s.author_id, u.username,
		        s.status, s.views, s.upvotes, s.created_at, s.updated_at
		 FROM snippet_favorites f
		 JOIN snippets s ON s.id = f.snippet_id
		 JOIN users u ON u.id = s.author_id
		 WHERE f.user_id = ?
		 ORDER BY s.created_at DESC, s.id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing favorites of %s: %w", userID, err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.Language, &s.Code,
			&s.AuthorID, &s.AuthorName, &s.Status, &s.Views, &s.Upvotes,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning favorite row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating favorites: %w", err)
	}
	return snippets, nil
}

func (db *DB) AddComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, snippet_id, author_id, text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.SnippetID, comment.AuthorID, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment: %w", err)
	}
	return nil
}

func (db *DB) GetComment(ctx context.Context, snippetID, commentID string) (*model.Comment, error) {
	var c model.Comment
	err := db.conn.QueryRowContext(ctx,
		`SELECT c.id, c.snippet_id, c.author_id, u.username, c.text, c.created_at
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.id = ? AND c.snippet_id = ?`,
		commentID, snippetID,
	).Scan(&c.ID, &c.SnippetID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment", commentID)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", commentID, err)
	}
	return &c, nil
}

func (db *DB) DeleteComment(ctx context.Context, snippetID, commentID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM comments WHERE id = ? AND snippet_id = ?`, commentID, snippetID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", commentID, err)
	}
	return requireRowsAffected(result, "comment", commentID)
}

// --- helpers ---

func (db *DB) tagsFor(ctx context.Context, snippetID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT tag FROM snippet_tags WHERE snippet_id = ? ORDER BY tag`, snippetID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags of %s: %w", snippetID, err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

func (db *DB) commentsFor(ctx context.Context, snippetID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.snippet_id, c.author_id, u.username, c.text, c.created_at
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.snippet_id = ?
		 ORDER BY c.created_at, c.id`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments of %s: %w", snippetID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.SnippetID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}

func replaceTags(ctx context.Context, tx *sql.Tx, snippetID string, tags []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ?`, snippetID); err != nil {
		return fmt.Errorf("sqlite: clearing tags of %s: %w", snippetID, err)
	}
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO snippet_tags (snippet_id, tag) VALUES (?, ?)`,
			snippetID, tag,
		); err != nil {
			return fmt.Errorf("sqlite: inserting tag %q: %w", tag, err)
		}
	}
	return nil
}

func snippetExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM snippets WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return apperror.NotFound("snippet", id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: checking snippet %s: %w", id, err)
	}
	return nil
}

// toggleMembership deletes the (entity, user) membership row if present,
// inserts it otherwise. Returns the resulting membership. Must run inside
// the caller's transaction.
func toggleMembership(ctx context.Context, tx *sql.Tx, table, entityCol, entityID, userID string) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE `+entityCol+` = ? AND user_id = ?`,
		entityID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing membership in %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected > 0 {
		return false, nil // was a member, now removed
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+table+` (`+entityCol+`, user_id) VALUES (?, ?)`,
		entityID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: adding membership in %s: %w", table, err)
	}
	return true, nil
}
