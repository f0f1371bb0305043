package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

// compile-time check that *DB implements repository.ForkRepository
var _ repository.ForkRepository = (*DB)(nil)

const forkColumns = `f.id, f.snippet_id, f.forker_id, u.username, f.title, f.description,
	f.language, f.code, f.changes, f.test_results, f.votes, f.status, f.created_at, f.updated_at`

func scanFork(row interface{ Scan(...any) error }) (*model.Fork, error) {
	var f model.Fork
	err := row.Scan(
		&f.ID, &f.SnippetID, &f.ForkerID, &f.ForkerName, &f.Title, &f.Description,
		&f.Language, &f.Code, &f.Changes, &f.TestResults, &f.Votes, &f.Status,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (db *DB) CreateFork(ctx context.Context, fork *model.Fork) error {
	now := time.Now()
	fork.ID = xid.New().String()
	if fork.Status == "" {
		fork.Status = model.ForkPending
	}
	fork.CreatedAt = now
	fork.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO forks (id, snippet_id, forker_id, title, description, language,
		                    code, changes, test_results, votes, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		fork.ID, fork.SnippetID, fork.ForkerID, fork.Title, fork.Description,
		fork.Language, fork.Code, fork.Changes, fork.TestResults, fork.Status,
		fork.CreatedAt, fork.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting fork: %w", err)
	}
	return nil
}

func (db *DB) GetForkByID(ctx context.Context, id string) (*model.Fork, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+forkColumns+` FROM forks f JOIN users u ON u.id = f.forker_id WHERE f.id = ?`,
		id,
	)
	fork, err := scanFork(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("fork", id)
		}
		return nil, fmt.Errorf("sqlite: getting fork %s: %w", id, err)
	}
	return fork, nil
}

func (db *DB) ListForksBySnippet(ctx context.Context, snippetID string) ([]model.Fork, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+forkColumns+`
		 FROM forks f
		 JOIN users u ON u.id = f.forker_id
		 WHERE f.snippet_id = ?
		 ORDER BY f.votes DESC, f.created_at DESC, f.id DESC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing forks of %s: %w", snippetID, err)
	}
	defer rows.Close()

	forks := []model.Fork{}
	for rows.Next() {
		fork, err := scanFork(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning fork row: %w", err)
		}
		forks = append(forks, *fork)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating forks: %w", err)
	}
	return forks, nil
}

func (db *DB) ToggleForkVote(ctx context.Context, forkID, userID string) (int, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: beginning fork vote tx: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM forks WHERE id = ?`, forkID).Scan(&one)
	if err == sql.ErrNoRows {
		return 0, false, apperror.NotFound("fork", forkID)
	}
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: checking fork %s: %w", forkID, err)
	}

	voted, err := toggleMembership(ctx, tx, "fork_votes", "fork_id", forkID, userID)
	if err != nil {
		return 0, false, err
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		UPDATE forks
		SET votes = (SELECT COUNT(*) FROM fork_votes WHERE fork_id = ?)
		WHERE id = ?
		RETURNING votes`,
		forkID, forkID,
	).Scan(&count)
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: syncing vote counter for fork %s: %w", forkID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("sqlite: committing fork vote tx: %w", err)
	}
	return count, voted, nil
}

// AcceptFork applies the fork's code to the parent snippet and marks the
// fork accepted, in one transaction. The parent goes back to pending so
// the merged code passes moderation again. Only a pending fork can be
// accepted; a second accept gets a conflict, never a second application.
func (db *DB) AcceptFork(ctx context.Context, forkID string) (*model.Fork, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning accept tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+forkColumns+` FROM forks f JOIN users u ON u.id = f.forker_id WHERE f.id = ?`,
		forkID,
	)
	fork, err := scanFork(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("fork", forkID)
		}
		return nil, fmt.Errorf("sqlite: getting fork %s: %w", forkID, err)
	}
	if fork.Status != model.ForkPending {
		return nil, apperror.Conflict("fork", "fork has already been resolved")
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE snippets SET code = ?, status = ?, updated_at = ? WHERE id = ?`,
		fork.Code, model.SnippetPending, now, fork.SnippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: applying fork to snippet %s: %w", fork.SnippetID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE forks SET status = ?, updated_at = ? WHERE id = ?`,
		model.ForkAccepted, now, forkID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking fork %s accepted: %w", forkID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing accept tx: %w", err)
	}

	fork.Status = model.ForkAccepted
	fork.UpdatedAt = now
	return fork, nil
}

// RejectFork marks a pending fork rejected without touching the parent.
func (db *DB) RejectFork(ctx context.Context, forkID string) (*model.Fork, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning reject tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+forkColumns+` FROM forks f JOIN users u ON u.id = f.forker_id WHERE f.id = ?`,
		forkID,
	)
	fork, err := scanFork(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("fork", forkID)
		}
		return nil, fmt.Errorf("sqlite: getting fork %s: %w", forkID, err)
	}
	if fork.Status != model.ForkPending {
		return nil, apperror.Conflict("fork", "fork has already been resolved")
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE forks SET status = ?, updated_at = ? WHERE id = ?`,
		model.ForkRejected, now, forkID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking fork %s rejected: %w", forkID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing reject tx: %w", err)
	}

	fork.Status = model.ForkRejected
	fork.UpdatedAt = now
	return fork, nil
}

func (db *DB) DeleteFork(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM forks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting fork %s: %w", id, err)
	}
	return requireRowsAffected(result, "fork", id)
}
