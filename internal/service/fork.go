package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

// ForkService handles the fork workflow: anyone can propose a modified
// version of a snippet, the community votes on forks, and the snippet's
// owner decides whether to merge one back.
type ForkService struct {
	forks    repository.ForkRepository
	snippets repository.SnippetRepository
	users    repository.UserRepository
	game     *GamificationService
	logger   *slog.Logger
}

// NewForkService creates a ForkService.
func NewForkService(
	forks repository.ForkRepository,
	snippets repository.SnippetRepository,
	users repository.UserRepository,
	game *GamificationService,
	logger *slog.Logger,
) *ForkService {
	return &ForkService{
		forks:    forks,
		snippets: snippets,
		users:    users,
		game:     game,
		logger:   logger,
	}
}

// Fork creates a pending fork of a snippet. The fork inherits the parent's
// language, and the parent's description when none is given; its title marks
// it as a proposed improvement. A summary of the changes is mandatory.
// Forking earns points for the forker.
func (f *ForkService) Fork(ctx context.Context, forkerID, snippetID, code, changes, description, testResults string) (*model.Fork, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperror.ValidationFailed("modifiedCode", "modified code is required")
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("modifiedCode",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if strings.TrimSpace(changes) == "" {
		return nil, apperror.ValidationFailed("changes", "a description of the changes is required")
	}

	parent, err := f.snippets.GetSnippetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = parent.Description
	}

	fork := &model.Fork{
		SnippetID:   parent.ID,
		ForkerID:    forkerID,
		Title:       "Improved: " + parent.Title,
		Description: description,
		Language:    parent.Language,
		Code:        code,
		Changes:     strings.TrimSpace(changes),
		TestResults: testResults,
		Status:      model.ForkPending,
	}

	if err := f.forks.CreateFork(ctx, fork); err != nil {
		return nil, fmt.Errorf("service/fork: creating fork: %w", err)
	}

	f.logger.Info("fork created",
		slog.String("forkID", fork.ID),
		slog.String("snippetID", parent.ID),
		slog.String("forkerID", forkerID),
	)

	f.game.rewardContribution(ctx, forkerID, model.PointsFork)

	return fork, nil
}

// Get returns a fork by ID.
func (f *ForkService) Get(ctx context.Context, forkID string) (*model.Fork, error) {
	return f.forks.GetForkByID(ctx, forkID)
}

// List returns a snippet's forks, most voted first.
func (f *ForkService) List(ctx context.Context, snippetID string) ([]model.Fork, error) {
	if _, err := f.snippets.GetSnippetByID(ctx, snippetID); err != nil {
		return nil, err
	}
	return f.forks.ListForksBySnippet(ctx, snippetID)
}

// ToggleVote flips the caller's vote on a fork.
func (f *ForkService) ToggleVote(ctx context.Context, forkID, userID string) (int, bool, error) {
	return f.forks.ToggleForkVote(ctx, forkID, userID)
}

// Accept merges a pending fork into its parent snippet. Only the parent's
// author may accept; admins are refused like anyone else. The merged snippet
// re-enters moderation, and the forker earns the acceptance reward.
// Accepting an already resolved fork is a conflict, so the reward can never
// be paid twice.
func (f *ForkService) Accept(ctx context.Context, requesterID, forkID string) (*model.Fork, error) {
	fork, err := f.forks.GetForkByID(ctx, forkID)
	if err != nil {
		return nil, err
	}
	parent, err := f.snippets.GetSnippetByID(ctx, fork.SnippetID)
	if err != nil {
		return nil, err
	}

	if parent.AuthorID != requesterID {
		return nil, apperror.Forbidden("only the snippet owner can accept a fork")
	}

	accepted, err := f.forks.AcceptFork(ctx, forkID)
	if err != nil {
		return nil, err
	}

	f.logger.Info("fork accepted",
		slog.String("forkID", forkID),
		slog.String("snippetID", parent.ID),
		slog.String("forkerID", accepted.ForkerID),
	)

	if _, err := f.game.Award(ctx, accepted.ForkerID, model.PointsForkAccepted); err != nil {
		f.logger.Warn("failed to award fork acceptance points",
			slog.String("forkerID", accepted.ForkerID),
			slog.String("error", err.Error()))
	}
	if _, err := f.game.CheckBadges(ctx, accepted.ForkerID); err != nil {
		f.logger.Warn("failed to check badges",
			slog.String("forkerID", accepted.ForkerID),
			slog.String("error", err.Error()))
	}

	return accepted, nil
}

// Reject marks a pending fork rejected without touching the parent. Only
// the parent's author or an admin may reject.
func (f *ForkService) Reject(ctx context.Context, requesterID, forkID string) (*model.Fork, error) {
	fork, err := f.forks.GetForkByID(ctx, forkID)
	if err != nil {
		return nil, err
	}
	parent, err := f.snippets.GetSnippetByID(ctx, fork.SnippetID)
	if err != nil {
		return nil, err
	}

	if err := f.requireOwnerOrAdmin(ctx, requesterID, parent.AuthorID, "only the snippet owner can reject a fork"); err != nil {
		return nil, err
	}

	rejected, err := f.forks.RejectFork(ctx, forkID)
	if err != nil {
		return nil, err
	}

	f.logger.Info("fork rejected",
		slog.String("forkID", forkID),
		slog.String("snippetID", parent.ID),
	)
	return rejected, nil
}

// Remove deletes a fork. The forker or an admin only.
func (f *ForkService) Remove(ctx context.Context, requesterID, forkID string) error {
	fork, err := f.forks.GetForkByID(ctx, forkID)
	if err != nil {
		return err
	}

	if err := f.requireOwnerOrAdmin(ctx, requesterID, fork.ForkerID, "only the forker or an admin can delete this fork"); err != nil {
		return err
	}

	return f.forks.DeleteFork(ctx, forkID)
}

func (f *ForkService) requireOwnerOrAdmin(ctx context.Context, requesterID, ownerID, message string) error {
	if requesterID == ownerID {
		return nil
	}
	requester, err := f.users.GetUserByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("service/fork: loading requester %s: %w", requesterID, err)
	}
	if !requester.IsAdmin() {
		return apperror.Forbidden(message)
	}
	return nil
}
