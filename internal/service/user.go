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

const MaxBioLength = 200

// Profile is a user's public profile page: the account, its aggregates and
// leaderboard rank.
type Profile struct {
	User  *model.User      `json:"user"`
	Stats *model.UserStats `json:"stats"`
	Rank  int              `json:"rank"`
}

// UserService serves profiles and profile updates.
type UserService struct {
	users    repository.UserRepository
	snippets repository.SnippetRepository
	game     *GamificationService
	logger   *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(
	users repository.UserRepository,
	snippets repository.SnippetRepository,
	game *GamificationService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		snippets: snippets,
		game:     game,
		logger:   logger,
	}
}

// GetProfile returns a public profile by username.
func (u *UserService) GetProfile(ctx context.Context, username string) (*Profile, error) {
	user, err := u.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	stats, err := u.game.Stats(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	rank, err := u.game.Rank(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	// The password hash never serializes, but scrub it anyway on the
	// public surface.
	user.PasswordHash = ""

	return &Profile{User: user, Stats: stats, Rank: rank}, nil
}

// UpdateProfile updates the caller's own bio and GitHub link.
func (u *UserService) UpdateProfile(ctx context.Context, userID, bio, githubProfile string) (*model.User, error) {
	bio = strings.TrimSpace(bio)
	if len(bio) > MaxBioLength {
		return nil, apperror.ValidationFailed("bio",
			fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
	}

	githubProfile = strings.TrimSpace(githubProfile)
	if githubProfile != "" && !strings.HasPrefix(githubProfile, "https://github.com/") {
		return nil, apperror.ValidationFailed("githubProfile", "must be a github.com profile URL")
	}

	if err := u.users.UpdateProfile(ctx, userID, bio, githubProfile); err != nil {
		return nil, err
	}

	u.logger.Info("profile updated", slog.String("userID", userID))
	return u.users.GetUserByID(ctx, userID)
}

// Snippets lists a user's snippets. Callers see only their own pending and
// rejected work; everyone else gets the approved subset.
func (u *UserService) Snippets(ctx context.Context, username, viewerID string, limit, offset int) ([]model.Snippet, error) {
	user, err := u.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	filter := repository.SnippetFilter{
		AuthorID: user.ID,
		Limit:    clampLimit(limit),
		Offset:   offset,
	}
	if viewerID != user.ID {
		filter.Status = model.SnippetApproved
	}

	snippets, err := u.snippets.ListSnippets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing snippets of %s: %w", username, err)
	}
	return snippets, nil
}
