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

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
	MaxCodeLength        = 100000 // ~100KB of code
	MaxTagCount          = 10
	MaxCommentLength     = 500
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// SnippetService handles the snippet lifecycle: submission, moderation,
// editing, voting, favorites and comments.
type SnippetService struct {
	snippets repository.SnippetRepository
	users    repository.UserRepository
	game     *GamificationService
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService.
func NewSnippetService(
	snippets repository.SnippetRepository,
	users repository.UserRepository,
	game *GamificationService,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		users:    users,
		game:     game,
		logger:   logger,
	}
}

// validateSnippetFields checks the shared invariants of a snippet's content.
func validateSnippetFields(title, description, language, code string) (model.Language, error) {
	if strings.TrimSpace(title) == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if strings.TrimSpace(description) == "" {
		return "", apperror.ValidationFailed("problemDescription", "description is required")
	}
	if len(description) > MaxDescriptionLength {
		return "", apperror.ValidationFailed("problemDescription",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if strings.TrimSpace(code) == "" {
		return "", apperror.ValidationFailed("code", "code is required")
	}
	if len(code) > MaxCodeLength {
		return "", apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	lang, ok := model.ParseLanguage(language)
	if !ok {
		return "", apperror.ValidationFailed("language",
			fmt.Sprintf("unsupported language %q", language))
	}
	return lang, nil
}

// normalizeTags lowercases, trims and de-duplicates tags.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == MaxTagCount {
			break
		}
	}
	return out
}

// Submit creates a new snippet in pending status. Every submission goes
// through moderation regardless of who submits it. Submitting earns points
// and may unlock badges; gamification failures don't undo the submission.
func (s *SnippetService) Submit(ctx context.Context, authorID, title, description, language, code string, tags []string) (*model.Snippet, error) {
	lang, err := validateSnippetFields(title, description, language, code)
	if err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Language:    lang,
		Tags:        normalizeTags(tags),
		Code:        code,
		AuthorID:    authorID,
		Status:      model.SnippetPending,
	}

	if err := s.snippets.CreateSnippet(ctx, snippet); err != nil {
		return nil, fmt.Errorf("service/snippet: creating snippet: %w", err)
	}

	s.logger.Info("snippet submitted",
		slog.String("id", snippet.ID),
		slog.String("authorID", authorID),
		slog.String("language", string(lang)),
	)

	s.game.rewardContribution(ctx, authorID, model.PointsSubmit)

	return snippet, nil
}

// Get returns a snippet by ID. When countView is set the view counter is
// bumped first, best-effort: a failed increment is logged and the read
// still succeeds.
func (s *SnippetService) Get(ctx context.Context, id string, countView bool) (*model.Snippet, error) {
	if countView {
		if err := s.snippets.IncrementViews(ctx, id); err != nil {
			s.logger.Warn("failed to increment views",
				slog.String("id", id), slog.String("error", err.Error()))
		}
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return snippet, nil
}

// List returns approved snippets only; the public browse surface never
// shows pending or rejected work.
func (s *SnippetService) List(ctx context.Context, filter repository.SnippetFilter) ([]model.Snippet, error) {
	filter.Status = model.SnippetApproved
	filter.Limit = clampLimit(filter.Limit)

	snippets, err := s.snippets.ListSnippets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: listing snippets: %w", err)
	}
	return snippets, nil
}

// ListPending returns the moderation queue. Moderator only.
func (s *SnippetService) ListPending(ctx context.Context, moderatorID string, limit, offset int) ([]model.Snippet, error) {
	if err := s.requireAdmin(ctx, moderatorID); err != nil {
		return nil, err
	}

	snippets, err := s.snippets.ListSnippets(ctx, repository.SnippetFilter{
		Status: model.SnippetPending,
		Sort:   repository.SortOldest,
		Limit:  clampLimit(limit),
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("service/snippet: listing pending snippets: %w", err)
	}
	return snippets, nil
}

// Edit applies a partial update. The author or an admin may edit; an edit
// by a non-admin sends the snippet back to moderation.
func (s *SnippetService) Edit(ctx context.Context, editorID, snippetID string, patch model.SnippetPatch) (*model.Snippet, error) {
	snippet, err := s.snippets.GetSnippetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}

	editor, err := s.users.GetUserByID(ctx, editorID)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: loading editor %s: %w", editorID, err)
	}
	if snippet.AuthorID != editorID && !editor.IsAdmin() {
		return nil, apperror.Forbidden("only the author or an admin can edit this snippet")
	}

	if patch.Title != nil {
		snippet.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		snippet.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Code != nil {
		snippet.Code = *patch.Code
	}
	if patch.Language != nil {
		snippet.Language = model.Language(*patch.Language)
	}
	if patch.Tags != nil {
		snippet.Tags = normalizeTags(*patch.Tags)
	}

	lang, err := validateSnippetFields(snippet.Title, snippet.Description, string(snippet.Language), snippet.Code)
	if err != nil {
		return nil, err
	}
	snippet.Language = lang

	// Edited content needs another moderation pass unless an admin did it.
	if !editor.IsAdmin() {
		snippet.Status = model.SnippetPending
	}

	if err := s.snippets.UpdateSnippet(ctx, snippet); err != nil {
		return nil, fmt.Errorf("service/snippet: updating snippet %s: %w", snippetID, err)
	}

	s.logger.Info("snippet edited",
		slog.String("id", snippetID),
		slog.String("editorID", editorID),
		slog.String("status", string(snippet.Status)),
	)
	return snippet, nil
}

// Approve moves a snippet to approved. Moderator only.
func (s *SnippetService) Approve(ctx context.Context, moderatorID, snippetID string) error {
	return s.moderate(ctx, moderatorID, snippetID, model.SnippetApproved)
}

// Reject moves a snippet to rejected. Moderator only. The snippet stays
// visible to its author but never enters the public listing.
func (s *SnippetService) Reject(ctx context.Context, moderatorID, snippetID string) error {
	return s.moderate(ctx, moderatorID, snippetID, model.SnippetRejected)
}

func (s *SnippetService) moderate(ctx context.Context, moderatorID, snippetID string, status model.SnippetStatus) error {
	if err := s.requireAdmin(ctx, moderatorID); err != nil {
		return err
	}

	if err := s.snippets.SetSnippetStatus(ctx, snippetID, status); err != nil {
		return err
	}

	s.logger.Info("snippet moderated",
		slog.String("id", snippetID),
		slog.String("moderatorID", moderatorID),
		slog.String("status", string(status)),
	)
	return nil
}

// Remove deletes a snippet. The author or an admin may remove it. Votes,
// favorites, comments and forks go with it.
func (s *SnippetService) Remove(ctx context.Context, requesterID, snippetID string) error {
	snippet, err := s.snippets.GetSnippetByID(ctx, snippetID)
	if err != nil {
		return err
	}

	requester, err := s.users.GetUserByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("service/snippet: loading requester %s: %w", requesterID, err)
	}
	if snippet.AuthorID != requesterID && !requester.IsAdmin() {
		return apperror.Forbidden("only the author or an admin can delete this snippet")
	}

	if err := s.snippets.DeleteSnippet(ctx, snippetID); err != nil {
		return err
	}

	s.logger.Info("snippet deleted",
		slog.String("id", snippetID),
		slog.String("requesterID", requesterID),
	)
	return nil
}

// ToggleUpvote flips the caller's upvote and returns the new count and
// whether the caller is now a voter.
func (s *SnippetService) ToggleUpvote(ctx context.Context, snippetID, userID string) (int, bool, error) {
	return s.snippets.ToggleUpvote(ctx, snippetID, userID)
}

// ToggleFavorite flips the caller's favorite and returns the new state.
func (s *SnippetService) ToggleFavorite(ctx context.Context, snippetID, userID string) (bool, error) {
	return s.snippets.ToggleFavorite(ctx, snippetID, userID)
}

// Favorites lists the caller's favorited snippets.
func (s *SnippetService) Favorites(ctx context.Context, userID string, limit, offset int) ([]model.Snippet, error) {
	return s.snippets.ListFavorites(ctx, userID, clampLimit(limit), offset)
}

// AddComment attaches a comment to a snippet.
func (s *SnippetService) AddComment(ctx context.Context, snippetID, authorID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "comment text is required")
	}
	if len(text) > MaxCommentLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	if _, err := s.snippets.GetSnippetByID(ctx, snippetID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		SnippetID: snippetID,
		AuthorID:  authorID,
		Text:      text,
	}
	if err := s.snippets.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("service/snippet: adding comment: %w", err)
	}
	return comment, nil
}

// DeleteComment removes a comment. The comment's author or an admin only.
func (s *SnippetService) DeleteComment(ctx context.Context, requesterID, snippetID, commentID string) error {
	comment, err := s.snippets.GetComment(ctx, snippetID, commentID)
	if err != nil {
		return err
	}

	requester, err := s.users.GetUserByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("service/snippet: loading requester %s: %w", requesterID, err)
	}
	if comment.AuthorID != requesterID && !requester.IsAdmin() {
		return apperror.Forbidden("only the comment author or an admin can delete this comment")
	}

	return s.snippets.DeleteComment(ctx, snippetID, commentID)
}

func (s *SnippetService) requireAdmin(ctx context.Context, userID string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/snippet: loading user %s: %w", userID, err)
	}
	if !user.IsAdmin() {
		return apperror.Forbidden("admin privileges required")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
