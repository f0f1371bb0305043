package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

func seedSnippet(t *testing.T, db *DB, authorID, title string, status model.SnippetStatus) *model.Snippet {
	t.Helper()
	s := &model.Snippet{
		Title:       title,
		Description: "prints a greeting",
		Language:    model.LangPython,
		Tags:        []string{"beginner", "strings"},
		Code:        `print("hello")`,
		AuthorID:    authorID,
		Status:      status,
	}
	require.NoError(t, db.CreateSnippet(context.Background(), s))
	return s
}

func TestCreateAndGetSnippet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	s := seedSnippet(t, db, ada.ID, "Hello World", model.SnippetPending)

	got, err := db.GetSnippetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Title)
	assert.Equal(t, "ada", got.AuthorName)
	assert.Equal(t, model.SnippetPending, got.Status)
	assert.ElementsMatch(t, []string{"beginner", "strings"}, got.Tags)
	assert.Zero(t, got.Views)
	assert.Zero(t, got.Upvotes)
}

func TestGetSnippetNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetSnippetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListSnippetsFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	grace := seedUser(t, db, "grace")

	seedSnippet(t, db, ada.ID, "Binary Search", model.SnippetApproved)
	seedSnippet(t, db, ada.ID, "Quick Sort", model.SnippetPending)
	other := &model.Snippet{
		Title: "Channels", Description: "fan-in pattern", Language: model.LangGo,
		Tags: []string{"concurrency"}, Code: "package main", AuthorID: grace.ID,
		Status: model.SnippetApproved,
	}
	require.NoError(t, db.CreateSnippet(ctx, other))

	byStatus, err := db.ListSnippets(ctx, repository.SnippetFilter{Status: model.SnippetApproved})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	byLang, err := db.ListSnippets(ctx, repository.SnippetFilter{Language: "go"})
	require.NoError(t, err)
	require.Len(t, byLang, 1)
	assert.Equal(t, "Channels", byLang[0].Title)

	byTag, err := db.ListSnippets(ctx, repository.SnippetFilter{Tag: "concurrency"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, grace.ID, byTag[0].AuthorID)

	bySearch, err := db.ListSnippets(ctx, repository.SnippetFilter{Search: "fan-in"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)

	byAuthor, err := db.ListSnippets(ctx, repository.SnippetFilter{AuthorID: ada.ID})
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)
}

func TestListSnippetsSortPopular(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	grace := seedUser(t, db, "grace")

	quiet := seedSnippet(t, db, ada.ID, "Quiet", model.SnippetApproved)
	loud := seedSnippet(t, db, ada.ID, "Loud", model.SnippetApproved)

	_, _, err := db.ToggleUpvote(ctx, loud.ID, grace.ID)
	require.NoError(t, err)

	list, err := db.ListSnippets(ctx, repository.SnippetFilter{Sort: repository.SortPopular})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, loud.ID, list[0].ID)
	assert.Equal(t, quiet.ID, list[1].ID)
}

func TestToggleUpvoteKeepsCounterInSync(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	grace := seedUser(t, db, "grace")
	linus := seedUser(t, db, "linus")
	s := seedSnippet(t, db, ada.ID, "Hello", model.SnippetApproved)

	count, voted, err := db.ToggleUpvote(ctx, s.ID, grace.ID)
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 1, count)

	count, voted, err = db.ToggleUpvote(ctx, s.ID, linus.ID)
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 2, count)

	// Toggling twice restores the original state.
	count, voted, err = db.ToggleUpvote(ctx, s.ID, grace.ID)
	require.NoError(t, err)
	assert.False(t, voted)
	assert.Equal(t, 1, count)

	got, err := db.GetSnippetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes)
}

func TestToggleUpvoteMissingSnippet(t *testing.T) {
	db := newTestDB(t)
	ada := seedUser(t, db, "ada")

	_, _, err := db.ToggleUpvote(context.Background(), "missing", ada.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestToggleFavoriteAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	grace := seedUser(t, db, "grace")
	s := seedSnippet(t, db, ada.ID, "Hello", model.SnippetApproved)

	favorited, err := db.ToggleFavorite(ctx, s.ID, grace.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	favorites, err := db.ListFavorites(ctx, grace.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, s.ID, favorites[0].ID)

	favorited, err = db.ToggleFavorite(ctx, s.ID, grace.ID)
	require.NoError(t, err)
	assert.False(t, favorited)

	favorites, err = db.ListFavorites(ctx, grace.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestIncrementViews(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	s := seedSnippet(t, db, ada.ID, "Hello", model.SnippetApproved)

	require.NoError(t, db.IncrementViews(ctx, s.ID))
	require.NoError(t, db.IncrementViews(ctx, s.ID))

	got, err := db.GetSnippetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)
}

func TestUpdateSnippetReplacesTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	s := seedSnippet(t, db, ada.ID, "Hello", model.SnippetApproved)

	s.Title = "Hello v2"
	s.Tags = []string{"updated"}
	s.Status = model.SnippetPending
	require.NoError(t, db.UpdateSnippet(ctx, s))

	got, err := db.GetSnippetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello v2", got.Title)
	assert.Equal(t, []string{"updated"}, got.Tags)
	assert.Equal(t, model.SnippetPending, got.Status)
}

func TestDeleteSnippetCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	grace := seedUser(t, db, "grace")
	s := seedSnippet(t, db, ada.ID, "Hello", model.SnippetApproved)

	_, _, err := db.ToggleUpvote(ctx, s.ID, grace.ID)
	require.NoError(t, err)
	_, err = db.ToggleFavorite(ctx, s.ID, grace.ID)
	require.NoError(t, err)
	require.NoError(t, db.AddComment(ctx, &model.Comment{SnippetID: s.ID, AuthorID: grace.ID, Text: "nice"}))

	require.NoError(t, db.DeleteSnippet(ctx, s.ID))

	_, err = db.GetSnippetByID(ctx, s.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	favorites, err := db.ListFavorites(ctx, grace.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, favorites, "favorites of a deleted snippet disappear with it")

	stats, err := db.GetUserStats(ctx, ada.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalContributions, "contributions are derived from live snippets")
}

func TestComments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	grace := seedUser(t, db, "grace")
	s := seedSnippet(t, db, ada.ID, "Hello", model.SnippetApproved)

	c := &model.Comment{SnippetID: s.ID, AuthorID: grace.ID, Text: "nice one"}
	require.NoError(t, db.AddComment(ctx, c))
	require.NotEmpty(t, c.ID)

	got, err := db.GetComment(ctx, s.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace", got.AuthorName)

	full, err := db.GetSnippetByID(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, full.Comments, 1)
	assert.Equal(t, "nice one", full.Comments[0].Text)

	require.NoError(t, db.DeleteComment(ctx, s.ID, c.ID))
	_, err = db.GetComment(ctx, s.ID, c.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
