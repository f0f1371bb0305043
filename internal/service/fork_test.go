package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaditya248659/Code-Snippet-Library/internal/apperror"
	"github.com/aaditya248659/Code-Snippet-Library/internal/model"
)

func TestForkInheritsParentMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	s := env.submit(t, ada.ID, "Hello")

	fork, err := env.forks.Fork(ctx, grace.ID, s.ID, `print("hi, faster")`, "sped it up", "", "")
	require.NoError(t, err)

	assert.Equal(t, "Improved: Hello", fork.Title)
	assert.Equal(t, s.Language, fork.Language)
	assert.Equal(t, s.Description, fork.Description, "no description given, the parent's carries over")
	assert.Equal(t, model.ForkPending, fork.Status)

	got, err := env.db.GetUserByID(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PointsFork, got.Points, "forking earns points")
}

func TestForkValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	s := env.submit(t, ada.ID, "Hello")

	_, err := env.forks.Fork(ctx, grace.ID, s.ID, "  ", "changes", "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.forks.Fork(ctx, grace.ID, s.ID, "code", "  ", "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation, "a fork must say what it changes")

	_, err = env.forks.Fork(ctx, grace.ID, "missing-snippet", "code", "changes", "", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestForkKeepsOwnDescription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	s := env.submit(t, ada.ID, "Hello")

	fork, err := env.forks.Fork(ctx, grace.ID, s.ID, `print("v2")`, "tweak", "now with less ceremony", "")
	require.NoError(t, err)
	assert.Equal(t, "now with less ceremony", fork.Description)
}

func TestForkVotesCountDistinctVoters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	s := env.submit(t, ada.ID, "Hello")

	fork, err := env.forks.Fork(ctx, grace.ID, s.ID, `print("v2")`, "tweak", "", "")
	require.NoError(t, err)

	voters := []*model.User{env.user(t, "linus"), env.user(t, "tove"), env.user(t, "rob")}
	var count int
	for _, v := range voters {
		var voted bool
		count, voted, err = env.forks.ToggleVote(ctx, fork.ID, v.ID)
		require.NoError(t, err)
		assert.True(t, voted)
	}
	assert.Equal(t, 3, count)
}

func TestAcceptForkOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	mod := env.admin(t, "mod")
	s := env.submit(t, ada.ID, "Hello")

	fork, err := env.forks.Fork(ctx, grace.ID, s.ID, `print("v2")`, "tweak", "", "")
	require.NoError(t, err)

	_, err = env.forks.Accept(ctx, grace.ID, fork.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden, "the forker cannot accept their own fork")

	_, err = env.forks.Accept(ctx, mod.ID, fork.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden, "not even an admin may merge into someone's snippet")

	accepted, err := env.forks.Accept(ctx, ada.ID, fork.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ForkAccepted, accepted.Status)

	parent, err := env.db.GetSnippetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, `print("v2")`, parent.Code)
	assert.Equal(t, model.SnippetPending, parent.Status)
}

func TestAcceptForkRewardsForkerOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	s := env.submit(t, ada.ID, "Hello")

	fork, err := env.forks.Fork(ctx, grace.ID, s.ID, `print("v2")`, "tweak", "", "")
	require.NoError(t, err)

	_, err = env.forks.Accept(ctx, ada.ID, fork.ID)
	require.NoError(t, err)

	got, err := env.db.GetUserByID(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PointsFork+model.PointsForkAccepted, got.Points)

	// A second accept conflicts and pays nothing.
	_, err = env.forks.Accept(ctx, ada.ID, fork.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	got, err = env.db.GetUserByID(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PointsFork+model.PointsForkAccepted, got.Points)
}

func TestRejectForkLeavesParentAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	s := env.submit(t, ada.ID, "Hello")

	fork, err := env.forks.Fork(ctx, grace.ID, s.ID, `print("v2")`, "tweak", "", "")
	require.NoError(t, err)

	rejected, err := env.forks.Reject(ctx, ada.ID, fork.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ForkRejected, rejected.Status)

	parent, err := env.db.GetSnippetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Code, parent.Code)
}

func TestRemoveForkAuthz(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.user(t, "ada")
	grace := env.user(t, "grace")
	mod := env.admin(t, "mod")
	s := env.submit(t, ada.ID, "Hello")

	fork, err := env.forks.Fork(ctx, grace.ID, s.ID, `print("v2")`, "tweak", "", "")
	require.NoError(t, err)

	err = env.forks.Remove(ctx, ada.ID, fork.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden, "the snippet owner cannot delete someone's fork")

	require.NoError(t, env.forks.Remove(ctx, mod.ID, fork.ID))
	_, err = env.forks.Get(ctx, fork.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
