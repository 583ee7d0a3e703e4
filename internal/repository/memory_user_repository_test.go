package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshliford/amplify-guitar/internal/domain"
)

func TestMemoryUserRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	alice := &domain.User{Email: "alice@example.com", DisplayName: "alice"}
	require.NoError(t, repo.Create(ctx, alice))
	assert.Equal(t, int64(1), alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	got, err := repo.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got.DisplayName = "changed"
	again, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.DisplayName, "returned users are copies")

	again.DisplayName = "ally"
	require.NoError(t, repo.Update(ctx, again))
	again, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "ally", again.DisplayName)

	require.NoError(t, repo.Delete(ctx, alice.ID))
	_, err = repo.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, alice.ID), domain.ErrUserNotFound)
}

func TestMemoryUserRepository_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "alice@example.com"}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Email: "Alice@Example.com"}), domain.ErrEmailTaken)

	bob := &domain.User{Email: "bob@example.com"}
	require.NoError(t, repo.Create(ctx, bob))
	bob.Email = "alice@example.com"
	assert.ErrorIs(t, repo.Update(ctx, bob), domain.ErrEmailTaken)

	assert.ErrorIs(t, repo.Update(ctx, &domain.User{ID: 42}), domain.ErrUserNotFound)
	_, err := repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
