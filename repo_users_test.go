package authgate_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pchalerm/authgate"
)

func TestUsersFindByEmail(t *testing.T) {
	db := newTestDB(t)
	repo := authgate.NewUsersRepository(db)
	ctx := context.Background()

	t.Run("missing email reports record not found", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("finds a created record", func(t *testing.T) {
		_, err := repo.Create(ctx, &authgate.User{
			ID:        "u1",
			Email:     "somchai@example.com",
			FirstName: strPtr("Somchai"),
		})
		require.NoError(t, err)

		found, err := repo.FindByEmail(ctx, "somchai@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", found.ID)
		require.NotNil(t, found.FirstName)
		assert.Equal(t, "Somchai", *found.FirstName)
		assert.NotNil(t, found.CreatedAt)
	})
}

func TestUsersGetOrCreate(t *testing.T) {
	db := newTestDB(t)
	repo := authgate.NewUsersRepository(db)
	ctx := context.Background()

	t.Run("creates on first call", func(t *testing.T) {
		user, err := repo.GetOrCreate(ctx, &authgate.User{
			ID:    "u1",
			Email: "somchai@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, 1, countUsers(t, db))
		assert.NotNil(t, user.CreatedAt, "first creation returns the stored row, timestamps included")
		assert.NotNil(t, user.UpdatedAt)
	})

	t.Run("returns the existing record on repeat calls", func(t *testing.T) {
		user, err := repo.GetOrCreate(ctx, &authgate.User{
			ID:        "different-id",
			Email:     "somchai@example.com",
			FirstName: strPtr("Changed"),
		})
		require.NoError(t, err)

		assert.Equal(t, "u1", user.ID, "existing row wins, the candidate record is discarded")
		assert.Nil(t, user.FirstName)
		assert.Equal(t, 1, countUsers(t, db))
	})

	t.Run("conflict insert falls back to re-reading the winner", func(t *testing.T) {
		// Insert directly to simulate a concurrent creation that lands
		// between the lookup and the guarded insert.
		_, err := db.NewInsert().Model(&authgate.User{
			ID:    "u2",
			Email: "winner@example.com",
		}).Exec(ctx)
		require.NoError(t, err)

		user, err := repo.GetOrCreate(ctx, &authgate.User{
			ID:    "loser",
			Email: "winner@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "u2", user.ID)
	})
}

func TestUsersRepositoryList(t *testing.T) {
	db := newTestDB(t)
	repo := authgate.NewUsersRepository(db)
	ctx := context.Background()

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	for _, u := range []*authgate.User{
		{ID: "u1", Email: "first@example.com"},
		{ID: "u2", Email: "second@example.com"},
	} {
		_, err := repo.Create(ctx, u)
		require.NoError(t, err)
	}

	records, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first@example.com", records[0].Email)
	assert.Equal(t, "second@example.com", records[1].Email)
}

func TestRepositoryManager(t *testing.T) {
	db := newTestDB(t)
	manager := authgate.NewRepositoryManager(db)

	require.NoError(t, manager.Validate())
	assert.NotNil(t, manager.Users())
	assert.NotNil(t, manager.OneTimeCodes())

	t.Run("RunInTx honors canceled contexts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := manager.RunInTx(ctx, nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
