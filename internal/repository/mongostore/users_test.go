package mongostore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/repository"
	"github.com/osavchenko/ecoroute/internal/repository/mongostore"
	"github.com/osavchenko/ecoroute/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	mc := testutil.StartMongoContainer(t)
	t.Cleanup(mc.Terminate)

	// Fresh database per subtest so unique index checks don't interfere
	newRepo := func(t *testing.T, dbName string) repository.UserRepo {
		t.Helper()

		storage := mongostore.NewStorage(mc.Client.Database(dbName))
		require.NoError(t, storage.EnsureIndexes(t.Context()))
		return storage.User()
	}

	alice := repository.CreateUserParams{
		Email:        "Alice@Example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		FullName:     "Alice Doe",
	}

	t.Run("create and get back", func(t *testing.T) {
		repo := newRepo(t, "users-create")

		created, err := repo.CreateUser(t.Context(), alice)
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "alice@example.com", created.Email, "email should be stored normalized")
		assert.Equal(t, "Alice Doe", created.FullName)
		assert.False(t, created.CreatedAt.IsZero())

		byID, err := repo.GetUserByID(t.Context(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, byID)
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		repo := newRepo(t, "users-email")

		created, err := repo.CreateUser(t.Context(), alice)
		require.NoError(t, err)

		byEmail, err := repo.GetUserByEmail(t.Context(), "ALICE@EXAMPLE.COM")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
	})

	t.Run("duplicate email rejected by unique index", func(t *testing.T) {
		repo := newRepo(t, "users-duplicate")

		_, err := repo.CreateUser(t.Context(), alice)
		require.NoError(t, err)

		// different case, same mailbox
		dup := alice
		dup.Email = "ALICE@example.com"

		_, err = repo.CreateUser(t.Context(), dup)
		require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t, "users-notfound")

		_, err := repo.GetUserByEmail(t.Context(), "nobody@example.com")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)

		_, err = repo.GetUserByID(t.Context(), "65b7deadbeefdeadbeefdead")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)

		_, err = repo.GetUserByID(t.Context(), "not-an-object-id")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound, "malformed id can't match any user")
	})
}
