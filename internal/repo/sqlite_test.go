package repo

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store := NewSQLiteStore(db)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func TestSQLiteStore_EnsureSchemaIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	require.NoError(t, store.EnsureSchema(context.Background()))
}

func TestSQLiteStore_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	id, err := store.CreateUser(ctx, "Coffee", "tok-1")
	require.NoError(t, err)
	assert.Positive(t, id)

	user, err := store.GetUserByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Coffee", user.Username)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = store.GetUserByToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := store.UsernameExists(ctx, "COFFEE")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.UsernameExists(ctx, "tea")
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := store.UserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_CreateUser_DuplicateUsernameIgnoresCase(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_, err := store.CreateUser(ctx, "Coffee", "tok-1")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "COFFEE", "tok-2")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = store.CreateUser(ctx, "other", "tok-1")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSQLiteStore_UsernameFoldsNonASCII(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_, err := store.CreateUser(ctx, "émile", "tok-1")
	require.NoError(t, err)

	exists, err := store.UsernameExists(ctx, "ÉMILE")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.CreateUser(ctx, "Émile", "tok-2")
	assert.ErrorIs(t, err, ErrDuplicate)

	user, err := store.GetUserByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "émile", user.Username)
}

func TestSQLiteStore_CoffeesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	uid, err := store.CreateUser(ctx, "alice", "tok")
	require.NoError(t, err)

	_, err = store.SaveCoffee(ctx, uid, `{"name":"A"}`)
	require.NoError(t, err)
	_, err = store.SaveCoffee(ctx, uid, `{"name":"B"}`)
	require.NoError(t, err)

	coffees, err := store.UserCoffees(ctx, uid)
	require.NoError(t, err)
	require.Len(t, coffees, 2)
	assert.Equal(t, `{"name":"B"}`, coffees[0].Data)
	assert.Equal(t, `{"name":"A"}`, coffees[1].Data)
}

func TestSQLiteStore_ReplaceSupersedes(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	uid, err := store.CreateUser(ctx, "alice", "tok")
	require.NoError(t, err)

	n, err := store.ReplaceUserCoffees(ctx, uid, []string{`{"name":"A"}`, `{"name":"B"}`})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.ReplaceUserCoffees(ctx, uid, []string{`{"name":"C"}`})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	coffees, err := store.UserCoffees(ctx, uid)
	require.NoError(t, err)
	require.Len(t, coffees, 1)
	assert.Equal(t, `{"name":"C"}`, coffees[0].Data)

	n, err = store.ReplaceUserCoffees(ctx, uid, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	coffees, err = store.UserCoffees(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, coffees)
}

func TestSQLiteStore_DeleteUserCoffeesLeavesOthers(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	alice, err := store.CreateUser(ctx, "alice", "tok-a")
	require.NoError(t, err)
	bob, err := store.CreateUser(ctx, "bob", "tok-b")
	require.NoError(t, err)

	_, err = store.SaveCoffee(ctx, alice, `{"name":"A"}`)
	require.NoError(t, err)
	_, err = store.SaveCoffee(ctx, bob, `{"name":"B"}`)
	require.NoError(t, err)

	require.NoError(t, store.DeleteUserCoffees(ctx, alice))

	coffees, err := store.UserCoffees(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, coffees)

	coffees, err = store.UserCoffees(ctx, bob)
	require.NoError(t, err)
	require.Len(t, coffees, 1)
	assert.Equal(t, `{"name":"B"}`, coffees[0].Data)
}

func TestSQLiteStore_CascadeOnUserDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	uid, err := store.CreateUser(ctx, "alice", "tok")
	require.NoError(t, err)
	_, err = store.SaveCoffee(ctx, uid, `{}`)
	require.NoError(t, err)

	_, err = store.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, uid)
	require.NoError(t, err)

	var n int
	require.NoError(t, store.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM coffees`).Scan(&n))
	assert.Zero(t, n)
}

func TestSQLiteStore_SaveCoffee_UnknownUser(t *testing.T) {
	store := newTestSQLiteStore(t)
	_, err := store.SaveCoffee(context.Background(), 999, `{}`)
	assert.Error(t, err, "foreign key must reject orphan coffees")
}
