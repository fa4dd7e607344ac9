package testutil

import (
	"context"
	"testing"

	"github.com/crucial707/brewlog/internal/db"
	"github.com/crucial707/brewlog/internal/repo"
)

// NewSQLiteStore opens an in-memory SQLite store with the schema applied.
// The store is closed when the test finishes.
func NewSQLiteStore(t *testing.T) *repo.SQLiteStore {
	t.Helper()
	conn, err := db.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	store := repo.NewSQLiteStore(conn)
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}
