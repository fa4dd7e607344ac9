package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/crucial707/brewlog/internal/models"
)

// FoldUsername is the key usernames are compared on, stored in users.username_lower.
// It is computed in Go so both backends fold non-ASCII letters the same way.
func FoldUsername(username string) string {
	return strings.ToLower(username)
}

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate")
)

// Store is the persistence API shared by every backend. Implementations must behave
// identically; only SQL dialect details differ between them.
type Store interface {
	// EnsureSchema creates tables and indexes that do not exist yet.
	EnsureSchema(ctx context.Context) error

	CreateUser(ctx context.Context, username, token string) (int64, error)
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
	// UsernameExists compares case-insensitively.
	UsernameExists(ctx context.Context, username string) (bool, error)
	UserCount(ctx context.Context) (int, error)

	// UserCoffees returns the user's records, newest first.
	UserCoffees(ctx context.Context, userID int64) ([]models.Coffee, error)
	SaveCoffee(ctx context.Context, userID int64, data string) (int64, error)
	DeleteUserCoffees(ctx context.Context, userID int64) error
	// ReplaceUserCoffees deletes all of the user's records and inserts data in one transaction.
	ReplaceUserCoffees(ctx context.Context, userID int64, data []string) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
