package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/crucial707/brewlog/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLiteStore stores users and coffees in a single SQLite file. Timestamps are
// kept as RFC 3339 text so every driver reads them back the same way.
type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, token string) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (username, username_lower, token) VALUES (?, ?, ?)`,
		username, FoldUsername(username), token,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	var (
		user    models.User
		created string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, token, created_at FROM users WHERE token = ?`,
		token,
	).Scan(&user.ID, &user.Username, &user.Token, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLiteStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username_lower = ?)`,
		FoldUsername(username),
	).Scan(&exists)
	return exists, err
}

func (s *SQLiteStore) UserCount(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) UserCoffees(ctx context.Context, userID int64) ([]models.Coffee, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, data, created_at FROM coffees WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coffees := []models.Coffee{}
	for rows.Next() {
		var (
			c       models.Coffee
			created string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Data, &created); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseSQLiteTime(created); err != nil {
			return nil, err
		}
		coffees = append(coffees, c)
	}
	return coffees, rows.Err()
}

func (s *SQLiteStore) SaveCoffee(ctx context.Context, userID int64, data string) (int64, error) {
	return sqliteInsertCoffee(ctx, s.DB, userID, data)
}

func (s *SQLiteStore) DeleteUserCoffees(ctx context.Context, userID int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM coffees WHERE user_id = ?`, userID)
	return err
}

func (s *SQLiteStore) ReplaceUserCoffees(ctx context.Context, userID int64, data []string) (int, error) {
	saved := 0
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM coffees WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("delete coffees: %w", err)
		}
		for _, d := range data {
			if _, err := sqliteInsertCoffee(ctx, tx, userID, d); err != nil {
				return fmt.Errorf("insert coffee: %w", err)
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return saved, nil
}

func sqliteInsertCoffee(ctx context.Context, q querier, userID int64, data string) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO coffees (user_id, data) VALUES (?, ?)`,
		userID, data,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
