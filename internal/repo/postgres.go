package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/crucial707/brewlog/internal/models"
	"github.com/lib/pq"
)

//go:embed schema/postgres.sql
var postgresSchema string

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// ==========================
// PostgresStore
// ==========================
type PostgresStore struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

// ==========================
// Users
// ==========================
func (s *PostgresStore) CreateUser(ctx context.Context, username, token string) (int64, error) {
	query := `
		INSERT INTO users (username, username_lower, token)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := s.DB.QueryRowContext(ctx, query, username, FoldUsername(username), token).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT id, username, token, created_at
		FROM users
		WHERE token = $1
	`

	user := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, token).
		Scan(&user.ID, &user.Username, &user.Token, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *PostgresStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username_lower = $1)`,
		FoldUsername(username),
	).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) UserCount(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// ==========================
// Coffees
// ==========================
func (s *PostgresStore) UserCoffees(ctx context.Context, userID int64) ([]models.Coffee, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, data, created_at FROM coffees WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coffees := []models.Coffee{}
	for rows.Next() {
		var c models.Coffee
		if err := rows.Scan(&c.ID, &c.UserID, &c.Data, &c.CreatedAt); err != nil {
			return nil, err
		}
		coffees = append(coffees, c)
	}
	return coffees, rows.Err()
}

func (s *PostgresStore) SaveCoffee(ctx context.Context, userID int64, data string) (int64, error) {
	return pgInsertCoffee(ctx, s.DB, userID, data)
}

func (s *PostgresStore) DeleteUserCoffees(ctx context.Context, userID int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM coffees WHERE user_id = $1`, userID)
	return err
}

func (s *PostgresStore) ReplaceUserCoffees(ctx context.Context, userID int64, data []string) (int, error) {
	saved := 0
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM coffees WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete coffees: %w", err)
		}
		for _, d := range data {
			if _, err := pgInsertCoffee(ctx, tx, userID, d); err != nil {
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

func pgInsertCoffee(ctx context.Context, q querier, userID int64, data string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO coffees (user_id, data) VALUES ($1, $2) RETURNING id`,
		userID, data,
	).Scan(&id)
	return id, err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
