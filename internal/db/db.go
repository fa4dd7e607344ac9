package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crucial707/brewlog/internal/config"
	"github.com/crucial707/brewlog/internal/repo"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ConnectPostgres opens a pooled PostgreSQL connection and verifies it with a ping.
func ConnectPostgres(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database with foreign keys enforced.
// path may be a file name or ":memory:". The pool is limited to one connection:
// SQLite has a single writer, and an in-memory database exists per connection.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "brewlog.db"
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		return "file::memory:?" + pragmas
	}
	pragmas += "&_pragma=journal_mode(WAL)"
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return "file:" + path + "?" + pragmas
}

// OpenStore picks the backend from cfg, connects, and creates the schema.
// PostgreSQL is used in production when DATABASE_URL is set; SQLite otherwise.
func OpenStore(ctx context.Context, cfg config.Config) (repo.Store, error) {
	var store repo.Store
	if cfg.UsePostgres() {
		conn, err := ConnectPostgres(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store = repo.NewPostgresStore(conn)
		slog.Info("using postgres backend")
	} else {
		conn, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store = repo.NewSQLiteStore(conn)
		slog.Info("using sqlite backend", "path", cfg.SQLitePath)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
