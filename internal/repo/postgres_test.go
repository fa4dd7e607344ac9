package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestPostgresStore_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(username, username_lower, token\)`).
		WithArgs("alice", "alice", "tok").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	store := NewPostgresStore(db)
	id, err := store.CreateUser(context.Background(), "alice", "tok")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if id != 1 {
		t.Errorf("id: got %d, want 1", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_CreateUser_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(username, username_lower, token\)`).
		WithArgs("Alice", "alice", "tok").
		WillReturnError(&pq.Error{Code: "23505"})

	store := NewPostgresStore(db)
	_, err = store.CreateUser(context.Background(), "Alice", "tok")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_GetUserByToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, username, token, created_at`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "token", "created_at"}).
			AddRow(7, "bob", "tok", created))

	store := NewPostgresStore(db)
	user, err := store.GetUserByToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetUserByToken: %v", err)
	}
	if user.ID != 7 || user.Username != "bob" || !user.CreatedAt.Equal(created) {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_GetUserByToken_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, token, created_at`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	store := NewPostgresStore(db)
	_, err = store.GetUserByToken(context.Background(), "nope")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_UsernameExists_CaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`WHERE username_lower = \$1`).
		WithArgs("coffee").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	store := NewPostgresStore(db)
	exists, err := store.UsernameExists(context.Background(), "COFFEE")
	if err != nil {
		t.Fatalf("UsernameExists: %v", err)
	}
	if !exists {
		t.Error("expected username to exist")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_UsernameExists_FoldsNonASCII(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`WHERE username_lower = \$1`).
		WithArgs("émile").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	store := NewPostgresStore(db)
	if _, err := store.UsernameExists(context.Background(), "ÉMILE"); err != nil {
		t.Fatalf("UsernameExists: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_UserCoffees(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, user_id, data, created_at FROM coffees WHERE user_id = \$1 ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "data", "created_at"}).
			AddRow(2, 1, `{"name":"B"}`, now).
			AddRow(1, 1, `{"name":"A"}`, now))

	store := NewPostgresStore(db)
	coffees, err := store.UserCoffees(context.Background(), 1)
	if err != nil {
		t.Fatalf("UserCoffees: %v", err)
	}
	if len(coffees) != 2 || coffees[0].ID != 2 || coffees[1].Data != `{"name":"A"}` {
		t.Errorf("unexpected coffees: %+v", coffees)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_ReplaceUserCoffees(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM coffees WHERE user_id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectQuery(`INSERT INTO coffees \(user_id, data\)`).
		WithArgs(int64(3), `{"name":"X"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`INSERT INTO coffees \(user_id, data\)`).
		WithArgs(int64(3), `{"name":"Y"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	store := NewPostgresStore(db)
	n, err := store.ReplaceUserCoffees(context.Background(), 3, []string{`{"name":"X"}`, `{"name":"Y"}`})
	if err != nil {
		t.Fatalf("ReplaceUserCoffees: %v", err)
	}
	if n != 2 {
		t.Errorf("saved: got %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_ReplaceUserCoffees_RollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM coffees WHERE user_id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO coffees \(user_id, data\)`).
		WithArgs(int64(3), `{}`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	store := NewPostgresStore(db)
	if _, err := store.ReplaceUserCoffees(context.Background(), 3, []string{`{}`}); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostgresStore_DeleteUserCoffees(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM coffees WHERE user_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	store := NewPostgresStore(db)
	if err := store.DeleteUserCoffees(context.Background(), 5); err != nil {
		t.Fatalf("DeleteUserCoffees: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
