package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var userColumns = []string{"id", "name", "created_at"}

// CreateUser inserts a user row and returns it with the assigned id. The
// recorder is notified only after the store has accepted the write.
func (s *Store) CreateUser(ctx context.Context, name string) (*User, error) {
	u := &User{Name: name, CreatedAt: time.Now().UTC()}

	err := s.instrument(ctx, "INSERT", "users", func(ctx context.Context) error {
		id, err := s.insertRow(ctx, s.db, "users",
			[]string{"name", "created_at"},
			[]any{u.Name, u.CreatedAt},
		)
		if err != nil {
			return err
		}
		u.ID = id
		return nil
	})
	if err != nil {
		return nil, wrapQueryErr("create user", err)
	}

	s.recorder.UserCreated()
	return u, nil
}

// GetUser returns the user with the given id, or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.instrument(ctx, "SELECT", "users", func(ctx context.Context) error {
		query, args, err := sq.Select(userColumns...).
			From("users").
			Where(sq.Eq{"id": id}).
			PlaceholderFormat(s.dialect.PlaceholderFormat()).
			ToSql()
		if err != nil {
			return err
		}
		return s.db.GetContext(ctx, &u, query, args...)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapQueryErr("get user", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	err := s.instrument(ctx, "SELECT", "users", func(ctx context.Context) error {
		query, args, err := sq.Select(userColumns...).
			From("users").
			OrderBy("id").
			PlaceholderFormat(s.dialect.PlaceholderFormat()).
			ToSql()
		if err != nil {
			return err
		}
		return s.db.SelectContext(ctx, &users, query, args...)
	})
	if err != nil {
		return nil, wrapQueryErr("list users", err)
	}
	return users, nil
}

// insertRow builds and executes an INSERT, returning the assigned id.
// PostgreSQL reads the id back through RETURNING; the other dialects use
// LastInsertId.
func (s *Store) insertRow(ctx context.Context, ex Executor, table string, cols []string, vals []any) (int64, error) {
	builder := sq.Insert(table).
		Columns(cols...).
		Values(vals...).
		PlaceholderFormat(s.dialect.PlaceholderFormat())

	if rc := s.dialect.ReturningClause(); rc != "" {
		query, args, err := builder.Suffix(rc).ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := ex.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
