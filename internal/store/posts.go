package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var postColumns = []string{"id", "user_id", "content", "created_at"}

// CreatePost inserts a post after verifying the target user exists. The
// existence check and the insert share one transaction, so a post can
// never be persisted against a user id the transaction did not observe.
// On ErrNotFound nothing is written and the recorder is not notified.
func (s *Store) CreatePost(ctx context.Context, userID int64, content string) (*Post, error) {
	p := &Post{UserID: userID, Content: content, CreatedAt: time.Now().UTC()}

	err := s.instrument(ctx, "INSERT", "posts", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx Executor) error {
			query, args, err := sq.Select("1").
				From("users").
				Where(sq.Eq{"id": userID}).
				PlaceholderFormat(s.dialect.PlaceholderFormat()).
				ToSql()
			if err != nil {
				return err
			}
			var exists int
			if err := tx.GetContext(ctx, &exists, query, args...); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNotFound
				}
				return err
			}

			id, err := s.insertRow(ctx, tx, "posts",
				[]string{"user_id", "content", "created_at"},
				[]any{p.UserID, p.Content, p.CreatedAt},
			)
			if err != nil {
				return err
			}
			p.ID = id
			return nil
		})
	})
	if err != nil {
		return nil, wrapQueryErr("create post", err)
	}

	s.recorder.PostCreated()
	return p, nil
}

// GetPost returns the post with the given id, or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id int64) (*Post, error) {
	var p Post
	err := s.instrument(ctx, "SELECT", "posts", func(ctx context.Context) error {
		query, args, err := sq.Select(postColumns...).
			From("posts").
			Where(sq.Eq{"id": id}).
			PlaceholderFormat(s.dialect.PlaceholderFormat()).
			ToSql()
		if err != nil {
			return err
		}
		return s.db.GetContext(ctx, &p, query, args...)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapQueryErr("get post", err)
	}
	return &p, nil
}

// ListPosts returns all posts ordered by id.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	posts := []Post{}
	err := s.instrument(ctx, "SELECT", "posts", func(ctx context.Context) error {
		query, args, err := sq.Select(postColumns...).
			From("posts").
			OrderBy("id").
			PlaceholderFormat(s.dialect.PlaceholderFormat()).
			ToSql()
		if err != nil {
			return err
		}
		return s.db.SelectContext(ctx, &posts, query, args...)
	})
	if err != nil {
		return nil, wrapQueryErr("list posts", err)
	}
	return posts, nil
}
