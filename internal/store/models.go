package store

import "time"

// User is a row in the users table. Rows are immutable once created.
type User struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Post is a row in the posts table. UserID always references an existing
// user; CreatePost enforces this before writing.
type Post struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
