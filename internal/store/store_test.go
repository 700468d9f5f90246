package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arllen133/wikisvc/internal/store"
)

// countRecorder counts creation events for assertions.
type countRecorder struct {
	users int
	posts int
}

func (r *countRecorder) UserCreated() { r.users++ }
func (r *countRecorder) PostCreated() { r.posts++ }

func setupTestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()

	dsn := os.Getenv("TEST_DSN")
	if dsn == "" {
		dsn = ":memory:"
	}

	s, err := store.Open(dsn, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Init(context.Background()))
	return s
}

func TestCreateUserAssignsUniqueIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	for _, name := range []string{"Alice", "Bob", "Alice"} {
		u, err := s.CreateUser(ctx, name)
		require.NoError(t, err)
		require.False(t, seen[u.ID], "id %d issued twice", u.ID)
		seen[u.ID] = true
		assert.Equal(t, name, u.Name)
		assert.False(t, u.CreatedAt.IsZero())
	}
}

func TestGetUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "Alice")
	require.NoError(t, err)

	got, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)

	_, err = s.GetUser(ctx, created.ID+1000)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListUsersOrderedByID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		_, err := s.CreateUser(ctx, name)
		require.NoError(t, err)
	}

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for i := 1; i < len(users); i++ {
		assert.Less(t, users[i-1].ID, users[i].ID)
	}
}

func TestCreatePost(t *testing.T) {
	rec := &countRecorder{}
	s := setupTestStore(t, store.WithRecorder(rec))
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "Alice")
	require.NoError(t, err)

	p, err := s.CreatePost(ctx, u.ID, "Hello")
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, "Hello", p.Content)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "Hello", got.Content)

	assert.Equal(t, 1, rec.users)
	assert.Equal(t, 1, rec.posts)
}

func TestCreatePostMissingUser(t *testing.T) {
	rec := &countRecorder{}
	s := setupTestStore(t, store.WithRecorder(rec))
	ctx := context.Background()

	_, err := s.CreatePost(ctx, 999, "orphan")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Nothing persisted, nothing counted.
	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, 0, rec.posts)
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPost(context.Background(), 42)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListPostsOrderedByID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "Alice")
	require.NoError(t, err)
	for _, content := range []string{"one", "two", "three"} {
		_, err := s.CreatePost(ctx, u.ID, content)
		require.NoError(t, err)
	}

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "one", posts[0].Content)
	for i := 1; i < len(posts); i++ {
		assert.Less(t, posts[i-1].ID, posts[i].ID)
	}
}

func TestRecorderCountsMatchCreates(t *testing.T) {
	rec := &countRecorder{}
	s := setupTestStore(t, store.WithRecorder(rec))
	ctx := context.Background()

	var users []*store.User
	for i := 0; i < 3; i++ {
		u, err := s.CreateUser(ctx, "user")
		require.NoError(t, err)
		users = append(users, u)
	}
	for i := 0; i < 2; i++ {
		_, err := s.CreatePost(ctx, users[i].ID, "post")
		require.NoError(t, err)
	}
	// Failed creates never count.
	_, err := s.CreatePost(ctx, 12345, "post")
	require.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, 3, rec.users)
	assert.Equal(t, 2, rec.posts)
}

func TestInitRetryIsBounded(t *testing.T) {
	s, err := store.Open("/nonexistent-dir/wikisvc.db",
		store.WithInitRetry(2, time.Millisecond, time.Millisecond),
	)
	require.NoError(t, err)
	defer s.Close()

	start := time.Now()
	err = s.Init(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "retry budget must stay bounded")
}

func TestOperationsAfterCloseReportUnavailable(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.CreateUser(context.Background(), "Alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnavailable)

	require.Error(t, s.Ping(context.Background()))
}

func TestResolveDialect(t *testing.T) {
	tests := []struct {
		dsn     string
		dialect store.Dialect
		wantDSN string
	}{
		{"postgres://u:p@localhost:5432/db", store.PostgreSQL, "postgres://u:p@localhost:5432/db"},
		{"postgresql://u:p@localhost/db", store.PostgreSQL, "postgresql://u:p@localhost/db"},
		{"mysql://u:p@tcp(localhost:3306)/db", store.MySQL, "u:p@tcp(localhost:3306)/db?parseTime=true"},
		{"mysql://u:p@tcp(localhost:3306)/db?parseTime=false", store.MySQL, "u:p@tcp(localhost:3306)/db?parseTime=false"},
		{":memory:", store.SQLite, ":memory:"},
		{"wikisvc.db", store.SQLite, "wikisvc.db"},
	}
	for _, tt := range tests {
		d, dsn, err := store.ResolveDialect(tt.dsn)
		require.NoError(t, err, tt.dsn)
		assert.Equal(t, tt.dialect, d, tt.dsn)
		assert.Equal(t, tt.wantDSN, dsn, tt.dsn)
	}

	_, _, err := store.ResolveDialect("")
	require.Error(t, err)
}
