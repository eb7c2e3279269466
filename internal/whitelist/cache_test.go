package whitelist

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	mu      sync.Mutex
	members map[string]bool
	calls   int
}

func (s *countingStore) IsWhitelisted(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.members[code], nil
}

func newTestDirectory(t *testing.T, store MembershipStore) (*Directory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDirectory(store, client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestDirectoryCachesMembership(t *testing.T) {
	store := &countingStore{members: map[string]bool{"D100": true}}
	dir, _ := newTestDirectory(t, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := dir.IsWhitelisted(ctx, "D100")
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 1, store.calls)

	// Negative results are cached too.
	for i := 0; i < 3; i++ {
		ok, err := dir.IsWhitelisted(ctx, "D999")
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.Equal(t, 2, store.calls)
}

func TestDirectoryInvalidate(t *testing.T) {
	store := &countingStore{members: map[string]bool{}}
	dir, _ := newTestDirectory(t, store)
	ctx := context.Background()

	ok, err := dir.IsWhitelisted(ctx, "D100")
	require.NoError(t, err)
	require.False(t, ok)

	store.mu.Lock()
	store.members["D100"] = true
	store.mu.Unlock()

	// Stale until invalidated.
	ok, err = dir.IsWhitelisted(ctx, "D100")
	require.NoError(t, err)
	require.False(t, ok)

	dir.Invalidate(ctx, []string{"D100"})

	ok, err = dir.IsWhitelisted(ctx, "D100")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDirectoryExpiry(t *testing.T) {
	store := &countingStore{members: map[string]bool{"D100": true}}
	dir, mr := newTestDirectory(t, store)
	ctx := context.Background()

	_, err := dir.IsWhitelisted(ctx, "D100")
	require.NoError(t, err)
	require.Equal(t, 1, store.calls)

	mr.FastForward(2 * time.Minute)

	_, err = dir.IsWhitelisted(ctx, "D100")
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}

func TestDirectoryWithoutRedis(t *testing.T) {
	store := &countingStore{members: map[string]bool{"D100": true}}
	dir := NewDirectory(store, nil, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := dir.IsWhitelisted(ctx, "D100")
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 2, store.calls)
}
