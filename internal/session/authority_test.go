package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/shared"
	"github.com/gatehouse/gatehouse/internal/users"
	_ "github.com/gatehouse/gatehouse/testing"
)

type stubLookup struct {
	known map[int64]bool
}

func (s *stubLookup) FindByID(ctx context.Context, id int64) (*users.User, error) {
	if s.known[id] {
		return &users.User{ID: id}, nil
	}
	return nil, shared.ErrUserNotFound
}

func newTestAuthority(duration time.Duration, store Store) *Authority {
	return NewAuthority(&stubLookup{known: map[int64]bool{1: true, 2: true}}, duration, store)
}

func TestCreateResolveDestroy(t *testing.T) {
	ctx := context.Background()
	authority := newTestAuthority(0, nil)

	id, err := authority.Create(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	userID, err := authority.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(1), userID)

	require.True(t, authority.Destroy(ctx, id))

	_, err = authority.Resolve(ctx, id)
	require.ErrorIs(t, err, shared.ErrInvalidSession)

	// destroying again is a no-op
	require.False(t, authority.Destroy(ctx, id))
}

func TestCreateUnknownUser(t *testing.T) {
	authority := newTestAuthority(0, nil)

	_, err := authority.Create(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrUserNotFound)
	require.Zero(t, authority.Len())
}

func TestCreateUniqueIDs(t *testing.T) {
	ctx := context.Background()
	authority := newTestAuthority(0, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := authority.Create(ctx, 1)
		require.NoError(t, err)
		require.False(t, seen[id], "session id issued twice")
		seen[id] = true
	}
}

func TestConcurrentSessionsPerUser(t *testing.T) {
	ctx := context.Background()
	authority := newTestAuthority(0, nil)

	first, err := authority.Create(ctx, 1)
	require.NoError(t, err)
	second, err := authority.Create(ctx, 1)
	require.NoError(t, err)

	// a new login does not invalidate the previous session
	userID, err := authority.Resolve(ctx, first)
	require.NoError(t, err)
	require.Equal(t, int64(1), userID)
	userID, err = authority.Resolve(ctx, second)
	require.NoError(t, err)
	require.Equal(t, int64(1), userID)
}

func TestResolveExpired(t *testing.T) {
	ctx := context.Background()
	authority := newTestAuthority(time.Minute, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	authority.now = func() time.Time { return base }

	id, err := authority.Create(ctx, 1)
	require.NoError(t, err)

	// probe exactly at the boundary still resolves
	authority.now = func() time.Time { return base.Add(time.Minute) }
	userID, err := authority.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(1), userID)

	authority.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	_, err = authority.Resolve(ctx, id)
	require.ErrorIs(t, err, shared.ErrExpiredSession)

	// the expiry check is non-destructive
	require.Equal(t, 1, authority.Len())
}

func TestZeroDurationNeverExpires(t *testing.T) {
	ctx := context.Background()
	authority := newTestAuthority(0, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	authority.now = func() time.Time { return base }

	id, err := authority.Create(ctx, 1)
	require.NoError(t, err)

	authority.now = func() time.Time { return base.Add(1000 * time.Hour) }
	userID, err := authority.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(1), userID)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	authority := newTestAuthority(time.Minute, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	authority.now = func() time.Time { return base }

	stale, err := authority.Create(ctx, 1)
	require.NoError(t, err)

	authority.now = func() time.Time { return base.Add(50 * time.Second) }
	fresh, err := authority.Create(ctx, 2)
	require.NoError(t, err)

	authority.now = func() time.Time { return base.Add(90 * time.Second) }
	require.Equal(t, 1, authority.Sweep(ctx))
	require.Equal(t, 1, authority.Len())

	_, err = authority.Resolve(ctx, stale)
	require.ErrorIs(t, err, shared.ErrInvalidSession)
	userID, err := authority.Resolve(ctx, fresh)
	require.NoError(t, err)
	require.Equal(t, int64(2), userID)
}

func TestSweepDisabledWithoutDuration(t *testing.T) {
	ctx := context.Background()
	authority := newTestAuthority(0, nil)

	_, err := authority.Create(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, authority.Sweep(ctx))
	require.Equal(t, 1, authority.Len())
}

func TestDurableStoreObservesExternalInvalidation(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	authority := newTestAuthority(0, store)

	id, err := authority.Create(ctx, 1)
	require.NoError(t, err)

	userID, err := authority.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(1), userID)

	// invalidate behind the authority's back
	mr.Del("session:" + id)

	_, err = authority.Resolve(ctx, id)
	require.ErrorIs(t, err, shared.ErrInvalidSession)
}

func TestDurableStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	first := newTestAuthority(0, store)
	id, err := first.Create(ctx, 2)
	require.NoError(t, err)

	// a fresh authority sharing the store resolves the session
	second := newTestAuthority(0, store)
	userID, err := second.Resolve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(2), userID)

	require.True(t, second.Destroy(ctx, id))
	_, err = first.Resolve(ctx, id)
	require.ErrorIs(t, err, shared.ErrInvalidSession)
}

func TestRedisStoreDeleteUnknown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	err := store.Delete(context.Background(), "missing")
	require.True(t, errors.Is(err, shared.ErrInvalidSession))
}
