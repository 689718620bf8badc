package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/repository"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client), mr
}

func TestLockerExclusive(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, "submit:s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"submit:s1"))

	_, err = l.TryLock(ctx, "submit:s1", time.Minute)
	assert.ErrorIs(t, err, repository.ErrLocked)

	other, err := l.TryLock(ctx, "submit:s2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists(keyPrefix+"submit:s1"))

	again, err := l.TryLock(ctx, "submit:s1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLockerExpiresAndKeepsForeignHold(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	stale, err := l.TryLock(ctx, "submit:s1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	fresh, err := l.TryLock(ctx, "submit:s1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	_, err = l.TryLock(ctx, "submit:s1", time.Minute)
	assert.ErrorIs(t, err, repository.ErrLocked, "stale unlock must not release the fresh hold")

	require.NoError(t, fresh(ctx))
}

func TestLockerServerDown(t *testing.T) {
	l, mr := newTestLocker(t)
	mr.Close()

	_, err := l.TryLock(context.Background(), "submit:s1", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrLocked)
}
