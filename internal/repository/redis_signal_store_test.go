package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/testutil"
)

func newRedisStore(t *testing.T, capacity int) (*RedisSignalStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })
	return NewRedisSignalStore(cli, "test", capacity), mr
}

func TestRedisStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t, 10)

	n, err := s.Append(ctx, testutil.FullSignal("a", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.Append(ctx, testutil.MinimalSignal("b", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.List(ctx, -1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, testutil.FullSignal("a", 1), got[1])
	assert.NoError(t, s.Health(ctx))
}

func TestRedisStoreEvictsAndAllowsReuse(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, 3)

	for i := 0; i < 5; i++ {
		n, err := s.Append(ctx, testutil.MinimalSignal(fmt.Sprintf("s%d", i), int64(i)))
		require.NoError(t, err)
		assert.LessOrEqual(t, n, 3)
	}
	got, err := s.List(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"s4", "s3", "s2"}, ids(got))

	members, err := mr.SMembers("test:signal_idset")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s2", "s3", "s4"}, members)

	_, err = s.Append(ctx, testutil.MinimalSignal("s0", 9))
	assert.NoError(t, err)
}

func TestRedisStoreRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t, 3)
	_, err := s.Append(ctx, testutil.MinimalSignal("x", 1))
	require.NoError(t, err)
	_, err = s.Append(ctx, testutil.MinimalSignal("x", 2))
	assert.ErrorIs(t, err, repository.ErrDuplicateID)

	got, _ := s.List(ctx, 10)
	assert.Len(t, got, 1)
}

func TestRedisStoreReportsUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, 3)
	mr.Close()

	_, err := s.Append(ctx, testutil.MinimalSignal("x", 1))
	assert.Error(t, err)
	assert.Error(t, s.Health(ctx))
}
