package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

type stubCredits struct {
	mu      sync.Mutex
	credits map[int]int
	loads   int
	saveErr error
}

func (s *stubCredits) LoadCredits(_ context.Context, playerID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.credits[playerID], nil
}

func (s *stubCredits) SaveCredits(_ context.Context, playerID, credits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.credits[playerID] = credits
	return nil
}

func TestCreditCacheReadThrough(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := &stubCredits{credits: map[int]int{3: 700}}
	cache := NewCreditCache(rdb, store)
	ctx := context.Background()

	n, err := cache.LoadCredits(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 700, n)
	got, err := mr.Get(creditKey(3))
	require.NoError(t, err)
	assert.Equal(t, "700", got)

	n, err = cache.LoadCredits(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 700, n)
	assert.Equal(t, 1, store.loads, "second read served from redis")
}

func TestCreditCacheIgnoresBadValue(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := &stubCredits{credits: map[int]int{3: 40}}
	cache := NewCreditCache(rdb, store)
	require.NoError(t, mr.Set(creditKey(3), "garbage"))

	n, err := cache.LoadCredits(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 40, n)
	assert.Equal(t, 1, store.loads)
}

func TestCreditCacheSave(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := &stubCredits{credits: map[int]int{}}
	cache := NewCreditCache(rdb, store)
	ctx := context.Background()

	require.NoError(t, cache.SaveCredits(ctx, 3, 880))
	assert.Equal(t, 880, store.credits[3])
	got, err := mr.Get(creditKey(3))
	require.NoError(t, err)
	assert.Equal(t, "880", got)
	assert.Equal(t, creditCacheTTL, mr.TTL(creditKey(3)))
}

func TestCreditCacheSaveFailureDropsEntry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := &stubCredits{credits: map[int]int{3: 500}}
	cache := NewCreditCache(rdb, store)
	ctx := context.Background()

	_, err := cache.LoadCredits(ctx, 3)
	require.NoError(t, err)
	require.True(t, mr.Exists(creditKey(3)))

	store.saveErr = errors.New("db down")
	err = cache.SaveCredits(ctx, 3, 100)
	assert.ErrorIs(t, err, store.saveErr)
	assert.False(t, mr.Exists(creditKey(3)))

	// next read goes back to the store
	n, err := cache.LoadCredits(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 500, n)
	assert.Equal(t, 2, store.loads)
}

func TestCreditCacheRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := &stubCredits{credits: map[int]int{3: 250}}
	cache := NewCreditCache(rdb, store)
	mr.Close()

	n, err := cache.LoadCredits(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 250, n)
	require.NoError(t, cache.SaveCredits(context.Background(), 3, 260))
	assert.Equal(t, 260, store.credits[3])
}

func TestBonusClaimOncePerDay(t *testing.T) {
	mr, rdb := newTestRedis(t)
	claims := NewBonusClaims(rdb)
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)

	ok, err := claims.Claim(ctx, 5, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4*time.Hour, mr.TTL(bonusKey(5, now)))

	ok, err = claims.Claim(ctx, 5, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "same UTC day")

	ok, err = claims.Claim(ctx, 6, now)
	require.NoError(t, err)
	assert.True(t, ok, "other player")

	ok, err = claims.Claim(ctx, 5, now.Add(5*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok, "next UTC day")
}

func TestBonusRelease(t *testing.T) {
	_, rdb := newTestRedis(t)
	claims := NewBonusClaims(rdb)
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

	ok, err := claims.Claim(ctx, 5, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, claims.Release(ctx, 5, now))

	ok, err = claims.Claim(ctx, 5, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdleTrackerExpired(t *testing.T) {
	_, rdb := newTestRedis(t)
	idle := NewIdleTracker(rdb)
	ctx := context.Background()
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	require.NoError(t, idle.Touch(ctx, "a", now.Add(-2*time.Minute)))
	require.NoError(t, idle.Touch(ctx, "b", now.Add(-time.Minute)))
	require.NoError(t, idle.Touch(ctx, "c", now))

	tokens, err := idle.Expired(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tokens)

	// a touch moves the deadline
	require.NoError(t, idle.Touch(ctx, "a", now))
	tokens, err = idle.Expired(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, tokens)

	require.NoError(t, idle.Forget(ctx, "b"))
	tokens, err = idle.Expired(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
