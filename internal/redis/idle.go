package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/playmatatu/pachinko/internal/game"
	"github.com/redis/go-redis/v9"
)

const idleKey = "pachinko:idle_sessions"

// IdleTracker keeps session activity in a sorted set scored by unix seconds.
type IdleTracker struct {
	rdb *redis.Client
	key string
}

var _ game.IdleTracker = (*IdleTracker)(nil)

func NewIdleTracker(rdb *redis.Client) *IdleTracker {
	return &IdleTracker{rdb: rdb, key: idleKey}
}

func (t *IdleTracker) Touch(ctx context.Context, token string, at time.Time) error {
	return t.rdb.ZAdd(ctx, t.key, redis.Z{Score: float64(at.Unix()), Member: token}).Err()
}

// Expired returns every token last touched at or before cutoff. Members are
// left in place; the manager forgets them when the session is destroyed.
func (t *IdleTracker) Expired(ctx context.Context, cutoff time.Time) ([]string, error) {
	return t.rdb.ZRangeByScore(ctx, t.key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
}

func (t *IdleTracker) Forget(ctx context.Context, token string) error {
	return t.rdb.ZRem(ctx, t.key, token).Err()
}
