package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func bonusKey(playerID int, day time.Time) string {
	return fmt.Sprintf("pachinko:daily_bonus:%d:%s", playerID, day.UTC().Format(time.DateOnly))
}

// BonusClaims guards the once-per-day bonus with SETNX.
type BonusClaims struct {
	rdb *redis.Client
}

func NewBonusClaims(rdb *redis.Client) *BonusClaims {
	return &BonusClaims{rdb: rdb}
}

// Claim reports true exactly once per player and UTC calendar day. The key
// expires at the end of the day.
func (b *BonusClaims) Claim(ctx context.Context, playerID int, now time.Time) (bool, error) {
	now = now.UTC()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return b.rdb.SetNX(ctx, bonusKey(playerID, now), now.Unix(), endOfDay.Sub(now)).Result()
}

// Release undoes a claim whose credit could not be applied.
func (b *BonusClaims) Release(ctx context.Context, playerID int, now time.Time) error {
	return b.rdb.Del(ctx, bonusKey(playerID, now)).Err()
}
