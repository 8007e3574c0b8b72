package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/playmatatu/pachinko/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const creditCacheTTL = 10 * time.Minute

func creditKey(playerID int) string {
	return fmt.Sprintf("pachinko:credits:%d", playerID)
}

// CreditCache is a read-through Redis cache in front of a game.CreditStore.
// Writes go to the backing store first and then refresh the cache.
type CreditCache struct {
	rdb  *redis.Client
	next game.CreditStore
	ttl  time.Duration
}

var _ game.CreditStore = (*CreditCache)(nil)

func NewCreditCache(rdb *redis.Client, next game.CreditStore) *CreditCache {
	return &CreditCache{rdb: rdb, next: next, ttl: creditCacheTTL}
}

func (c *CreditCache) LoadCredits(ctx context.Context, playerID int) (int, error) {
	val, err := c.rdb.Get(ctx, creditKey(playerID)).Result()
	if err == nil {
		if n, perr := strconv.Atoi(val); perr == nil {
			return n, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Int("player", playerID).Msg("[CACHE] credit read failed; using store")
	}

	n, err := c.next.LoadCredits(ctx, playerID)
	if err != nil {
		return 0, err
	}
	c.rdb.Set(ctx, creditKey(playerID), n, c.ttl)
	return n, nil
}

func (c *CreditCache) SaveCredits(ctx context.Context, playerID, credits int) error {
	if err := c.next.SaveCredits(ctx, playerID, credits); err != nil {
		c.rdb.Del(ctx, creditKey(playerID))
		return err
	}
	if err := c.rdb.Set(ctx, creditKey(playerID), credits, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Int("player", playerID).Msg("[CACHE] credit write failed")
	}
	return nil
}
