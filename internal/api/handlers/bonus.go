package handlers

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/rs/zerolog/log"
)

// DailyBonus configures the once-a-day credit gift.
type DailyBonus struct {
	Min        int
	Max        int
	MaxCredits int
}

func (b DailyBonus) draw() int {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + rand.IntN(b.Max-b.Min+1)
}

// ClaimDailyBonus grants a random bonus once per calendar day. The bonus lands
// in the player's live session when one is open, otherwise in the stored
// balance. ledger may be nil.
// POST /api/v1/bonus/daily
func ClaimDailyBonus(sessions SessionManager, credits game.CreditStore, guard BonusGuard, ledger BonusLedger, bonus DailyBonus) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := middleware.PlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		ctx := c.Request.Context()
		now := time.Now()

		claimed, err := guard.Claim(ctx, playerID, now)
		if err != nil {
			log.Error().Err(err).Int("player", playerID).Msg("[BONUS] claim failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !claimed {
			c.JSON(http.StatusConflict, gin.H{"error": "daily bonus already claimed"})
			return
		}

		amount := bonus.draw()
		balance, err := applyBonus(c, sessions, credits, playerID, amount, bonus.MaxCredits)
		if err != nil {
			if rerr := guard.Release(ctx, playerID, now); rerr != nil {
				log.Error().Err(rerr).Int("player", playerID).Msg("[BONUS] release failed")
			}
			respondError(c, err)
			return
		}

		if ledger != nil {
			if ok, err := ledger.RecordDailyBonus(ctx, playerID, now.UTC(), amount); err != nil {
				log.Error().Err(err).Int("player", playerID).Msg("[BONUS] record failed")
			} else if !ok {
				log.Warn().Int("player", playerID).Msg("[BONUS] claim already on record")
			}
		}

		log.Info().Int("player", playerID).Int("amount", amount).Int("credits", balance).Msg("[BONUS] granted")
		c.JSON(http.StatusOK, gin.H{
			"amount":  amount,
			"credits": balance,
		})
	}
}

func applyBonus(c *gin.Context, sessions SessionManager, credits game.CreditStore, playerID, amount, maxCredits int) (int, error) {
	if s, err := sessions.GetByPlayer(playerID); err == nil {
		balance, err := s.AddCredits(amount)
		if !errors.Is(err, game.ErrSessionClosed) {
			return balance, err
		}
		// closed between lookup and credit; fall through to the stored balance
	}

	// a session that just closed may still be writing its final balance
	ctx := c.Request.Context()
	if err := sessions.AwaitSaves(ctx, playerID); err != nil {
		return 0, err
	}
	current, err := credits.LoadCredits(ctx, playerID)
	if err != nil {
		return 0, err
	}
	balance := min(current+amount, maxCredits)
	if err := credits.SaveCredits(ctx, playerID, balance); err != nil {
		return 0, err
	}
	return balance, nil
}
