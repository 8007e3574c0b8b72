package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/playmatatu/pachinko/internal/models"
	"github.com/rs/zerolog/log"
)

// SessionManager is the part of *game.Manager the HTTP layer drives.
type SessionManager interface {
	Create(ctx context.Context, playerID int) (*game.Session, error)
	Get(token string) (*game.Session, error)
	GetByPlayer(playerID int) (*game.Session, error)
	Touch(token string)
	Reset(token string) (game.EconomyState, error)
	Destroy(token string) (game.Summary, error)
	AwaitSaves(ctx context.Context, playerID int) error
	Count() int
}

// PlayerStore looks up and registers players.
type PlayerStore interface {
	GetPlayerByPhone(ctx context.Context, phone string) (*models.Player, error)
	CreatePlayer(ctx context.Context, phone, displayName, pinHash string) (*models.Player, error)
	TouchPlayer(ctx context.Context, playerID int) error
}

// HistoryReader serves stored play history.
type HistoryReader interface {
	RecentSessions(ctx context.Context, playerID, limit int) ([]models.PlaySession, error)
	PlayerStats(ctx context.Context, playerID int) (models.PlayerStats, error)
}

// BonusGuard enforces one daily bonus per player.
type BonusGuard interface {
	Claim(ctx context.Context, playerID int, now time.Time) (bool, error)
	Release(ctx context.Context, playerID int, now time.Time) error
}

// BonusLedger records granted bonuses.
type BonusLedger interface {
	RecordDailyBonus(ctx context.Context, playerID int, day time.Time, amount int) (bool, error)
}

// respondError maps game errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var cfgErr *game.ConfigError
	switch {
	case errors.Is(err, game.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrLaunchCooldown):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &cfgErr):
		log.Error().Err(err).Msg("[API] machine configuration rejected")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("[API] request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ownedSession loads the session named by the :token parameter and checks it
// belongs to the authenticated player.
func ownedSession(c *gin.Context, sessions SessionManager) (*game.Session, bool) {
	playerID, ok := middleware.PlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return nil, false
	}
	s, err := sessions.Get(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if s.PlayerID != playerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "session belongs to another player"})
		return nil, false
	}
	sessions.Touch(s.Token)
	return s, true
}
