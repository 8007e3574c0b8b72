package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/rs/zerolog/log"
)

// recentHistory is how many stored sessions the stats endpoint returns.
const recentHistory = 10

// CreateSession opens the caller's session, or returns the one already open.
// POST /api/v1/sessions
func CreateSession(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := middleware.PlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		s, err := sessions.Create(c.Request.Context(), playerID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header("X-Session-Token", s.Token)
		c.JSON(http.StatusOK, gin.H{
			"token": s.Token,
			"field": s.Field(),
			"frame": s.Snapshot(),
		})
	}
}

// GetSession returns the current frame.
// GET /api/v1/sessions/:token
func GetSession(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, sessions)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	}
}

// Launch puts a ball into play. A missing power uses the default dial position.
// POST /api/v1/sessions/:token/launch
func Launch(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, sessions)
		if !ok {
			return
		}

		var req struct {
			Power *float64 `json:"power"`
		}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "power must be a number"})
				return
			}
		}
		power := s.Config().DefaultPower
		if req.Power != nil {
			power = *req.Power
		}

		id, err := s.Launch(power)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ball_id": id,
			"economy": s.Economy(),
		})
	}
}

// ResetSession clears the board and restores the starting stake.
// POST /api/v1/sessions/:token/reset
func ResetSession(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, sessions)
		if !ok {
			return
		}
		st, err := sessions.Reset(s.Token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"economy": st})
	}
}

// DestroySession closes the session and returns its final record.
// DELETE /api/v1/sessions/:token
func DestroySession(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, sessions)
		if !ok {
			return
		}
		summary, err := sessions.Destroy(s.Token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}

// GetStats returns the live session statistics together with the player's
// stored history. history may be nil.
// GET /api/v1/sessions/:token/stats
func GetStats(sessions SessionManager, history HistoryReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, sessions)
		if !ok {
			return
		}

		resp := gin.H{"session": s.Stats()}
		if history != nil {
			ctx := c.Request.Context()
			recent, err := history.RecentSessions(ctx, s.PlayerID, recentHistory)
			if err != nil {
				log.Warn().Err(err).Int("player", s.PlayerID).Msg("[API] recent sessions unavailable")
			} else {
				resp["history"] = recent
			}
			totals, err := history.PlayerStats(ctx, s.PlayerID)
			if err != nil {
				log.Warn().Err(err).Int("player", s.PlayerID).Msg("[API] player stats unavailable")
			} else {
				resp["totals"] = totals
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
