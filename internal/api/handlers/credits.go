package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/game"
)

// GetCredits returns the balance.
// GET /api/v1/sessions/:token/credits
func GetCredits(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, sessions)
		if !ok {
			return
		}
		st := s.Economy()
		c.JSON(http.StatusOK, gin.H{
			"credits":         st.Credits,
			"highest_balance": st.HighestBalance,
		})
	}
}

// SetCredits overwrites the balance with a whole number in [0, MaxCredits].
// PUT /api/v1/sessions/:token/credits
func SetCredits(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, sessions)
		if !ok {
			return
		}

		var req struct {
			Credits *int `json:"credits"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Credits == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "credits must be a whole number"})
			return
		}
		if err := s.SetCredits(*req.Credits); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"credits": s.Economy().Credits})
	}
}

// AddCredits tops the balance up by a fixed amount.
// POST /api/v1/sessions/:token/credits/add
func AddCredits(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ownedSession(c, sessions)
		if !ok {
			return
		}
		credits, err := s.AddCredits(game.TopUpAmount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"added":   game.TopUpAmount,
			"credits": credits,
		})
	}
}
