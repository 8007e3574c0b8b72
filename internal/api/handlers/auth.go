package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/accounts"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/playmatatu/pachinko/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const maxDisplayNameLen = 32

type credentials struct {
	Phone       string `json:"phone"`
	PIN         string `json:"pin"`
	DisplayName string `json:"display_name"`
}

func issueSession(c *gin.Context, cfg *config.Config, p *models.Player, status int) {
	token, exp, err := middleware.IssueToken(cfg.JWTSecret, p.ID, p.PhoneNumber, cfg.JWTTTL)
	if err != nil {
		log.Error().Err(err).Int("player", p.ID).Msg("[AUTH] token signing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{
		"token":      token,
		"expires_at": exp,
		"player":     p,
	})
}

// Register creates a player with a 4-digit PIN and returns a bearer token.
// POST /api/v1/auth/register
func Register(players PlayerStore, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentials
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone and pin required"})
			return
		}

		phone := normalizePhone(strings.TrimSpace(req.Phone))
		if phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
			return
		}
		pin := strings.TrimSpace(req.PIN)
		if !validPIN(pin) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be exactly 4 digits"})
			return
		}
		name := strings.TrimSpace(req.DisplayName)
		if len(name) > maxDisplayNameLen {
			name = name[:maxDisplayNameLen]
		}

		ctx := c.Request.Context()
		_, err := players.GetPlayerByPhone(ctx, phone)
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "phone already registered"})
			return
		}
		if !errors.Is(err, accounts.ErrPlayerNotFound) {
			log.Error().Err(err).Msg("[AUTH] player lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("[AUTH] bcrypt failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		p, err := players.CreatePlayer(ctx, phone, name, string(hash))
		if err != nil {
			log.Error().Err(err).Msg("[AUTH] create player failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		issueSession(c, cfg, p, http.StatusCreated)
	}
}

// Login verifies phone and PIN and returns a bearer token.
// POST /api/v1/auth/login
func Login(players PlayerStore, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentials
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone and pin required"})
			return
		}
		phone := normalizePhone(strings.TrimSpace(req.Phone))
		pin := strings.TrimSpace(req.PIN)
		if phone == "" || pin == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone and pin required"})
			return
		}

		ctx := c.Request.Context()
		p, err := players.GetPlayerByPhone(ctx, phone)
		if errors.Is(err, accounts.ErrPlayerNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid phone or PIN"})
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("[AUTH] player lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !p.PINHash.Valid || bcrypt.CompareHashAndPassword([]byte(p.PINHash.String), []byte(pin)) != nil {
			log.Warn().Int("player", p.ID).Msg("[AUTH] wrong PIN")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid phone or PIN"})
			return
		}
		if !p.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		if err := players.TouchPlayer(ctx, p.ID); err != nil {
			log.Warn().Err(err).Int("player", p.ID).Msg("[AUTH] last_active update failed")
		}
		issueSession(c, cfg, p, http.StatusOK)
	}
}
