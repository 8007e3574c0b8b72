package api

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/api/handlers"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/playmatatu/pachinko/internal/ws"
	"github.com/rs/zerolog/log"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	Config   *config.Config
	Machine  game.Config
	Field    *game.Field
	Sessions handlers.SessionManager
	Players  handlers.PlayerStore
	History  handlers.HistoryReader
	Credits  game.CreditStore
	Bonus    handlers.BonusGuard
	Ledger   handlers.BonusLedger
	Hub      *ws.Hub
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Dependencies) {
	cfg := d.Config
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			// No caching of live game state in development
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Info().Msg("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck(d.Sessions))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Sessions))
		v1.GET("/config", handlers.GetConfig(d.Machine, d.Field))

		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(d.Players, cfg))
			auth.POST("/login", handlers.Login(d.Players, cfg))
		}

		authed := v1.Group("", middleware.RequireAuth(cfg.JWTSecret))

		sessions := authed.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(d.Sessions))
			sessions.GET("/:token", handlers.GetSession(d.Sessions))
			sessions.DELETE("/:token", handlers.DestroySession(d.Sessions))
			sessions.POST("/:token/launch", handlers.Launch(d.Sessions))
			sessions.POST("/:token/reset", handlers.ResetSession(d.Sessions))
			sessions.GET("/:token/stats", handlers.GetStats(d.Sessions, d.History))
			sessions.GET("/:token/credits", handlers.GetCredits(d.Sessions))
			sessions.PUT("/:token/credits", handlers.SetCredits(d.Sessions))
			sessions.POST("/:token/credits/add", handlers.AddCredits(d.Sessions))
			sessions.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), d.Hub.HandleWebSocket)
		}

		authed.POST("/bonus/daily", handlers.ClaimDailyBonus(d.Sessions, d.Credits, d.Bonus, d.Ledger, handlers.DailyBonus{
			Min:        cfg.DailyBonusMin,
			Max:        cfg.DailyBonusMax,
			MaxCredits: d.Machine.MaxCredits,
		}))
	}
}
