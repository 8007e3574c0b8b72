package main

import (
	"context"
	"errors"
	"os"
	"strconv"

	"github.com/playmatatu/pachinko/internal/accounts"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/database"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/logging"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Initialize configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Environment)
	ctx := context.Background()

	// Initialize database
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	phone := os.Getenv("SEED_PHONE")
	if phone == "" {
		phone = "256700000000" // Default phone
		log.Info().Str("phone", phone).Msg("Using default demo phone")
	}
	pin := os.Getenv("SEED_PIN")
	if pin == "" {
		pin = "0000"
		log.Warn().Msg("Using default demo PIN. Set SEED_PIN for shared environments!")
	}
	credits := game.InitialCredits
	if v := os.Getenv("SEED_CREDITS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > game.MaxCredits {
			log.Fatal().Str("value", v).Msg("SEED_CREDITS must be a whole number in range")
		}
		credits = n
	}

	store := accounts.NewStore(db, game.InitialCredits)

	player, err := store.GetPlayerByPhone(ctx, phone)
	if errors.Is(err, accounts.ErrPlayerNotFound) {
		hash, herr := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if herr != nil {
			log.Fatal().Err(herr).Msg("Failed to hash PIN")
		}
		player, err = store.CreatePlayer(ctx, phone, "Demo", string(hash))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo player")
	}

	if err := store.SaveCredits(ctx, player.ID, credits); err != nil {
		log.Fatal().Err(err).Msg("Failed to set demo credits")
	}

	log.Info().
		Int("player", player.ID).
		Str("phone", phone).
		Int("credits", credits).
		Msg("Demo player ready; log in at /api/v1/auth/login")
}
