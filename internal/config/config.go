package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Machine
	MachineProfile string
	TickHz         int
	BroadcastHz    int

	// Sessions
	SessionIdleTimeout     time.Duration
	IdleWorkerPollInterval time.Duration

	// Daily bonus
	DailyBonusMin int
	DailyBonusMax int

	// Security
	JWTSecret string
	JWTTTL    time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/pachinko?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Machine
		MachineProfile: getEnv("MACHINE_PROFILE", ""),
		TickHz:         getEnvInt("TICK_HZ", 60),
		BroadcastHz:    getEnvInt("BROADCAST_HZ", 30),

		// Sessions
		SessionIdleTimeout:     time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 15)) * time.Minute,
		IdleWorkerPollInterval: time.Duration(getEnvInt("IDLE_WORKER_POLL_SECONDS", 30)) * time.Second,

		// Daily bonus
		DailyBonusMin: getEnvInt("DAILY_BONUS_MIN", 50),
		DailyBonusMax: getEnvInt("DAILY_BONUS_MAX", 200),

		// Security
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
		JWTTTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
