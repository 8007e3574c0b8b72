package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Player represents a user in the system
type Player struct {
	ID          int            `db:"id" json:"id"`
	PhoneNumber string         `db:"phone_number" json:"phone_number"`
	DisplayName string         `db:"display_name" json:"display_name"`
	PINHash     sql.NullString `db:"pin_hash" json:"-"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	LastActive  sql.NullTime   `db:"last_active" json:"last_active,omitempty"`
}

// CreditAccount holds a player's balance between sessions
type CreditAccount struct {
	PlayerID  int       `db:"player_id" json:"player_id"`
	Credits   int       `db:"credits" json:"credits"`
	HighScore int       `db:"high_score" json:"high_score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PlaySession is the stored record of a finished session
type PlaySession struct {
	ID             int           `db:"id" json:"id"`
	SessionToken   string        `db:"session_token" json:"session_token"`
	PlayerID       int           `db:"player_id" json:"player_id"`
	FinalCredits   int           `db:"final_credits" json:"final_credits"`
	TotalLaunches  int           `db:"total_launches" json:"total_launches"`
	TotalPayout    int           `db:"total_payout" json:"total_payout"`
	Score          int           `db:"score" json:"score"`
	HighestBalance int           `db:"highest_balance" json:"highest_balance"`
	JackpotsWon    int           `db:"jackpots_won" json:"jackpots_won"`
	BiggestWin     int           `db:"biggest_win" json:"biggest_win"`
	OrphanedBalls  int           `db:"orphaned_balls" json:"orphaned_balls"`
	PocketHits     pq.Int64Array `db:"pocket_hits" json:"pocket_hits"`
	Ticks          int64         `db:"ticks" json:"ticks"`
	StartedAt      time.Time     `db:"started_at" json:"started_at"`
	ClosedAt       time.Time     `db:"closed_at" json:"closed_at"`
}

// PlayerStats aggregates a player's stored sessions
type PlayerStats struct {
	TotalGames   int `db:"total_games" json:"total_games"`
	TotalScore   int `db:"total_score" json:"total_score"`
	HighestScore int `db:"highest_score" json:"highest_score"`
	JackpotsWon  int `db:"jackpots_won" json:"jackpots_won"`
}

// DailyBonusClaim records a granted daily bonus
type DailyBonusClaim struct {
	PlayerID  int       `db:"player_id" json:"player_id"`
	ClaimDate time.Time `db:"claim_date" json:"claim_date"`
	Amount    int       `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
