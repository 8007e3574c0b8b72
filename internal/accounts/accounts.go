package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	tablePlayers      = "players"
	tableCredits      = "credit_accounts"
	tablePlaySessions = "play_sessions"
	tableBonusClaims  = "daily_bonus_claims"

	colID        = "id"
	colPlayerID  = "player_id"
	colPhone     = "phone_number"
	colName      = "display_name"
	colPINHash   = "pin_hash"
	colCredits   = "credits"
	colHighScore = "high_score"
	colClosedAt  = "closed_at"

	// HistoryLimit is how many finished sessions are kept per player.
	HistoryLimit = 100
)

var ErrPlayerNotFound = errors.New("player not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store is the Postgres persistence for players, balances and play history.
// It implements game.CreditStore, game.HighScoreStore and game.HistoryStore.
type Store struct {
	db             *sqlx.DB
	initialCredits int
}

func NewStore(db *sqlx.DB, initialCredits int) *Store {
	return &Store{db: db, initialCredits: initialCredits}
}

var (
	_ game.CreditStore    = (*Store)(nil)
	_ game.HighScoreStore = (*Store)(nil)
	_ game.HistoryStore   = (*Store)(nil)
)

func openAccountQuery(playerID, credits int) sq.InsertBuilder {
	return psql.Insert(tableCredits).
		Columns(colPlayerID, colCredits).
		Values(playerID, credits).
		Suffix("ON CONFLICT (player_id) DO NOTHING")
}

func saveCreditsQuery(playerID, credits int) sq.InsertBuilder {
	return psql.Insert(tableCredits).
		Columns(colPlayerID, colCredits).
		Values(playerID, credits).
		Suffix("ON CONFLICT (player_id) DO UPDATE SET credits = EXCLUDED.credits, updated_at = NOW()")
}

func saveHighScoreQuery(playerID, score int) sq.InsertBuilder {
	return psql.Insert(tableCredits).
		Columns(colPlayerID, colHighScore).
		Values(playerID, score).
		Suffix("ON CONFLICT (player_id) DO UPDATE SET high_score = GREATEST(credit_accounts.high_score, EXCLUDED.high_score), updated_at = NOW()")
}

func trimHistoryQuery(playerID, keep int) sq.DeleteBuilder {
	return psql.Delete(tablePlaySessions).
		Where(sq.Eq{colPlayerID: playerID}).
		Where("id NOT IN (SELECT id FROM play_sessions WHERE player_id = ? ORDER BY closed_at DESC, id DESC LIMIT ?)", playerID, keep)
}

// LoadCredits returns the stored balance, opening an account with the initial
// stake on first use.
func (s *Store) LoadCredits(ctx context.Context, playerID int) (int, error) {
	q, args, err := openAccountQuery(playerID, s.initialCredits).ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return 0, fmt.Errorf("open credit account: %w", err)
	}

	q, args, err = psql.Select(colCredits).From(tableCredits).Where(sq.Eq{colPlayerID: playerID}).ToSql()
	if err != nil {
		return 0, err
	}
	var credits int
	if err := s.db.GetContext(ctx, &credits, q, args...); err != nil {
		return 0, fmt.Errorf("load credits: %w", err)
	}
	return credits, nil
}

func (s *Store) SaveCredits(ctx context.Context, playerID, credits int) error {
	q, args, err := saveCreditsQuery(playerID, credits).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save credits: %w", err)
	}
	return nil
}

func (s *Store) LoadHighScore(ctx context.Context, playerID int) (int, error) {
	q, args, err := psql.Select(colHighScore).From(tableCredits).Where(sq.Eq{colPlayerID: playerID}).ToSql()
	if err != nil {
		return 0, err
	}
	var score int
	err = s.db.GetContext(ctx, &score, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load high score: %w", err)
	}
	return score, nil
}

// SaveHighScore never lowers a stored high score.
func (s *Store) SaveHighScore(ctx context.Context, playerID, score int) error {
	q, args, err := saveHighScoreQuery(playerID, score).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save high score: %w", err)
	}
	return nil
}

// RecordSession stores a finished session and keeps only the newest
// HistoryLimit records for the player.
func (s *Store) RecordSession(ctx context.Context, sum game.Summary) error {
	hits := make(pq.Int64Array, len(sum.Economy.PocketHits))
	for i, h := range sum.Economy.PocketHits {
		hits[i] = int64(h)
	}
	e := sum.Economy

	insert := psql.Insert(tablePlaySessions).
		Columns("session_token", colPlayerID, "final_credits", "total_launches", "total_payout", "score",
			"highest_balance", "jackpots_won", "biggest_win", "orphaned_balls", "pocket_hits", "ticks",
			"started_at", colClosedAt).
		Values(sum.Token, sum.PlayerID, e.Credits, e.TotalLaunches, e.TotalPayout, e.Score,
			e.HighestBalance, e.JackpotsWon, e.BiggestWin, e.OrphanedBalls, hits, int64(sum.Ticks),
			sum.CreatedAt, sum.ClosedAt).
		Suffix("ON CONFLICT (session_token) DO NOTHING")

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q, args, err := insert.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert play session: %w", err)
	}

	q, args, err = trimHistoryQuery(sum.PlayerID, HistoryLimit).ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("trim play history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n > 0 {
		log.Debug().Int("player", sum.PlayerID).Int64("trimmed", n).Msg("[ACCT] play history trimmed")
	}
	log.Info().Str("session", sum.Token).Int("player", sum.PlayerID).Int("score", e.Score).Msg("[ACCT] play session recorded")
	return nil
}

// RecentSessions returns the newest finished sessions of a player.
func (s *Store) RecentSessions(ctx context.Context, playerID, limit int) ([]models.PlaySession, error) {
	q, args, err := psql.Select("*").
		From(tablePlaySessions).
		Where(sq.Eq{colPlayerID: playerID}).
		OrderBy("closed_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	out := []models.PlaySession{}
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	return out, nil
}

// PlayerStats aggregates the stored sessions of a player.
func (s *Store) PlayerStats(ctx context.Context, playerID int) (models.PlayerStats, error) {
	q, args, err := psql.Select(
		"COUNT(*) AS total_games",
		"COALESCE(SUM(score), 0) AS total_score",
		"COALESCE(MAX(highest_balance), 0) AS highest_score",
		"COALESCE(SUM(jackpots_won), 0) AS jackpots_won",
	).From(tablePlaySessions).Where(sq.Eq{colPlayerID: playerID}).ToSql()
	if err != nil {
		return models.PlayerStats{}, err
	}
	var st models.PlayerStats
	if err := s.db.GetContext(ctx, &st, q, args...); err != nil {
		return models.PlayerStats{}, fmt.Errorf("player stats: %w", err)
	}
	return st, nil
}

// GetPlayerByPhone returns ErrPlayerNotFound for an unknown phone number.
func (s *Store) GetPlayerByPhone(ctx context.Context, phone string) (*models.Player, error) {
	q, args, err := psql.Select("*").From(tablePlayers).Where(sq.Eq{colPhone: phone}).ToSql()
	if err != nil {
		return nil, err
	}
	var p models.Player
	err = s.db.GetContext(ctx, &p, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlayer inserts a player with a bcrypt PIN hash.
func (s *Store) CreatePlayer(ctx context.Context, phone, displayName, pinHash string) (*models.Player, error) {
	q, args, err := psql.Insert(tablePlayers).
		Columns(colPhone, colName, colPINHash).
		Values(phone, displayName, pinHash).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return nil, err
	}
	var p models.Player
	if err := s.db.GetContext(ctx, &p, q, args...); err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	log.Info().Int("player", p.ID).Msg("[ACCT] player created")
	return &p, nil
}

// TouchPlayer records a login.
func (s *Store) TouchPlayer(ctx context.Context, playerID int) error {
	q, args, err := psql.Update(tablePlayers).
		Set("last_active", sq.Expr("NOW()")).
		Where(sq.Eq{colID: playerID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

// RecordDailyBonus stores a bonus claim. It reports false when the player
// already claimed on day.
func (s *Store) RecordDailyBonus(ctx context.Context, playerID int, day time.Time, amount int) (bool, error) {
	q, args, err := psql.Insert(tableBonusClaims).
		Columns(colPlayerID, "claim_date", "amount").
		Values(playerID, day.Format(time.DateOnly), amount).
		Suffix("ON CONFLICT (player_id, claim_date) DO NOTHING").
		ToSql()
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("record daily bonus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
