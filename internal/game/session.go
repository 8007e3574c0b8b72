package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Session is one player's machine: a world, a scorer and a credit ledger
// advanced under a single lock.
type Session struct {
	Token     string
	PlayerID  int
	CreatedAt time.Time

	mu       sync.Mutex
	cfg      Config
	world    *World
	scorer   *Scorer
	econ     *Economy
	status   SessionStatus
	cooldown int
	results  []Result
	history  []LogEntry
	closedAt time.Time
}

// NewSession validates cfg and opens a session holding credits. highScore is
// the player's persisted best balance.
func NewSession(token string, playerID int, cfg Config, rng RandSource, credits, highScore int) (*Session, error) {
	field, err := NewField(cfg)
	if err != nil {
		return nil, err
	}
	if credits > cfg.MaxCredits {
		credits = cfg.MaxCredits
	}
	return &Session{
		Token:     token,
		PlayerID:  playerID,
		CreatedAt: time.Now(),
		cfg:       cfg,
		world:     NewWorld(cfg, field, rng),
		scorer:    NewScorer(cfg, field, rng),
		econ:      NewEconomy(cfg, credits, highScore),
		status:    StatusActive,
	}, nil
}

// Launch debits the launch cost and puts a ball into play. Power is clamped to
// the machine range.
func (s *Session) Launch(power float64) (BallID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return 0, ErrSessionClosed
	}
	if s.cooldown > 0 {
		return 0, ErrLaunchCooldown
	}
	id := s.world.NextID()
	if err := s.econ.Launch(id); err != nil {
		return 0, err
	}
	s.world.Spawn(s.cfg.ClampPower(power))
	s.cooldown = s.cfg.LaunchCooldownTicks
	return id, nil
}

// Tick advances the world by dt frames and settles every ball that left play.
// A closed session does nothing.
func (s *Session) Tick(dt float64) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return nil
	}
	if s.cooldown > 0 {
		s.cooldown--
	}

	settled := s.world.Advance(dt)
	s.results = s.results[:0]
	for _, st := range settled {
		award, err := s.econ.SettleBall(st, s.scorer)
		if err != nil {
			log.Error().Err(err).Str("session", s.Token).Str("ball", st.BallID.String()).Msg("[SESSION] settle failed")
			continue
		}
		s.results = append(s.results, Result{Settlement: st, Award: award})
		s.appendHistory(st, award)
		if award.Won {
			log.Info().Str("session", s.Token).Int("jackpot", award.Jackpot).Msg("[SESSION] jackpot won")
		}
	}

	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Session) appendHistory(st Settlement, a Award) {
	s.history = append(s.history, LogEntry{
		BallID:  st.BallID,
		Reason:  st.Reason,
		Pocket:  a.Pocket,
		Payout:  a.Total,
		Jackpot: a.Jackpot,
		Tick:    s.world.Tick(),
		At:      time.Now(),
	})
	if over := len(s.history) - historyLimit; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
}

// Reset clears the board and restores the initial stake. Balls in flight are
// dropped unpaid.
func (s *Session) Reset() (EconomyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return EconomyState{}, ErrSessionClosed
	}
	s.world.Clear()
	s.econ.Reset()
	s.cooldown = 0
	s.results = s.results[:0]
	s.history = nil
	return s.econ.State(), nil
}

// AddCredits tops up the balance.
func (s *Session) AddCredits(amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return 0, ErrSessionClosed
	}
	return s.econ.AddCredits(amount)
}

// SetCredits overwrites the balance.
func (s *Session) SetCredits(credits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return ErrSessionClosed
	}
	return s.econ.SetCredits(credits)
}

// Snapshot returns the current frame. It includes the collisions and results
// of the last tick.
func (s *Session) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]Result, len(s.results))
	copy(results, s.results)
	return Frame{
		Token:         s.Token,
		Tick:          s.world.Tick(),
		Status:        s.status,
		Balls:         s.world.Balls(),
		Events:        s.world.Events(),
		Results:       results,
		Economy:       s.econ.State(),
		CooldownTicks: s.cooldown,
	}
}

// Stats returns the ledger and the most recent play log entries, newest first.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(len(s.history), recentLimit)
	recent := make([]LogEntry, 0, n)
	for i := len(s.history) - 1; i >= len(s.history)-n; i-- {
		recent = append(recent, s.history[i])
	}
	return Stats{
		Token:     s.Token,
		Status:    s.status,
		Tick:      s.world.Tick(),
		Economy:   s.econ.State(),
		Recent:    recent,
		CreatedAt: s.CreatedAt,
	}
}

// Economy returns a copy of the ledger.
func (s *Session) Economy() EconomyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.econ.State()
}

// Status returns the session lifecycle state.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Config returns the machine configuration the session runs with.
func (s *Session) Config() Config {
	return s.cfg
}

// Field returns the static layout.
func (s *Session) Field() *Field {
	return s.world.Field()
}

// Destroy closes the session. Balls still in flight are dropped without
// settlement and no further ticks have any effect. The second call returns
// ErrSessionClosed.
func (s *Session) Destroy() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return Summary{}, ErrSessionClosed
	}
	s.status = StatusClosed
	s.closedAt = time.Now()
	for _, id := range s.world.Clear() {
		_ = s.econ.Drop(id, "destroy")
	}
	s.results = s.results[:0]

	return Summary{
		Token:     s.Token,
		PlayerID:  s.PlayerID,
		Economy:   s.econ.State(),
		Ticks:     s.world.Tick(),
		CreatedAt: s.CreatedAt,
		ClosedAt:  s.closedAt,
	}, nil
}
