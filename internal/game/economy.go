package game

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// EconomyState is a point-in-time copy of the session ledger.
type EconomyState struct {
	Credits        int   `json:"credits"`
	JackpotPool    int   `json:"jackpot_pool"`
	BallsInPlay    int   `json:"balls_in_play"`
	TotalLaunches  int   `json:"total_launches"`
	TotalPayout    int   `json:"total_payout"`
	HighestBalance int   `json:"highest_balance"`
	Score          int   `json:"score"`
	JackpotsWon    int   `json:"jackpots_won"`
	BiggestWin     int   `json:"biggest_win"`
	OrphanedBalls  int   `json:"orphaned_balls"`
	PocketHits     []int `json:"pocket_hits"`
}

// Economy is the credit ledger of one session. Every method takes the same
// lock, so a launch and a settlement never interleave.
type Economy struct {
	mu          sync.Mutex
	launchCost  int
	initial     int
	maxCredits  int
	state       EconomyState
	outstanding map[BallID]struct{}
	metrics     *instruments
}

// NewEconomy opens a ledger with the given balance. highScore carries a
// persisted best balance from an earlier session.
func NewEconomy(cfg Config, credits, highScore int) *Economy {
	if credits < 0 {
		credits = 0
	}
	e := &Economy{
		launchCost:  cfg.LaunchCost,
		initial:     cfg.InitialCredits,
		maxCredits:  cfg.MaxCredits,
		outstanding: make(map[BallID]struct{}),
		metrics:     newInstruments(),
	}
	e.state = EconomyState{
		Credits:        credits,
		JackpotPool:    cfg.InitialJackpot,
		HighestBalance: max(highScore, credits),
		PocketHits:     make([]int, cfg.PocketCount),
	}
	return e
}

// Launch debits the launch cost and records id as in play. On
// ErrInsufficientCredits nothing changes.
func (e *Economy) Launch(id BallID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Credits < e.launchCost {
		return ErrInsufficientCredits
	}
	if _, dup := e.outstanding[id]; dup {
		return ErrUnknownBall
	}
	e.state.Credits -= e.launchCost
	e.state.BallsInPlay++
	e.state.TotalLaunches++
	e.outstanding[id] = struct{}{}
	e.metrics.recordLaunch()
	return nil
}

// Settle credits payout for an outstanding ball. A ball can be settled once;
// later calls return ErrUnknownBall.
func (e *Economy) Settle(id BallID, payout int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settleLocked(id, Award{Pocket: -1, Base: payout, Total: payout}, ReasonLanded)
}

// SettleBall scores st against the jackpot pool and settles it in one step.
func (e *Economy) SettleBall(st Settlement, scorer *Scorer) (Award, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.outstanding[st.BallID]; !ok {
		return Award{}, ErrUnknownBall
	}
	award, pool := scorer.Score(st, e.state.JackpotPool)
	e.state.JackpotPool = pool
	if err := e.settleLocked(st.BallID, award, st.Reason); err != nil {
		return Award{}, err
	}
	return award, nil
}

func (e *Economy) settleLocked(id BallID, a Award, reason SettleReason) error {
	if _, ok := e.outstanding[id]; !ok {
		return ErrUnknownBall
	}
	if a.Total < 0 {
		return ErrInvalidAmount
	}
	delete(e.outstanding, id)

	s := &e.state
	s.BallsInPlay--
	s.Credits += a.Total
	s.TotalPayout += a.Total
	s.Score += a.Total
	if a.Total > s.BiggestWin {
		s.BiggestWin = a.Total
	}
	if a.Pocket >= 0 && a.Pocket < len(s.PocketHits) {
		s.PocketHits[a.Pocket]++
	}
	if a.Won {
		s.JackpotsWon++
	}
	if s.Credits > s.HighestBalance {
		s.HighestBalance = s.Credits
	}
	e.metrics.recordSettle(reason, a)
	return nil
}

// Drop removes an outstanding ball without paying it. The drop is logged and
// counted in OrphanedBalls.
func (e *Economy) Drop(id BallID, cause string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.outstanding[id]; !ok {
		return ErrUnknownBall
	}
	delete(e.outstanding, id)
	e.state.BallsInPlay--
	e.state.OrphanedBalls++
	e.metrics.recordOrphans(1, cause)
	log.Warn().Str("ball", id.String()).Str("cause", cause).Msg("[ECONOMY] ball dropped without settlement")
	return nil
}

// Reset restores the initial stake and clears statistics. The high score, the
// jackpot pool and the orphan counter survive. Balls still in play are dropped
// and returned.
func (e *Economy) Reset() []BallID {
	e.mu.Lock()
	defer e.mu.Unlock()

	dropped := make([]BallID, 0, len(e.outstanding))
	for id := range e.outstanding {
		dropped = append(dropped, id)
	}
	e.outstanding = make(map[BallID]struct{})

	prev := e.state
	e.state = EconomyState{
		Credits:        e.initial,
		JackpotPool:    prev.JackpotPool,
		HighestBalance: max(prev.HighestBalance, e.initial),
		OrphanedBalls:  prev.OrphanedBalls + len(dropped),
		PocketHits:     make([]int, len(prev.PocketHits)),
	}
	if len(dropped) > 0 {
		e.metrics.recordOrphans(len(dropped), "reset")
		log.Warn().Int("balls", len(dropped)).Msg("[ECONOMY] reset dropped balls in flight")
	}
	return dropped
}

// AddCredits tops up the balance, capped at the configured maximum.
func (e *Economy) AddCredits(amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Credits = min(e.state.Credits+amount, e.maxCredits)
	if e.state.Credits > e.state.HighestBalance {
		e.state.HighestBalance = e.state.Credits
	}
	return e.state.Credits, nil
}

// SetCredits overwrites the balance with a value in [0, MaxCredits].
func (e *Economy) SetCredits(credits int) error {
	if credits < 0 || credits > e.maxCredits {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Credits = credits
	if credits > e.state.HighestBalance {
		e.state.HighestBalance = credits
	}
	return nil
}

// Outstanding reports whether id is in play.
func (e *Economy) Outstanding(id BallID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.outstanding[id]
	return ok
}

// State returns a copy of the ledger.
func (e *Economy) State() EconomyState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	s.PocketHits = append([]int(nil), e.state.PocketHits...)
	return s
}
