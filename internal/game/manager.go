package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CreditStore persists a player's balance between sessions. LoadCredits
// returns the initial stake for a player without a stored balance.
type CreditStore interface {
	LoadCredits(ctx context.Context, playerID int) (int, error)
	SaveCredits(ctx context.Context, playerID, credits int) error
}

// HighScoreStore persists a player's best balance.
type HighScoreStore interface {
	LoadHighScore(ctx context.Context, playerID int) (int, error)
	SaveHighScore(ctx context.Context, playerID, score int) error
}

// HistoryStore keeps a record of finished sessions.
type HistoryStore interface {
	RecordSession(ctx context.Context, summary Summary) error
}

// Stores groups the persistence dependencies. Nil members are skipped.
type Stores struct {
	Credits    CreditStore
	HighScores HighScoreStore
	History    HistoryStore
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Machine     Config
	TickHz      int
	BroadcastHz int
	// SaveTimeout bounds each asynchronous save.
	SaveTimeout time.Duration
	// NewRand returns the random source for a new session. Defaults to a
	// time-seeded *math/rand.Rand.
	NewRand func() RandSource
}

type entry struct {
	session *Session
	runner  *Runner
}

// pendingSave is a queued write of a player's balance. Saves for one player
// run in queue order; done is closed once this one and every earlier one
// have finished.
type pendingSave struct {
	prev    *pendingSave
	done    chan struct{}
	credits int
	// failed is set when credits could not be written to the store.
	failed bool
}

// Manager owns every live session, keyed by session token.
type Manager struct {
	base     context.Context
	opts     ManagerOptions
	stores   Stores
	idle     IdleTracker
	sessions map[string]*entry
	byPlayer map[int]string
	pending  map[int]*pendingSave
	mu       sync.RWMutex
	saves    sync.WaitGroup

	// OnFrame and OnSettle are copied onto each new runner.
	OnFrame  func(Frame)
	OnSettle func(token string, results []Result)
	// OnClose is called after a session is destroyed.
	OnClose func(Summary)
}

// NewManager validates the machine configuration and returns an empty
// registry. Runners started by the manager stop when ctx is cancelled.
func NewManager(ctx context.Context, opts ManagerOptions, stores Stores, idle IdleTracker) (*Manager, error) {
	if err := opts.Machine.Validate(); err != nil {
		return nil, err
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 5 * time.Second
	}
	if opts.NewRand == nil {
		opts.NewRand = func() RandSource {
			return mrand.New(mrand.NewSource(time.Now().UnixNano()))
		}
	}
	if idle == nil {
		idle = NewMemoryIdleTracker()
	}
	return &Manager{
		base:     ctx,
		opts:     opts,
		stores:   stores,
		idle:     idle,
		sessions: make(map[string]*entry),
		byPlayer: make(map[int]string),
		pending:  make(map[int]*pendingSave),
	}, nil
}

// generateToken generates a secure random token
func generateToken(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Create opens a session for playerID, or returns the one already open.
// Stored credits and high score are loaded here and nowhere else, after any
// save still queued for the player has finished.
func (m *Manager) Create(ctx context.Context, playerID int) (*Session, error) {
	m.mu.RLock()
	if token, ok := m.byPlayer[playerID]; ok {
		e := m.sessions[token]
		m.mu.RUnlock()
		return e.session, nil
	}
	p := m.pending[playerID]
	m.mu.RUnlock()

	if p != nil {
		select {
		case <-p.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	credits := m.opts.Machine.InitialCredits
	if m.stores.Credits != nil {
		c, err := m.stores.Credits.LoadCredits(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("load credits: %w", err)
		}
		credits = c
	}
	if p != nil && p.failed {
		// the store is behind; carry the last known balance forward
		credits = p.credits
	}
	highScore := 0
	if m.stores.HighScores != nil {
		h, err := m.stores.HighScores.LoadHighScore(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("load high score: %w", err)
		}
		highScore = h
	}

	s, err := NewSession("pch_"+generateToken(12), playerID, m.opts.Machine, m.opts.NewRand(), credits, highScore)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if token, ok := m.byPlayer[playerID]; ok {
		// lost a race with a concurrent Create
		e := m.sessions[token]
		m.mu.Unlock()
		return e.session, nil
	}
	r := NewRunner(s, m.opts.TickHz, m.opts.BroadcastHz)
	r.OnFrame = m.OnFrame
	if m.OnSettle != nil {
		onSettle, token := m.OnSettle, s.Token
		r.OnSettle = func(res []Result) { onSettle(token, res) }
	}
	m.sessions[s.Token] = &entry{session: s, runner: r}
	m.byPlayer[playerID] = s.Token
	m.mu.Unlock()

	r.Start(m.base)
	m.Touch(s.Token)
	log.Info().Str("session", s.Token).Int("player", playerID).Int("credits", credits).Msg("[SESSION] created")
	return s, nil
}

// Get returns the live session for token.
func (m *Manager) Get(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.session, nil
}

// GetByPlayer returns the live session of a player.
func (m *Manager) GetByPlayer(playerID int) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.byPlayer[playerID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m.sessions[token].session, nil
}

// AwaitSaves blocks until every save queued for playerID has finished.
func (m *Manager) AwaitSaves(ctx context.Context, playerID int) error {
	m.mu.RLock()
	p := m.pending[playerID]
	m.mu.RUnlock()
	if p == nil {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Touch records activity on token for the idle reaper.
func (m *Manager) Touch(token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(m.base), time.Second)
	defer cancel()
	if err := m.idle.Touch(ctx, token, time.Now()); err != nil {
		log.Warn().Err(err).Str("session", token).Msg("[IDLE] touch failed")
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Tokens returns the tokens of every live session.
func (m *Manager) Tokens() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for t := range m.sessions {
		out = append(out, t)
	}
	return out
}

// Reset resets the session and saves the restored balance.
func (m *Manager) Reset(token string) (EconomyState, error) {
	s, err := m.Get(token)
	if err != nil {
		return EconomyState{}, err
	}
	st, err := s.Reset()
	if err != nil {
		return EconomyState{}, err
	}
	m.Touch(token)
	m.saveAsync(m.queueSave(s.PlayerID), Summary{Token: s.Token, PlayerID: s.PlayerID, Economy: st}, false)
	return st, nil
}

// Destroy stops the session's runner, closes the session and saves its final
// state in the background. The save is queued before the player's slot is
// released, so a following Create sees the final balance.
func (m *Manager) Destroy(token string) (Summary, error) {
	m.mu.Lock()
	e, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return Summary{}, ErrSessionNotFound
	}
	delete(m.sessions, token)
	if m.byPlayer[e.session.PlayerID] == token {
		delete(m.byPlayer, e.session.PlayerID)
	}
	p := m.queueSaveLocked(e.session.PlayerID)
	m.mu.Unlock()

	e.runner.Stop()
	summary, err := e.session.Destroy()
	if err != nil {
		m.releaseSave(e.session.PlayerID, p)
		return Summary{}, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(m.base), time.Second)
	if err := m.idle.Forget(ctx, token); err != nil {
		log.Warn().Err(err).Str("session", token).Msg("[IDLE] forget failed")
	}
	cancel()

	m.saveAsync(p, summary, true)
	log.Info().
		Str("session", token).
		Int("player", summary.PlayerID).
		Int("credits", summary.Economy.Credits).
		Int("orphaned", summary.Economy.OrphanedBalls).
		Msg("[SESSION] destroyed")
	if m.OnClose != nil {
		m.OnClose(summary)
	}
	return summary, nil
}

// queueSaveLocked appends a save slot to playerID's queue. m.mu must be held.
func (m *Manager) queueSaveLocked(playerID int) *pendingSave {
	p := &pendingSave{prev: m.pending[playerID], done: make(chan struct{})}
	m.pending[playerID] = p
	return p
}

func (m *Manager) queueSave(playerID int) *pendingSave {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queueSaveLocked(playerID)
}

// releaseSave marks p finished and drops it from the queue if it is the last
// entry.
func (m *Manager) releaseSave(playerID int, p *pendingSave) {
	if p.prev != nil {
		<-p.prev.done
	}
	m.mu.Lock()
	if m.pending[playerID] == p {
		delete(m.pending, playerID)
	}
	p.prev = nil
	m.mu.Unlock()
	close(p.done)
}

// saveAsync persists a session outcome in slot p without blocking the
// caller.
func (m *Manager) saveAsync(p *pendingSave, summary Summary, final bool) {
	p.credits = summary.Economy.Credits
	m.saves.Add(1)
	go func() {
		defer m.saves.Done()
		defer m.releaseSave(summary.PlayerID, p)
		if p.prev != nil {
			<-p.prev.done
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(m.base), m.opts.SaveTimeout)
		defer cancel()

		if m.stores.Credits != nil {
			if err := m.stores.Credits.SaveCredits(ctx, summary.PlayerID, summary.Economy.Credits); err != nil {
				p.failed = true
				log.Error().Err(err).Int("player", summary.PlayerID).Msg("[SESSION] save credits failed")
			}
		}
		if m.stores.HighScores != nil {
			if err := m.stores.HighScores.SaveHighScore(ctx, summary.PlayerID, summary.Economy.HighestBalance); err != nil {
				log.Error().Err(err).Int("player", summary.PlayerID).Msg("[SESSION] save high score failed")
			}
		}
		if final && m.stores.History != nil {
			if err := m.stores.History.RecordSession(ctx, summary); err != nil {
				log.Error().Err(err).Str("session", summary.Token).Msg("[SESSION] record history failed")
			}
		}
	}()
}

// Wait blocks until every pending save has finished.
func (m *Manager) Wait() {
	m.saves.Wait()
}

// Shutdown destroys every session and waits for their saves.
func (m *Manager) Shutdown() {
	for _, token := range m.Tokens() {
		if _, err := m.Destroy(token); err != nil {
			log.Warn().Err(err).Str("session", token).Msg("[SESSION] shutdown destroy failed")
		}
	}
	m.Wait()
}
