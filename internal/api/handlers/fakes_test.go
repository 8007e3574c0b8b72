package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/accounts"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/playmatatu/pachinko/internal/models"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePlayers struct {
	mu      sync.Mutex
	byPhone map[string]*models.Player
	nextID  int
	touched []int
}

func newFakePlayers() *fakePlayers {
	return &fakePlayers{byPhone: make(map[string]*models.Player)}
}

func (f *fakePlayers) GetPlayerByPhone(_ context.Context, phone string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byPhone[phone]
	if !ok {
		return nil, accounts.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlayers) CreatePlayer(_ context.Context, phone, name, pinHash string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := &models.Player{
		ID:          f.nextID,
		PhoneNumber: phone,
		DisplayName: name,
		PINHash:     sql.NullString{String: pinHash, Valid: true},
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	f.byPhone[phone] = p
	cp := *p
	return &cp, nil
}

func (f *fakePlayers) TouchPlayer(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

type fakeHistory struct {
	recent []models.PlaySession
	totals models.PlayerStats
}

func (f *fakeHistory) RecentSessions(_ context.Context, _, limit int) ([]models.PlaySession, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeHistory) PlayerStats(context.Context, int) (models.PlayerStats, error) {
	return f.totals, nil
}

type fakeGuard struct {
	mu       sync.Mutex
	claimed  map[int]bool
	err      error
	released int
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{claimed: make(map[int]bool)}
}

func (g *fakeGuard) Claim(_ context.Context, playerID int, _ time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.claimed[playerID] {
		return false, nil
	}
	g.claimed[playerID] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, playerID int, _ time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, playerID)
	g.released++
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	amounts []int
}

func (l *fakeLedger) RecordDailyBonus(_ context.Context, _ int, _ time.Time, amount int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.amounts = append(l.amounts, amount)
	return true, nil
}

var errStoreDown = errors.New("store down")

type memCredits struct {
	mu      sync.Mutex
	m       map[int]int
	initial int
	saveErr error
	delay   time.Duration
}

func newMemCredits() *memCredits {
	return &memCredits{m: make(map[int]int), initial: game.InitialCredits}
}

func (s *memCredits) LoadCredits(_ context.Context, id int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.m[id]; ok {
		return c, nil
	}
	return s.initial, nil
}

func (s *memCredits) SaveCredits(_ context.Context, id, credits int) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.m[id] = credits
	return nil
}

func (s *memCredits) get(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[id]
}

func newTestManager(t *testing.T) *game.Manager {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m, err := game.NewManager(ctx, game.ManagerOptions{Machine: game.DefaultConfig()}, game.Stores{}, nil)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m
}

func asPlayer(id int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PlayerIDKey, id)
	}
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func intField(t *testing.T, raw json.RawMessage) int {
	t.Helper()
	var n int
	require.NoError(t, json.Unmarshal(raw, &n))
	return n
}
