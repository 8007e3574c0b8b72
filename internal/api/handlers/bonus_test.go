package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBonus = DailyBonus{Min: 50, Max: 200, MaxCredits: game.MaxCredits}

func bonusRouter(sessions SessionManager, credits game.CreditStore, guard BonusGuard, ledger BonusLedger, player int) *gin.Engine {
	r := gin.New()
	r.POST("/bonus/daily", asPlayer(player), ClaimDailyBonus(sessions, credits, guard, ledger, testBonus))
	return r
}

func TestDailyBonusToStoredBalance(t *testing.T) {
	m := newTestManager(t)
	credits := newMemCredits()
	guard := newFakeGuard()
	ledger := &fakeLedger{}
	r := bonusRouter(m, credits, guard, ledger, 7)

	w := do(r, http.MethodPost, "/bonus/daily", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	amount := intField(t, body["amount"])
	assert.GreaterOrEqual(t, amount, testBonus.Min)
	assert.LessOrEqual(t, amount, testBonus.Max)
	assert.Equal(t, game.InitialCredits+amount, intField(t, body["credits"]))
	assert.Equal(t, game.InitialCredits+amount, credits.get(7))
	assert.Equal(t, []int{amount}, ledger.amounts)

	// once per day
	w = do(r, http.MethodPost, "/bonus/daily", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, ledger.amounts, 1)
}

func TestDailyBonusToLiveSession(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Create(context.Background(), 7)
	require.NoError(t, err)
	credits := newMemCredits()
	r := bonusRouter(m, credits, newFakeGuard(), nil, 7)

	w := do(r, http.MethodPost, "/bonus/daily", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	amount := intField(t, decode(t, w)["amount"])

	assert.Equal(t, game.InitialCredits+amount, s.Economy().Credits)
	assert.Equal(t, 0, credits.get(7), "stored balance untouched while a session is live")
}

func TestDailyBonusAfterSessionClosed(t *testing.T) {
	credits := newMemCredits()
	credits.delay = 50 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m, err := game.NewManager(ctx, game.ManagerOptions{Machine: game.DefaultConfig()}, game.Stores{Credits: credits}, nil)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)

	s, err := m.Create(ctx, 7)
	require.NoError(t, err)
	_, err = s.Launch(50)
	require.NoError(t, err)
	sum, err := m.Destroy(s.Token)
	require.NoError(t, err)

	r := bonusRouter(m, credits, newFakeGuard(), nil, 7)
	w := do(r, http.MethodPost, "/bonus/daily", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	amount := intField(t, decode(t, w)["amount"])

	m.Wait()
	assert.Equal(t, sum.Economy.Credits+amount, credits.get(7))
}

func TestDailyBonusCapsBalance(t *testing.T) {
	m := newTestManager(t)
	credits := newMemCredits()
	credits.m[7] = game.MaxCredits - 1
	r := bonusRouter(m, credits, newFakeGuard(), nil, 7)

	w := do(r, http.MethodPost, "/bonus/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, game.MaxCredits, credits.get(7))
}

func TestDailyBonusReleasesClaimOnFailure(t *testing.T) {
	m := newTestManager(t)
	credits := newMemCredits()
	credits.saveErr = errStoreDown
	guard := newFakeGuard()
	r := bonusRouter(m, credits, guard, nil, 7)

	w := do(r, http.MethodPost, "/bonus/daily", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, guard.released)
	assert.False(t, guard.claimed[7])
}

func TestDailyBonusGuardError(t *testing.T) {
	m := newTestManager(t)
	guard := newFakeGuard()
	guard.err = errStoreDown
	r := bonusRouter(m, newMemCredits(), guard, nil, 7)

	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/bonus/daily", nil).Code)
}

func TestDailyBonusDraw(t *testing.T) {
	for i := 0; i < 200; i++ {
		n := testBonus.draw()
		assert.GreaterOrEqual(t, n, testBonus.Min)
		assert.LessOrEqual(t, n, testBonus.Max)
	}
	assert.Equal(t, 75, DailyBonus{Min: 75, Max: 75}.draw())
}
