package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	return NewWorld(cfg, newTestField(t, cfg), seeded())
}

// runUntilEmpty advances w until no ball is live and returns every settlement.
func runUntilEmpty(t *testing.T, w *World, limit int) []Settlement {
	t.Helper()
	var all []Settlement
	for i := 0; i < limit && w.Live() > 0; i++ {
		all = append(all, w.Advance(1)...)
	}
	require.Zero(t, w.Live(), "balls still live after %d ticks", limit)
	return all
}

func TestNewBallSpawn(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBall(1, cfg, 50, fixedRand(0.5))

	assert.Equal(t, NewVec2(cfg.LaunchX, cfg.LaunchY), b.Position)
	assert.InDelta(t, 0.0, b.Velocity.X, 1e-12)
	assert.InDelta(t, 2.0, b.Velocity.Y, 1e-12)
	assert.Equal(t, BallLaunched, b.State)
}

func TestNewBallClampsPower(t *testing.T) {
	cfg := DefaultConfig()
	hi := NewBall(1, cfg, 1e6, fixedRand(0.5))
	nan := NewBall(2, cfg, math.NaN(), fixedRand(0.5))

	assert.InDelta(t, cfg.BaseSpeed+cfg.MaxPower*cfg.PowerFactor, hi.Velocity.Y, 1e-12)
	assert.InDelta(t, cfg.BaseSpeed+cfg.DefaultPower*cfg.PowerFactor, nan.Velocity.Y, 1e-12)
}

func TestBallLandsAndSettlesOnce(t *testing.T) {
	cfg := DefaultConfig()
	w := newTestWorld(t, cfg)
	id := w.Spawn(50)

	settled := runUntilEmpty(t, w, cfg.MaxBallTicks+1)

	require.Len(t, settled, 1)
	assert.Equal(t, id, settled[0].BallID)
	assert.NotEqual(t, ReasonLost, settled[0].Reason)
	assert.Empty(t, w.Advance(1))
}

func TestEveryBallSettles(t *testing.T) {
	cfg := DefaultConfig()
	w := newTestWorld(t, cfg)
	ids := map[BallID]bool{}
	for i := 0; i < 25; i++ {
		ids[w.Spawn(float64(10 + i*4))] = true
	}

	settled := runUntilEmpty(t, w, cfg.MaxBallTicks+1)

	require.Len(t, settled, len(ids))
	for _, s := range settled {
		assert.True(t, ids[s.BallID], "unexpected or repeated settlement for %s", s.BallID)
		delete(ids, s.BallID)
		if s.Reason == ReasonLanded {
			assert.GreaterOrEqual(t, s.X, 0.0)
			assert.LessOrEqual(t, s.X, cfg.FieldWidth)
		}
	}
}

func TestBallTimesOut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBallTicks = 5
	w := newTestWorld(t, cfg)
	w.Spawn(50)

	var settled []Settlement
	for i := 0; i < 5; i++ {
		settled = append(settled, w.Advance(1)...)
	}

	require.Len(t, settled, 1)
	assert.Equal(t, ReasonTimeout, settled[0].Reason)
	assert.False(t, settled[0].Scores())
}

func TestBallLostOnNonFinite(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	w.Spawn(50)
	w.balls[0].Velocity = NewVec2(math.NaN(), 0)

	settled := w.Advance(1)

	require.Len(t, settled, 1)
	assert.Equal(t, ReasonLost, settled[0].Reason)
	assert.Zero(t, w.Live())
}

func TestSettlementsCollectedAfterAllBallsMove(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	first := w.Spawn(50)
	second := w.Spawn(50)
	w.balls[0].Position = NewVec2(100, LandingY-0.5)
	w.balls[0].Velocity = NewVec2(0, 2)
	w.balls[1].Position = NewVec2(300, 200)
	before := w.balls[1].Age

	settled := w.Advance(1)

	require.Len(t, settled, 1)
	assert.Equal(t, first, settled[0].BallID)
	require.Len(t, w.Balls(), 1)
	assert.Equal(t, second, w.Balls()[0].ID)
	assert.Equal(t, before+1, w.Balls()[0].Age)
}

func TestClearReturnsLiveIDs(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	a := w.Spawn(20)
	b := w.Spawn(80)

	assert.Equal(t, []BallID{a, b}, w.Clear())
	assert.Zero(t, w.Live())
	assert.Empty(t, w.Advance(1))
}
