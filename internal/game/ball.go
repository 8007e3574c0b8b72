package game

import (
	"fmt"
	"math"
)

// BallID identifies a ball within one session.
type BallID uint64

func (id BallID) String() string {
	return fmt.Sprintf("ball-%d", uint64(id))
}

// BallState is the lifecycle of a ball. Settled is terminal.
type BallState int

const (
	BallLaunched BallState = iota
	BallSettled
)

func (s BallState) String() string {
	switch s {
	case BallLaunched:
		return "launched"
	case BallSettled:
		return "settled"
	default:
		return "unknown"
	}
}

func (s BallState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SettleReason records why a ball left play.
type SettleReason string

const (
	ReasonLanded  SettleReason = "landed"  // crossed the landing line
	ReasonLost    SettleReason = "lost"    // position became non-finite
	ReasonTimeout SettleReason = "timeout" // exceeded MaxBallTicks
)

// Ball is a dynamic entity advanced by the World.
type Ball struct {
	ID       BallID    `json:"id"`
	Position Vec2      `json:"position"`
	Velocity Vec2      `json:"velocity"`
	Radius   float64   `json:"radius"`
	State    BallState `json:"state"`
	Age      int       `json:"age"` // ticks since launch
}

// Settlement is emitted exactly once per ball when it leaves play.
type Settlement struct {
	BallID BallID       `json:"ball_id"`
	X      float64      `json:"x"`
	Reason SettleReason `json:"reason"`
}

// Scores reports whether the settlement is eligible for a pocket payout.
func (s Settlement) Scores() bool {
	return s.Reason == ReasonLanded
}

// ClampPower bounds a caller supplied launch power. Non-finite input falls back
// to the default dial position.
func (c Config) ClampPower(power float64) float64 {
	if math.IsNaN(power) || math.IsInf(power, 0) {
		return c.DefaultPower
	}
	if power < c.MinPower {
		return c.MinPower
	}
	if power > c.MaxPower {
		return c.MaxPower
	}
	return power
}

// NewBall spawns a ball at the launcher. rng supplies the horizontal jitter of
// both the start position and the lateral velocity.
func NewBall(id BallID, cfg Config, power float64, rng RandSource) *Ball {
	power = cfg.ClampPower(power)
	x := cfg.LaunchX + (rng.Float64()-0.5)*cfg.LaunchJitter
	vx := (rng.Float64() - 0.5) * power * cfg.LateralFactor
	vy := cfg.BaseSpeed + power*cfg.PowerFactor

	// keep the spawn point off the walls
	x = math.Max(cfg.BallRadius, math.Min(cfg.FieldWidth-cfg.BallRadius, x))

	return &Ball{
		ID:       id,
		Position: NewVec2(x, cfg.LaunchY),
		Velocity: NewVec2(vx, vy),
		Radius:   cfg.BallRadius,
		State:    BallLaunched,
	}
}
