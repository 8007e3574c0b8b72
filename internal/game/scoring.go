package game

import "math"

// RandSource is the only randomness the core uses. *math/rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// ComputePocket maps x to a pocket index. Values outside the field, including
// x exactly at the right edge, clamp to the nearest pocket.
func ComputePocket(x, pocketWidth float64, pocketCount int) int {
	if pocketCount <= 0 || pocketWidth <= 0 || math.IsNaN(x) {
		return 0
	}
	idx := math.Floor(x / pocketWidth)
	if idx < 0 {
		return 0
	}
	if idx > float64(pocketCount-1) {
		return pocketCount - 1
	}
	return int(idx)
}

// Award is the outcome of scoring one settled ball.
type Award struct {
	Pocket  int  `json:"pocket"` // -1 when the ball did not score
	Base    int  `json:"base"`
	Jackpot int  `json:"jackpot"`
	Total   int  `json:"total"`
	Won     bool `json:"jackpot_won"`
}

// NoAward is used for balls that left play without landing in a pocket.
var NoAward = Award{Pocket: -1}

// Scorer resolves landed balls into payouts and runs the jackpot draw.
type Scorer struct {
	field    *Field
	chance   float64
	pocket   int
	maxAward int
	seed     int
	floor    int
	rng      RandSource
}

func NewScorer(cfg Config, field *Field, rng RandSource) *Scorer {
	return &Scorer{
		field:    field,
		chance:   cfg.JackpotChance,
		pocket:   cfg.JackpotPocket,
		maxAward: cfg.MaxJackpotAward,
		seed:     cfg.JackpotSeed,
		floor:    cfg.JackpotFloor,
		rng:      rng,
	}
}

// Score computes the payout for a settlement against the current jackpot pool
// and returns the award together with the pool after the draw. The jackpot is
// drawn at most once per call.
func (s *Scorer) Score(st Settlement, pool int) (Award, int) {
	if !st.Scores() {
		return NoAward, pool
	}

	p := s.field.PocketAt(st.X)
	award := Award{Pocket: p.Index, Base: p.Payout}

	if p.Index == s.pocket {
		if pool < s.floor {
			pool = s.floor
		}
		if s.rng.Float64() < s.chance {
			win := pool
			if win > s.maxAward {
				win = s.maxAward
			}
			award.Jackpot = win
			award.Won = true
			pool = pool - win + s.seed
		}
	}

	award.Total = award.Base + award.Jackpot
	return award, pool
}
