package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedRand always returns the same sample.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// seqRand returns samples in order and repeats the last one.
type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v
}

func seeded() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func newTestField(t *testing.T, cfg Config) *Field {
	t.Helper()
	f, err := NewField(cfg)
	require.NoError(t, err)
	return f
}

// noCooldown returns the default machine with the launcher cooldown disabled.
func noCooldown() Config {
	cfg := DefaultConfig()
	cfg.LaunchCooldownTicks = 0
	return cfg
}
