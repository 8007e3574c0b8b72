package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// IdleTracker records the last activity of each session. The production
// implementation is a Redis sorted set scored by unix time.
type IdleTracker interface {
	Touch(ctx context.Context, token string, at time.Time) error
	// Expired returns the tokens whose last activity is at or before cutoff.
	Expired(ctx context.Context, cutoff time.Time) ([]string, error)
	Forget(ctx context.Context, token string) error
}

// MemoryIdleTracker is an in-process IdleTracker for single-node deployments
// without Redis.
type MemoryIdleTracker struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewMemoryIdleTracker() *MemoryIdleTracker {
	return &MemoryIdleTracker{last: make(map[string]time.Time)}
}

func (t *MemoryIdleTracker) Touch(_ context.Context, token string, at time.Time) error {
	t.mu.Lock()
	t.last[token] = at
	t.mu.Unlock()
	return nil
}

func (t *MemoryIdleTracker) Expired(_ context.Context, cutoff time.Time) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for token, at := range t.last {
		if !at.After(cutoff) {
			out = append(out, token)
		}
	}
	return out, nil
}

func (t *MemoryIdleTracker) Forget(_ context.Context, token string) error {
	t.mu.Lock()
	delete(t.last, token)
	t.mu.Unlock()
	return nil
}

// IdleTracker returns the tracker the manager records activity in.
func (m *Manager) IdleTracker() IdleTracker {
	return m.idle
}

// ReapIdle destroys every session idle since before now-timeout and returns
// how many were closed.
func (m *Manager) ReapIdle(ctx context.Context, now time.Time, timeout time.Duration) int {
	tokens, err := m.idle.Expired(ctx, now.Add(-timeout))
	if err != nil {
		log.Error().Err(err).Msg("[IDLE] Failed to fetch idle sessions")
		return 0
	}
	reaped := 0
	for _, token := range tokens {
		// the tracker may be shared with other nodes
		if _, err := m.Get(token); err != nil {
			continue
		}
		if _, err := m.Destroy(token); err != nil {
			continue
		}
		reaped++
		log.Info().Str("session", token).Dur("idle_timeout", timeout).Msg("[IDLE] Session closed for inactivity")
	}
	return reaped
}

// StartIdleWorker starts a background worker that closes idle sessions
func StartIdleWorker(ctx context.Context, m *Manager, poll, timeout time.Duration) {
	if m == nil || poll <= 0 || timeout <= 0 {
		log.Warn().Msg("[IDLE] manager or intervals missing; idle worker not started")
		return
	}

	log.Info().Dur("poll", poll).Dur("timeout", timeout).Msg("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("[IDLE] Idle worker stopping")
				return
			case now := <-ticker.C:
				m.ReapIdle(ctx, now, timeout)
			}
		}
	}()
}
