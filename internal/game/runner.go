package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner drives a session in real time. One tick advances the world by one
// frame; every broadcastEvery ticks the current frame is handed to OnFrame.
type Runner struct {
	session        *Session
	tickHz         int
	broadcastEvery uint64
	steps          uint64

	// OnFrame receives periodic snapshots. It must not block.
	OnFrame func(Frame)
	// OnSettle receives the results of every tick that settled a ball.
	OnSettle func([]Result)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner builds a runner. tickHz and broadcastHz below 1 fall back to
// 60 and tickHz respectively.
func NewRunner(s *Session, tickHz, broadcastHz int) *Runner {
	if tickHz < 1 {
		tickHz = 60
	}
	if broadcastHz < 1 || broadcastHz > tickHz {
		broadcastHz = tickHz
	}
	return &Runner{
		session:        s,
		tickHz:         tickHz,
		broadcastEvery: uint64(tickHz / broadcastHz),
		done:           make(chan struct{}),
	}
}

// Start runs the ticker in its own goroutine.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.Run(ctx)
}

// Stop cancels a started runner and waits for its goroutine to exit.
func (r *Runner) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// Run ticks the session until ctx is cancelled or the session closes.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(time.Second / time.Duration(r.tickHz))
	defer ticker.Stop()

	log.Debug().Str("session", r.session.Token).Int("tick_hz", r.tickHz).Msg("[RUNNER] started")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("session", r.session.Token).Msg("[RUNNER] stopped")
			return
		case <-ticker.C:
			if !r.Step() {
				log.Debug().Str("session", r.session.Token).Msg("[RUNNER] session closed")
				return
			}
		}
	}
}

// Step advances one tick and fires the hooks. It reports false once the
// session is closed.
func (r *Runner) Step() bool {
	if r.session.Status() == StatusClosed {
		return false
	}
	results := r.session.Tick(1)
	if len(results) > 0 && r.OnSettle != nil {
		r.OnSettle(results)
	}
	r.steps++
	if r.OnFrame != nil && (r.steps%r.broadcastEvery == 0 || len(results) > 0) {
		r.OnFrame(r.session.Snapshot())
	}
	return true
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
