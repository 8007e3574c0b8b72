package game

// World owns the live balls of a session and advances them one tick at a time.
// It performs no I/O and no scheduling.
type World struct {
	cfg      Config
	field    *Field
	resolver *Resolver
	rng      RandSource

	balls  []*Ball
	nextID BallID
	tick   uint64
	events []CollisionEvent
}

func NewWorld(cfg Config, field *Field, rng RandSource) *World {
	return &World{
		cfg:      cfg,
		field:    field,
		resolver: NewResolver(cfg, rng),
		rng:      rng,
		nextID:   1,
	}
}

// NextID returns the id the next Spawn will assign.
func (w *World) NextID() BallID {
	return w.nextID
}

// Spawn launches a ball with the given power and returns its id.
func (w *World) Spawn(power float64) BallID {
	id := w.nextID
	w.nextID++
	w.balls = append(w.balls, NewBall(id, w.cfg, power, w.rng))
	return id
}

// Advance moves every live ball by dt frames and returns the balls that left
// play during this tick, in ball order. Settled balls are removed only after
// every ball has been stepped.
func (w *World) Advance(dt float64) []Settlement {
	w.tick++
	w.events = w.events[:0]

	var settled []Settlement
	for _, b := range w.balls {
		if s, done := w.step(b, dt); done {
			b.State = BallSettled
			settled = append(settled, s)
		}
	}

	if len(settled) > 0 {
		live := w.balls[:0]
		for _, b := range w.balls {
			if b.State == BallLaunched {
				live = append(live, b)
			}
		}
		for i := len(live); i < len(w.balls); i++ {
			w.balls[i] = nil
		}
		w.balls = live
	}
	return settled
}

func (w *World) step(b *Ball, dt float64) (Settlement, bool) {
	b.Age++

	// 1. integrate
	b.Velocity.Y += w.cfg.Gravity * dt
	b.Position = b.Position.Plus(b.Velocity.Times(dt))

	// 2. walls
	if ev, hit := w.resolver.ResolveWalls(b); hit {
		w.events = append(w.events, ev)
	}

	// 3. pins, in layout order
	w.events = w.resolver.ResolvePins(b, w.field.Pins, w.events)

	// 4. speed cap
	b.Velocity = b.Velocity.ClampComponents(w.cfg.MaxSpeed)

	// 5. landing
	switch {
	case !b.Position.IsFinite() || !b.Velocity.IsFinite():
		return Settlement{BallID: b.ID, Reason: ReasonLost}, true
	case b.Position.Y >= w.field.LandingY:
		return Settlement{BallID: b.ID, X: b.Position.X, Reason: ReasonLanded}, true
	case b.Age >= w.cfg.MaxBallTicks:
		return Settlement{BallID: b.ID, X: b.Position.X, Reason: ReasonTimeout}, true
	}
	return Settlement{}, false
}

// Clear removes all live balls without settling them and returns their ids.
func (w *World) Clear() []BallID {
	ids := make([]BallID, 0, len(w.balls))
	for _, b := range w.balls {
		ids = append(ids, b.ID)
	}
	w.balls = nil
	return ids
}

// Balls returns copies of the live balls.
func (w *World) Balls() []Ball {
	out := make([]Ball, len(w.balls))
	for i, b := range w.balls {
		out[i] = *b
	}
	return out
}

// Live returns the number of balls in play.
func (w *World) Live() int {
	return len(w.balls)
}

// Tick returns the number of completed ticks.
func (w *World) Tick() uint64 {
	return w.tick
}

// Events returns the collisions recorded during the last tick.
func (w *World) Events() []CollisionEvent {
	out := make([]CollisionEvent, len(w.events))
	copy(out, w.events)
	return out
}

func (w *World) Field() *Field {
	return w.field
}
