package game

// upNormal is used when a ball centre coincides with a pin centre.
var upNormal = Vec2{X: 0, Y: -1}

// CollisionEvent records a contact during a tick, for renderers and sound.
type CollisionEvent struct {
	Type   string  `json:"type"` // "wall" or "pin"
	BallID BallID  `json:"ball_id"`
	Target int     `json:"target"` // pin index, -1 left wall, -2 right wall
	Speed  float64 `json:"speed"`
}

const (
	leftWall  = -1
	rightWall = -2
)

// Resolver applies wall and pin collision response using the machine constants.
type Resolver struct {
	Width               float64
	BounceDamping       float64
	ResponseCoefficient float64
	EnergyRetention     float64
	PinScatter          float64
	rng                 RandSource
}

func NewResolver(cfg Config, rng RandSource) *Resolver {
	return &Resolver{
		Width:               cfg.FieldWidth,
		BounceDamping:       cfg.BounceDamping,
		ResponseCoefficient: cfg.ResponseCoefficient,
		EnergyRetention:     cfg.EnergyRetention,
		PinScatter:          cfg.PinScatter,
		rng:                 rng,
	}
}

// ResolveWalls clamps the ball inside the side walls and reflects its
// horizontal velocity toward the field.
func (r *Resolver) ResolveWalls(b *Ball) (CollisionEvent, bool) {
	switch {
	case b.Position.X-b.Radius <= 0:
		speed := abs(b.Velocity.X)
		b.Position.X = b.Radius
		b.Velocity.X = speed * r.BounceDamping
		return CollisionEvent{Type: "wall", BallID: b.ID, Target: leftWall, Speed: speed}, true
	case b.Position.X+b.Radius >= r.Width:
		speed := abs(b.Velocity.X)
		b.Position.X = r.Width - b.Radius
		b.Velocity.X = -speed * r.BounceDamping
		return CollisionEvent{Type: "wall", BallID: b.ID, Target: rightWall, Speed: speed}, true
	}
	return CollisionEvent{}, false
}

// ResolvePin separates an overlapping ball from pin and reflects its velocity.
// It reports false when the two do not overlap.
func (r *Resolver) ResolvePin(b *Ball, pin Pin) bool {
	minDist := b.Radius + pin.Radius
	offset := b.Position.Minus(pin.Position)
	if !(offset.MagnitudeSquared() < minDist*minDist) {
		return false
	}

	n := offset.Normalize()
	if n.IsZero() {
		n = upNormal
	}

	b.Position = pin.Position.Plus(n.Times(minDist))
	b.Velocity = b.Velocity.Reflect(n, r.ResponseCoefficient).Times(r.EnergyRetention)

	if r.PinScatter > 0 && r.rng != nil {
		b.Velocity.X += (r.rng.Float64() - 0.5) * 2 * r.PinScatter
	}
	return true
}

// ResolvePins runs one pass over pins in order. A ball overlapping several pins
// is corrected against each in turn; only the last correction is guaranteed to
// leave the ball clear of its pin.
func (r *Resolver) ResolvePins(b *Ball, pins []Pin, events []CollisionEvent) []CollisionEvent {
	for i := range pins {
		speed := b.Velocity.Magnitude()
		if r.ResolvePin(b, pins[i]) {
			events = append(events, CollisionEvent{Type: "pin", BallID: b.ID, Target: i, Speed: speed})
		}
	}
	return events
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
