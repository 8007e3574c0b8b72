package game

import "time"

// SessionStatus is the lifecycle of a play session
type SessionStatus string

const (
	StatusActive SessionStatus = "ACTIVE"
	StatusClosed SessionStatus = "CLOSED"
)

// historyLimit bounds the per-session play log.
const historyLimit = 100

// recentLimit is how many log entries Stats returns.
const recentLimit = 10

// Result pairs a settlement with the award it produced.
type Result struct {
	Settlement
	Award Award `json:"award"`
}

// LogEntry is one line of the session play log.
type LogEntry struct {
	BallID  BallID       `json:"ball_id"`
	Reason  SettleReason `json:"reason"`
	Pocket  int          `json:"pocket"`
	Payout  int          `json:"payout"`
	Jackpot int          `json:"jackpot"`
	Tick    uint64       `json:"tick"`
	At      time.Time    `json:"at"`
}

// Frame is what a renderer needs to draw one tick.
type Frame struct {
	Token   string           `json:"token"`
	Tick    uint64           `json:"tick"`
	Status  SessionStatus    `json:"status"`
	Balls   []Ball           `json:"balls"`
	Events  []CollisionEvent `json:"events,omitempty"`
	Results []Result         `json:"results,omitempty"`
	Economy EconomyState     `json:"economy"`
	// CooldownTicks is how long until the launcher accepts another ball.
	CooldownTicks int `json:"cooldown_ticks"`
}

// Stats summarises a session for the stats endpoint.
type Stats struct {
	Token     string        `json:"token"`
	Status    SessionStatus `json:"status"`
	Tick      uint64        `json:"tick"`
	Economy   EconomyState  `json:"economy"`
	Recent    []LogEntry    `json:"recent"`
	CreatedAt time.Time     `json:"created_at"`
}

// Summary is the final record of a closed session.
type Summary struct {
	Token     string       `json:"token"`
	PlayerID  int          `json:"player_id"`
	Economy   EconomyState `json:"economy"`
	Ticks     uint64       `json:"ticks"`
	CreatedAt time.Time    `json:"created_at"`
	ClosedAt  time.Time    `json:"closed_at"`
}
