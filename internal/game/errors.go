package game

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientCredits = errors.New("not enough credits")
	ErrLaunchCooldown      = errors.New("launcher is cooling down")
	ErrSessionClosed       = errors.New("session closed")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnknownBall         = errors.New("ball is not in play")
	ErrInvalidAmount       = errors.New("invalid credit amount")
)

// ConfigError reports a machine configuration that cannot be simulated.
// It is returned before any ball is launched.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
