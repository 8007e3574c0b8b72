package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	day := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "pachinko:credits:42", creditKey(42))
	assert.Equal(t, "pachinko:daily_bonus:42:2026-03-09", bonusKey(42, day))
	// keys are per UTC day regardless of the caller's zone
	east := time.FixedZone("EAT", 3*60*60)
	assert.Equal(t, "pachinko:daily_bonus:42:2026-03-09", bonusKey(42, time.Date(2026, 3, 10, 2, 0, 0, 0, east)))
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
