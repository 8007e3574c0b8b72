package game

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/playmatatu/pachinko/internal/game"

// instruments are the session counters. They are no-ops until a meter provider
// is installed with otel.SetMeterProvider.
type instruments struct {
	launched metric.Int64Counter
	settled  metric.Int64Counter
	orphaned metric.Int64Counter
	jackpots metric.Int64Counter
	payout   metric.Int64Counter
}

func newInstruments() *instruments {
	m := otel.Meter(meterName)
	in := &instruments{}
	in.launched, _ = m.Int64Counter("pachinko.balls.launched", metric.WithDescription("Balls launched"))
	in.settled, _ = m.Int64Counter("pachinko.balls.settled", metric.WithDescription("Balls settled, by reason"))
	in.orphaned, _ = m.Int64Counter("pachinko.balls.orphaned", metric.WithDescription("Balls dropped without settlement"))
	in.jackpots, _ = m.Int64Counter("pachinko.jackpots.won", metric.WithDescription("Jackpot draws won"))
	in.payout, _ = m.Int64Counter("pachinko.payout.total", metric.WithDescription("Credits paid out"), metric.WithUnit("{credit}"))
	return in
}

func (in *instruments) recordLaunch() {
	if in.launched != nil {
		in.launched.Add(context.Background(), 1)
	}
}

func (in *instruments) recordSettle(reason SettleReason, a Award) {
	ctx := context.Background()
	if in.settled != nil {
		in.settled.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))
	}
	if in.payout != nil && a.Total > 0 {
		in.payout.Add(ctx, int64(a.Total))
	}
	if in.jackpots != nil && a.Won {
		in.jackpots.Add(ctx, 1)
	}
}

func (in *instruments) recordOrphans(n int, cause string) {
	if in.orphaned != nil && n > 0 {
		in.orphaned.Add(context.Background(), int64(n), metric.WithAttributes(attribute.String("cause", cause)))
	}
}
