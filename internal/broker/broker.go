// Package broker defines the upstream market-data/execution contract
// SessionServer depends on (spec §1 Non-goals: "the broker adapter...
// specified only at its contract"), plus a paper-trading implementation
// used for local development and tests.
package broker

import (
	"context"
	"math/rand"
	"time"

	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// Adapter is the external collaborator SessionServer multiplexes: it
// supplies historical candles, pricing, and a live tick stream, and
// accepts order-execution intents, emitting trade-in/trade-out
// acknowledgements (spec §1/§5).
type Adapter interface {
	// HistoricalCandles returns the stored OHLCV history for
	// symbol/time_frame.
	HistoricalCandles(ctx context.Context, symbol string, tf instrument.TimeFrame) ([]candle.Candle, error)

	// Pricing returns the current bid/ask snapshot for symbol.
	Pricing(ctx context.Context, symbol string) (candle.Tick, error)

	// Stream starts a live tick feed for symbol/time_frame; closing ctx
	// stops the feed and closes the returned channel.
	Stream(ctx context.Context, symbol string, tf instrument.TimeFrame) (<-chan candle.Tick, error)

	// Execute sends an order-execution intent and returns the resulting
	// acknowledgement(s); an entry produces a TradeIn, an exit a
	// TradeOut. Either return may be the zero value if pos does not
	// represent an entry/exit (e.g. a pending-order placement only).
	Execute(ctx context.Context, symbol string, pos trade.Position) (trade.In, trade.Out, error)

	// Ping probes the upstream connection backing Stream. A room's
	// listener sends this every KEEPALIVE_INTERVAL (spec §4.5 "Broker
	// keepalive"); a returned error terminates the listener and triggers
	// its subscribers' reconnect.
	Ping(ctx context.Context) error
}

// Paper is a deterministic, no-network Adapter: its Stream emits
// synthetic ticks derived from a random walk around a seeded price,
// and Execute always "fills" at the requested price. Used for local
// development and integration tests that should not depend on a live
// broker connection.
type Paper struct {
	seedPrice float64
	spread    float64
	rng       *rand.Rand
}

// NewPaper builds a Paper adapter seeded at seedPrice.
func NewPaper(seedPrice, spread float64) *Paper {
	return &Paper{seedPrice: seedPrice, spread: spread, rng: rand.New(rand.NewSource(1))}
}

func (p *Paper) HistoricalCandles(context.Context, string, instrument.TimeFrame) ([]candle.Candle, error) {
	return nil, nil
}

func (p *Paper) Pricing(context.Context, string) (candle.Tick, error) {
	mid := p.seedPrice
	return candle.Tick{Ask: mid + p.spread/2, Bid: mid - p.spread/2, Timestamp: time.Now()}, nil
}

func (p *Paper) Stream(ctx context.Context, _ string, tf instrument.TimeFrame) (<-chan candle.Tick, error) {
	out := make(chan candle.Tick)
	go func() {
		defer close(out)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		price := p.seedPrice
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				price += (p.rng.Float64() - 0.5) * p.spread
				tick := candle.Tick{
					Ask: price + p.spread/2, Bid: price - p.spread/2,
					High: price + p.spread, Low: price - p.spread,
					Close: price, Timestamp: time.Now(),
				}
				select {
				case out <- tick:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Ping always succeeds: Paper has no real upstream connection whose
// liveness could be probed, so this exists purely to exercise the
// keepalive wiring against a trivial implementation.
func (p *Paper) Ping(context.Context) error {
	return nil
}

func (p *Paper) Execute(_ context.Context, _ string, pos trade.Position) (trade.In, trade.Out, error) {
	switch pos.Kind {
	case trade.PositionMarketIn, trade.PositionMarketInOrder:
		in := pos.TradeIn
		in.DateIn = time.Now()
		return in, trade.Out{}, nil
	case trade.PositionMarketOut, trade.PositionMarketOutOrder:
		out := pos.TradeOut
		out.DateOut = time.Now()
		return trade.In{}, out, nil
	default:
		return trade.In{}, trade.Out{}, nil
	}
}
