package instrument

import (
	"errors"
	"time"

	"github.com/vireo-trade/tradecore/internal/candle"
)

// ErrWrongInstrumentConf is returned by bot construction when a
// strategy_type requires a higher time-frame instrument that was not
// supplied (spec §7, boundary B3).
var ErrWrongInstrumentConf = errors.New("wrong instrument configuration")

// Instrument is an append-only ordered sequence of OHLCV candles plus
// its IndicatorView. Invariants (spec §3): (I1) candles strictly
// increasing in time; (I2) exactly one trailing candle is open; (I3)
// indicator series length equals candle count.
type Instrument struct {
	Symbol     string
	Market     Market
	TimeFrame  TimeFrame
	Data       []candle.Candle
	Indicators IndicatorView
}

// New builds an empty Instrument for symbol/market/time_frame.
func New(symbol string, market Market, tf TimeFrame) *Instrument {
	return &Instrument{Symbol: symbol, Market: market, TimeFrame: tf}
}

// SetData bulk-loads historical candles (e.g. from CSV ingestion) and
// rebuilds their aligned indicator rows from scratch. Each candle's
// IsClosed flag is kept as given; the next call to Next updates the
// last candle whatever its flag.
func (in *Instrument) SetData(candles []candle.Candle) error {
	in.Data = nil
	in.Indicators = IndicatorView{}
	for _, c := range candles {
		in.Data = append(in.Data, c)
		in.Indicators.Append(in.computeValues())
	}
	return nil
}

// Next updates the currently open candle with tick, recomputes its
// indicator row, and returns it, per spec §4.6. If there is no open
// candle yet (first tick ever), it opens one.
func (in *Instrument) Next(tick candle.Tick) candle.Candle {
	if len(in.Data) == 0 {
		in.Data = append(in.Data, candle.New(in.TimeFrame.RoundDown(tick.Timestamp), tick))
		in.Indicators.Append(in.computeValues())
		return in.Data[0]
	}
	last := &in.Data[len(in.Data)-1]
	closesAt := last.Date.Add(in.TimeFrame.Duration())
	updated := last.Next(tick, closesAt)
	in.Indicators.ReplaceLast(in.computeValues())
	return updated
}

// InitCandle seals the currently open candle (IsClosed=true), opens a
// fresh one seeded from tick, and appends its indicator row, per spec
// §4.6. Invariant P4: after InitCandle the previous candle's IsClosed
// is true and Data grows by one.
func (in *Instrument) InitCandle(tick candle.Tick) candle.Candle {
	if len(in.Data) > 0 {
		in.Data[len(in.Data)-1].IsClosed = true
	}
	next := candle.New(in.TimeFrame.RoundDown(tick.Timestamp), tick)
	next.CandleType = candle.Classify(next, in.Data)
	in.Data = append(in.Data, next)
	in.Indicators.Append(in.computeValues())
	return next
}

// LastIndex returns the index of the currently open (or last) candle,
// or -1 if the instrument has no data yet.
func (in *Instrument) LastIndex() int {
	return len(in.Data) - 1
}

// LastClosedTime returns the open time of the most recent candle, the
// zero time if empty.
func (in *Instrument) LastClosedTime() time.Time {
	if len(in.Data) == 0 {
		return time.Time{}
	}
	return in.Data[len(in.Data)-1].Date
}

// HTFInstrument wraps a higher time-frame Instrument for multi-
// timeframe strategies (OnlyLongMTF, OnlyShortMTF, LongShortMTF).
type HTFInstrument struct {
	*Instrument
}

// NewHTF builds a higher time-frame sibling instrument, or returns
// ErrWrongInstrumentConf if tf is empty (spec B3: a strategy_type
// requiring HTF but constructed without one must fail fast).
func NewHTF(symbol string, market Market, tf TimeFrame) (*HTFInstrument, error) {
	if tf == "" {
		return nil, ErrWrongInstrumentConf
	}
	return &HTFInstrument{Instrument: New(symbol, market, tf)}, nil
}
