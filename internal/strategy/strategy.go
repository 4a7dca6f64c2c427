// Package strategy implements the pluggable trading-decision capability
// (spec §4.2): a pure decision function the core holds by name and
// invokes with well-defined inputs. Individual indicator math is out
// of scope (spec §1); strategies only read pre-computed IndicatorView
// rows.
package strategy

import (
	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// Type enumerates the six strategy_type values (spec §4.2). The MTF
// suffix marks strategies that require a higher time-frame instrument.
type Type int

const (
	OnlyLong Type = iota
	OnlyShort
	LongShort
	OnlyLongMTF
	OnlyShortMTF
	LongShortMTF
)

func (t Type) String() string {
	switch t {
	case OnlyLong:
		return "OnlyLong"
	case OnlyShort:
		return "OnlyShort"
	case LongShort:
		return "LongShort"
	case OnlyLongMTF:
		return "OnlyLongMTF"
	case OnlyShortMTF:
		return "OnlyShortMTF"
	case LongShortMTF:
		return "LongShortMTF"
	default:
		return "unknown"
	}
}

// ParseType maps a strategy_type wire string back to Type, as sent by
// InitSessionRequest/SubscribeStreamRequest (spec §6). Unknown strings
// fall back to OnlyLong.
func ParseType(s string) Type {
	switch s {
	case "OnlyLong":
		return OnlyLong
	case "OnlyShort":
		return OnlyShort
	case "LongShort":
		return LongShort
	case "OnlyLongMTF":
		return OnlyLongMTF
	case "OnlyShortMTF":
		return OnlyShortMTF
	case "LongShortMTF":
		return LongShortMTF
	default:
		return OnlyLong
	}
}

// RequiresHTF reports whether this strategy_type needs a higher
// time-frame instrument (spec B3: construction must fail without one).
func (t Type) RequiresHTF() bool {
	return t == OnlyLongMTF || t == OnlyShortMTF || t == LongShortMTF
}

// AllowsLongEntry / AllowsShortEntry implement the strategy-type gating
// table in spec §4.2.
func (t Type) AllowsLongEntry() bool {
	switch t {
	case OnlyLong, LongShort, OnlyLongMTF, LongShortMTF:
		return true
	default:
		return false
	}
}

func (t Type) AllowsShortEntry() bool {
	switch t {
	case OnlyShort, LongShort, OnlyShortMTF, LongShortMTF:
		return true
	default:
		return false
	}
}

// Strategy is the capability contract (spec §4.2). Implementations can
// be held by name in a Registry; BotCore invokes one once per tick via
// the default Tick composition below.
type Strategy interface {
	Name() string
	StrategyType() Type
	TimeFrame() instrument.TimeFrame
	HigherTimeFrame() instrument.TimeFrame

	// TradingDirection reports the strategy's market bias and caches the
	// result; MTF strategies read the HTF indicator state, single-time-
	// frame strategies read the base instrument.
	TradingDirection(index int, in *instrument.Instrument, htf *instrument.HTFInstrument) trade.Direction

	EntryLong(index int, in *instrument.Instrument, htf *instrument.HTFInstrument, pricing candle.Tick) trade.Position
	EntryShort(index int, in *instrument.Instrument, htf *instrument.HTFInstrument, pricing candle.Tick) trade.Position
	ExitLong(index int, in *instrument.Instrument, htf *instrument.HTFInstrument, tradeIn trade.In, pricing candle.Tick) trade.Position
	ExitShort(index int, in *instrument.Instrument, htf *instrument.HTFInstrument, tradeIn trade.In, pricing candle.Tick) trade.Position

	// StopLoss returns the strategy's currently configured stop-loss
	// template (type + sizing), used when composing entry orders.
	StopLoss() trade.StopLoss
}

// TickResult is the pair BotCore applies each tick: fresh intent from
// current conditions, and the effect of a pending stop-loss order of
// the open trade being triggered by the new tick (spec §4.1 step 2).
// Pending entry orders are not evaluated: while the bot is flat,
// OrdersPositionResult is always the zero Position.
type TickResult struct {
	PositionResult       trade.Position
	OrdersPositionResult trade.Position
}

// Tick is the default composition function every Strategy shares
// (spec §4.2 "tick algorithm"). It is not a method on the interface
// because it is implemented once, not per-strategy.
func Tick(
	s Strategy,
	index int,
	in *instrument.Instrument,
	htf *instrument.HTFInstrument,
	tradesIn []trade.In,
	tradesOut []trade.Out,
	orders []trade.Order,
	pricing candle.Tick,
) TickResult {
	openPositions := len(tradesIn) > len(tradesOut)

	var positionResult, ordersResult trade.Position

	if openPositions {
		lastTradeIn := tradesIn[len(tradesIn)-1]
		switch lastTradeIn.TradeType {
		case trade.TypeEntryLong:
			positionResult = s.ExitLong(index, in, htf, lastTradeIn, pricing)
		case trade.TypeEntryShort:
			positionResult = s.ExitShort(index, in, htf, lastTradeIn, pricing)
		}
		ordersResult = evaluatePendingOrders(orders, lastTradeIn, pricing)
	} else if trade.ThereAreFunds(tradesOut) {
		direction := s.TradingDirection(index, in, htf)
		st := s.StrategyType()
		switch {
		case direction == trade.DirectionLong && st.AllowsLongEntry():
			positionResult = s.EntryLong(index, in, htf, pricing)
		case direction == trade.DirectionShort && st.AllowsShortEntry():
			positionResult = s.EntryShort(index, in, htf, pricing)
		default:
			positionResult = trade.None
		}
	}

	return TickResult{PositionResult: positionResult, OrdersPositionResult: ordersResult}
}

// evaluatePendingOrders checks whether any Pending stop-loss order tied
// to the open trade has been triggered by the latest pricing tick,
// producing a MarketOutOrder position (spec §4.1 table, §4.3 O2).
func evaluatePendingOrders(orders []trade.Order, tradeIn trade.In, pricing candle.Tick) trade.Position {
	price := pricing.Bid
	if tradeIn.TradeType == trade.TypeEntryShort {
		price = pricing.Ask
	}
	if price == 0 {
		price = (pricing.Ask + pricing.Bid) / 2
	}

	for _, o := range orders {
		if o.Status != trade.OrderPending || !o.IsStop() || o.TradeID != tradeIn.ID {
			continue
		}
		if tradeIn.StopLoss.Triggered(price, tradeIn.TradeType) {
			out := trade.Out{
				PriceOut:  price,
				Bid:       pricing.Bid,
				TradeType: trade.TypeStopLoss,
			}
			return trade.Position{Kind: trade.PositionMarketOutOrder, TradeOut: out, Order: o}
		}
	}
	return trade.None
}
