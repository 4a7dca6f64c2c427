// Package numbars implements a single-time-frame reversal strategy
// driven purely by candle shape classification: it fades a run of
// three same-direction candles. Grounded on spec scenario S4.
package numbars

import (
	"fmt"
	"time"

	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/strategy"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// Strategy is the NumBars reference strategy (spec scenario S4).
type Strategy struct {
	cfg          strategy.Config
	strategyType strategy.Type
	timeFrame    instrument.TimeFrame
	lastDir      trade.Direction
}

// New builds a NumBars strategy bound to a frozen Config. strategyType
// must not require HTF data; NumBars is single-time-frame only.
func New(cfg strategy.Config, st strategy.Type, tf instrument.TimeFrame) (*Strategy, error) {
	if st.RequiresHTF() {
		return nil, instrument.ErrWrongInstrumentConf
	}
	return &Strategy{cfg: cfg, strategyType: st, timeFrame: tf}, nil
}

func (s *Strategy) Name() string                         { return "NumBars" }
func (s *Strategy) StrategyType() strategy.Type           { return s.strategyType }
func (s *Strategy) TimeFrame() instrument.TimeFrame        { return s.timeFrame }
func (s *Strategy) HigherTimeFrame() instrument.TimeFrame { return "" }

// TradingDirection reads the short EMA slope between index and
// index-1: rising -> Long, falling -> Short, flat -> None. The result
// is cached on the strategy per spec §9's multi-timeframe caching note
// (NumBars has no HTF, but the cache still avoids recomputation within
// a tick).
func (s *Strategy) TradingDirection(index int, in *instrument.Instrument, _ *instrument.HTFInstrument) trade.Direction {
	if index <= 0 {
		return s.lastDir
	}
	cur := in.Indicators.EMAA(index)
	prev := in.Indicators.EMAA(index - 1)
	switch {
	case cur > prev:
		s.lastDir = trade.DirectionLong
	case cur < prev:
		s.lastDir = trade.DirectionShort
	default:
		s.lastDir = trade.DirectionNone
	}
	return s.lastDir
}

func (s *Strategy) EntryLong(index int, in *instrument.Instrument, _ *instrument.HTFInstrument, pricing candle.Tick) trade.Position {
	if index < 0 || index >= len(in.Data) {
		return trade.None
	}
	c := in.Data[index]
	if !c.IsClosed || c.CandleType != candle.TypeBearishThreeInRow {
		return trade.None
	}

	tradeIn := trade.In{
		IndexIn:   index,
		DateIn:    c.Date,
		PriceIn:   c.Close,
		Quantity:  s.cfg.OrderSize,
		Ask:       pricing.Ask,
		Spread:    pricing.Ask - pricing.Bid,
		TradeType: trade.TypeEntryLong,
		StopLoss: trade.StopLoss{
			StopType:  trade.StopLossPips,
			Value:     s.cfg.PipsStopLoss,
			Price:     c.Close - s.cfg.ToPips(s.cfg.PipsStopLoss, 0),
			CreatedAt: timeNow(),
		},
	}

	orders := []trade.Order{
		{ID: orderID(c.Date, "sell"), Type: trade.OrderSellOrderLong, TriggerPrice: c.Close + s.cfg.ToPips(s.cfg.PipsProfitTarget, 0), Status: trade.OrderPending, CreatedAt: timeNow()},
		{ID: orderID(c.Date, "sl"), Type: trade.OrderStopLossLong, TriggerPrice: tradeIn.StopLoss.Price, Status: trade.OrderPending, CreatedAt: timeNow()},
	}

	return trade.Position{Kind: trade.PositionMarketIn, TradeIn: tradeIn, Orders: orders}
}

func (s *Strategy) EntryShort(index int, in *instrument.Instrument, _ *instrument.HTFInstrument, pricing candle.Tick) trade.Position {
	if index < 0 || index >= len(in.Data) {
		return trade.None
	}
	c := in.Data[index]
	if !c.IsClosed || c.CandleType != candle.TypeThreeInRow {
		return trade.None
	}

	tradeIn := trade.In{
		IndexIn:   index,
		DateIn:    c.Date,
		PriceIn:   c.Close,
		Quantity:  s.cfg.OrderSize,
		Ask:       pricing.Ask,
		Spread:    pricing.Ask - pricing.Bid,
		TradeType: trade.TypeEntryShort,
		StopLoss: trade.StopLoss{
			StopType:  trade.StopLossPips,
			Value:     s.cfg.PipsStopLoss,
			Price:     c.Close + s.cfg.ToPips(s.cfg.PipsStopLoss, 0),
			CreatedAt: timeNow(),
		},
	}

	orders := []trade.Order{
		{ID: orderID(c.Date, "buy"), Type: trade.OrderBuyOrderShort, TriggerPrice: c.Close - s.cfg.ToPips(s.cfg.PipsProfitTarget, 0), Status: trade.OrderPending, CreatedAt: timeNow()},
		{ID: orderID(c.Date, "sl"), Type: trade.OrderStopLossShort, TriggerPrice: tradeIn.StopLoss.Price, Status: trade.OrderPending, CreatedAt: timeNow()},
	}

	return trade.Position{Kind: trade.PositionMarketIn, TradeIn: tradeIn, Orders: orders}
}

func (s *Strategy) ExitLong(index int, in *instrument.Instrument, _ *instrument.HTFInstrument, tradeIn trade.In, pricing candle.Tick) trade.Position {
	if index < 0 || index >= len(in.Data) {
		return trade.None
	}
	c := in.Data[index]
	if !c.IsClosed || c.CandleType != candle.TypeThreeInRow {
		return trade.None
	}
	return trade.Position{Kind: trade.PositionMarketOut, TradeOut: trade.Out{
		IndexIn: tradeIn.IndexIn, IndexOut: index, PriceOut: c.Close, Bid: pricing.Bid, TradeType: trade.TypeExitLong,
	}}
}

func (s *Strategy) ExitShort(index int, in *instrument.Instrument, _ *instrument.HTFInstrument, tradeIn trade.In, pricing candle.Tick) trade.Position {
	if index < 0 || index >= len(in.Data) {
		return trade.None
	}
	c := in.Data[index]
	if !c.IsClosed || c.CandleType != candle.TypeBearishThreeInRow {
		return trade.None
	}
	return trade.Position{Kind: trade.PositionMarketOut, TradeOut: trade.Out{
		IndexIn: tradeIn.IndexIn, IndexOut: index, PriceOut: c.Close, Bid: pricing.Bid, TradeType: trade.TypeExitShort,
	}}
}

func (s *Strategy) StopLoss() trade.StopLoss {
	return trade.StopLoss{StopType: trade.StopLossPips, Value: s.cfg.PipsStopLoss}
}

func orderID(t time.Time, suffix string) string {
	return fmt.Sprintf("%d-%s", t.UnixNano(), suffix)
}

var timeNow = time.Now
