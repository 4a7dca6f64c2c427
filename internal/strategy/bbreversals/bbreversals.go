// Package bbreversals implements a multi-time-frame Bollinger-Bands
// mean-reversion strategy gated on a higher-time-frame trend filter.
// Grounded on spec scenario S1 and the original
// bollinger_bands_reversals_mt_macd strategy.
package bbreversals

import (
	"fmt"
	"time"

	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/strategy"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// Strategy is the BB_Reversals reference strategy (spec scenario S1).
type Strategy struct {
	cfg          strategy.Config
	strategyType strategy.Type
	timeFrame    instrument.TimeFrame
	higherTF     instrument.TimeFrame
	lastDir      trade.Direction
	lastHTFIndex int
}

// New builds a BB_Reversals strategy. strategyType must require HTF
// data (OnlyLongMTF / OnlyShortMTF / LongShortMTF); construction fails
// with ErrWrongInstrumentConf otherwise (spec B3).
func New(cfg strategy.Config, st strategy.Type, tf, higherTF instrument.TimeFrame) (*Strategy, error) {
	if !st.RequiresHTF() || higherTF == "" {
		return nil, instrument.ErrWrongInstrumentConf
	}
	return &Strategy{cfg: cfg, strategyType: st, timeFrame: tf, higherTF: higherTF, lastHTFIndex: -1}, nil
}

func (s *Strategy) Name() string                         { return "BB_Reversals" }
func (s *Strategy) StrategyType() strategy.Type           { return s.strategyType }
func (s *Strategy) TimeFrame() instrument.TimeFrame        { return s.timeFrame }
func (s *Strategy) HigherTimeFrame() instrument.TimeFrame { return s.higherTF }

// TradingDirection reads the HTF EMA slope and caches it; the cache is
// invalidated whenever the HTF instrument has appended a new candle
// since the last read (spec §9 multi-timeframe caching note).
func (s *Strategy) TradingDirection(_ int, _ *instrument.Instrument, htf *instrument.HTFInstrument) trade.Direction {
	if htf == nil || htf.Instrument == nil {
		return trade.DirectionNone
	}
	htfIndex := htf.LastIndex()
	if htfIndex == s.lastHTFIndex {
		return s.lastDir
	}
	s.lastHTFIndex = htfIndex
	if htfIndex <= 0 {
		s.lastDir = trade.DirectionNone
		return s.lastDir
	}
	cur := htf.Indicators.EMAA(htfIndex)
	prev := htf.Indicators.EMAA(htfIndex - 1)
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
	if index <= 0 || index >= len(in.Data) {
		return trade.None
	}
	closeNow := in.Data[index].Close
	closePrev := in.Data[index-1].Close
	lowBand := in.Indicators.BBB(index)
	lowBandPrev := in.Indicators.BBB(index - 1)
	upperBand := in.Indicators.BBA(index)
	atr := in.Indicators.ATRA(index)

	if !(closeNow < lowBand && closePrev >= lowBandPrev) {
		return trade.None
	}

	entryPrice := pricing.Ask
	if entryPrice == 0 {
		entryPrice = closeNow
	}
	stopPrice := entryPrice - atr*s.cfg.AtrStopLoss
	now := time.Now()

	orders := []trade.Order{
		{ID: orderID(now, "buy"), Type: trade.OrderBuyOrderLong, TriggerPrice: entryPrice, Status: trade.OrderPending, CreatedAt: now},
		{ID: orderID(now, "sell"), Type: trade.OrderSellOrderLong, TriggerPrice: upperBand, Status: trade.OrderPending, CreatedAt: now},
		{ID: orderID(now, "sl"), Type: trade.OrderStopLossLong, TriggerPrice: stopPrice, Status: trade.OrderPending, CreatedAt: now},
	}

	return trade.Position{Kind: trade.PositionOrder, Orders: orders}
}

func (s *Strategy) EntryShort(index int, in *instrument.Instrument, _ *instrument.HTFInstrument, pricing candle.Tick) trade.Position {
	if index <= 0 || index >= len(in.Data) {
		return trade.None
	}
	closeNow := in.Data[index].Close
	closePrev := in.Data[index-1].Close
	upperBand := in.Indicators.BBA(index)
	upperBandPrev := in.Indicators.BBA(index - 1)
	lowBand := in.Indicators.BBB(index)
	atr := in.Indicators.ATRA(index)

	if !(closeNow > upperBand && closePrev <= upperBandPrev) {
		return trade.None
	}

	entryPrice := pricing.Bid
	if entryPrice == 0 {
		entryPrice = closeNow
	}
	stopPrice := entryPrice + atr*s.cfg.AtrStopLoss
	now := time.Now()

	orders := []trade.Order{
		{ID: orderID(now, "sell"), Type: trade.OrderSellOrderShort, TriggerPrice: entryPrice, Status: trade.OrderPending, CreatedAt: now},
		{ID: orderID(now, "buy"), Type: trade.OrderBuyOrderShort, TriggerPrice: lowBand, Status: trade.OrderPending, CreatedAt: now},
		{ID: orderID(now, "sl"), Type: trade.OrderStopLossShort, TriggerPrice: stopPrice, Status: trade.OrderPending, CreatedAt: now},
	}

	return trade.Position{Kind: trade.PositionOrder, Orders: orders}
}

// ExitLong depends on TradingDirection flipping to Short — a function
// of the HTF rather than price (spec §9's second open question,
// preserved as-is: "verify this is intended before re-implementing").
func (s *Strategy) ExitLong(index int, in *instrument.Instrument, htf *instrument.HTFInstrument, tradeIn trade.In, pricing candle.Tick) trade.Position {
	if s.TradingDirection(index, in, htf) != trade.DirectionShort {
		return trade.None
	}
	price := pricing.Bid
	if price == 0 && index >= 0 && index < len(in.Data) {
		price = in.Data[index].Close
	}
	return trade.Position{Kind: trade.PositionMarketOut, TradeOut: trade.Out{
		IndexIn: tradeIn.IndexIn, IndexOut: index, PriceOut: price, Bid: pricing.Bid, TradeType: trade.TypeExitLong,
	}}
}

func (s *Strategy) ExitShort(index int, in *instrument.Instrument, htf *instrument.HTFInstrument, tradeIn trade.In, pricing candle.Tick) trade.Position {
	if s.TradingDirection(index, in, htf) != trade.DirectionLong {
		return trade.None
	}
	price := pricing.Ask
	if price == 0 && index >= 0 && index < len(in.Data) {
		price = in.Data[index].Close
	}
	return trade.Position{Kind: trade.PositionMarketOut, TradeOut: trade.Out{
		IndexIn: tradeIn.IndexIn, IndexOut: index, PriceOut: price, Bid: pricing.Bid, TradeType: trade.TypeExitShort,
	}}
}

func (s *Strategy) StopLoss() trade.StopLoss {
	return trade.StopLoss{StopType: trade.StopLossAtr, Value: s.cfg.AtrStopLoss}
}

func orderID(t time.Time, suffix string) string {
	return fmt.Sprintf("%d-%s", t.UnixNano(), suffix)
}
