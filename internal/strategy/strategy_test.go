package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/trade"
)

type stubStrategy struct {
	st          Type
	direction   trade.Direction
	entryLong   trade.Position
	entryShort  trade.Position
	exitLong    trade.Position
	exitShort   trade.Position
	exitLongCalled, exitShortCalled bool
	entryLongCalled, entryShortCalled bool
}

func (s *stubStrategy) Name() string                         { return "stub" }
func (s *stubStrategy) StrategyType() Type                    { return s.st }
func (s *stubStrategy) TimeFrame() instrument.TimeFrame        { return instrument.M15 }
func (s *stubStrategy) HigherTimeFrame() instrument.TimeFrame { return "" }
func (s *stubStrategy) TradingDirection(int, *instrument.Instrument, *instrument.HTFInstrument) trade.Direction {
	return s.direction
}
func (s *stubStrategy) EntryLong(int, *instrument.Instrument, *instrument.HTFInstrument, candle.Tick) trade.Position {
	s.entryLongCalled = true
	return s.entryLong
}
func (s *stubStrategy) EntryShort(int, *instrument.Instrument, *instrument.HTFInstrument, candle.Tick) trade.Position {
	s.entryShortCalled = true
	return s.entryShort
}
func (s *stubStrategy) ExitLong(int, *instrument.Instrument, *instrument.HTFInstrument, trade.In, candle.Tick) trade.Position {
	s.exitLongCalled = true
	return s.exitLong
}
func (s *stubStrategy) ExitShort(int, *instrument.Instrument, *instrument.HTFInstrument, trade.In, candle.Tick) trade.Position {
	s.exitShortCalled = true
	return s.exitShort
}
func (s *stubStrategy) StopLoss() trade.StopLoss { return trade.StopLoss{} }

func TestTickCallsEntryLongWhenFlatAndDirectionLong(t *testing.T) {
	s := &stubStrategy{st: OnlyLong, direction: trade.DirectionLong, entryLong: trade.Position{Kind: trade.PositionMarketIn}}
	in := instrument.New("EURUSD", instrument.MarketForex, instrument.M15)

	result := Tick(s, 0, in, nil, nil, nil, nil, candle.Tick{})

	assert.True(t, s.entryLongCalled)
	assert.False(t, s.entryShortCalled)
	assert.Equal(t, trade.PositionMarketIn, result.PositionResult.Kind)
}

func TestTickGatesShortEntryByStrategyType(t *testing.T) {
	s := &stubStrategy{st: OnlyLong, direction: trade.DirectionShort}
	in := instrument.New("EURUSD", instrument.MarketForex, instrument.M15)

	result := Tick(s, 0, in, nil, nil, nil, nil, candle.Tick{})

	assert.False(t, s.entryShortCalled, "OnlyLong must not call EntryShort even when direction is Short")
	assert.Equal(t, trade.PositionNone, result.PositionResult.Kind)
}

func TestTickCallsExitWhenOpenPositions(t *testing.T) {
	s := &stubStrategy{st: LongShort, exitLong: trade.Position{Kind: trade.PositionMarketOut}}
	in := instrument.New("EURUSD", instrument.MarketForex, instrument.M15)
	tradesIn := []trade.In{{TradeType: trade.TypeEntryLong}}

	result := Tick(s, 0, in, nil, tradesIn, nil, nil, candle.Tick{})

	assert.True(t, s.exitLongCalled)
	assert.False(t, s.exitShortCalled)
	assert.Equal(t, trade.PositionMarketOut, result.PositionResult.Kind)
}

func TestTickRespectsThereAreFundsCircuitBreaker(t *testing.T) {
	s := &stubStrategy{st: LongShort, direction: trade.DirectionLong, entryLong: trade.Position{Kind: trade.PositionMarketIn}}
	in := instrument.New("EURUSD", instrument.MarketForex, instrument.M15)
	tradesOut := []trade.Out{{ProfitPer: -95}}

	result := Tick(s, 0, in, nil, nil, tradesOut, nil, candle.Tick{})

	assert.False(t, s.entryLongCalled)
	assert.Equal(t, trade.PositionNone, result.PositionResult.Kind)
}

func TestStrategyTypeGatingTable(t *testing.T) {
	cases := []struct {
		st          Type
		long, short bool
		htf         bool
	}{
		{OnlyLong, true, false, false},
		{OnlyShort, false, true, false},
		{LongShort, true, true, false},
		{OnlyLongMTF, true, false, true},
		{OnlyShortMTF, false, true, true},
		{LongShortMTF, true, true, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.long, c.st.AllowsLongEntry(), c.st.String())
		assert.Equal(t, c.short, c.st.AllowsShortEntry(), c.st.String())
		assert.Equal(t, c.htf, c.st.RequiresHTF(), c.st.String())
	}
}
