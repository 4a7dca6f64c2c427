package numbars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/strategy"
	"github.com/vireo-trade/tradecore/internal/trade"
)

func TestNewRejectsMTFStrategyType(t *testing.T) {
	_, err := New(strategy.Config{}, strategy.OnlyLongMTF, instrument.M15)
	assert.ErrorIs(t, err, instrument.ErrWrongInstrumentConf)
}

// TestEntryLongOnBearishThreeInRow reproduces spec scenario S4: a
// closed BearishThreeInRow candle with trading_direction=Long emits a
// MarketIn with a take-profit SellOrderLong and a pip-based StopLoss.
func TestEntryLongOnBearishThreeInRow(t *testing.T) {
	cfg := strategy.Config{OrderSize: 1000, PipsProfitTarget: 0.0050, PipsStopLoss: 0.0020}
	s, err := New(cfg, strategy.OnlyLong, instrument.M15)
	require.NoError(t, err)

	in := instrument.New("EURUSD", instrument.MarketForex, instrument.M15)
	in.Data = []candle.Candle{{Close: 1.1000, IsClosed: true, CandleType: candle.TypeBearishThreeInRow}}

	pos := s.EntryLong(0, in, nil, candle.Tick{Ask: 1.1001, Bid: 1.0999})

	require.Equal(t, trade.PositionMarketIn, pos.Kind)
	require.Len(t, pos.Orders, 2)
	assert.Equal(t, trade.OrderSellOrderLong, pos.Orders[0].Type)
	assert.Equal(t, trade.OrderStopLossLong, pos.Orders[1].Type)
	assert.Equal(t, trade.TypeEntryLong, pos.TradeIn.TradeType)
}

func TestEntryLongNoneWhenCandleNotBearishThreeInRow(t *testing.T) {
	cfg := strategy.Config{OrderSize: 1000}
	s, err := New(cfg, strategy.OnlyLong, instrument.M15)
	require.NoError(t, err)

	in := instrument.New("EURUSD", instrument.MarketForex, instrument.M15)
	in.Data = []candle.Candle{{Close: 1.1000, IsClosed: true, CandleType: candle.TypeBullish}}

	pos := s.EntryLong(0, in, nil, candle.Tick{})
	assert.Equal(t, trade.PositionNone, pos.Kind)
}
