package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
)

func TestUpdateTradeStatsPreservesSpreadQuirk(t *testing.T) {
	tradeIn := In{
		IndexIn:   0,
		PriceIn:   1.1000,
		Quantity:  1000,
		Spread:    0.0002,
		TradeType: TypeEntryLong,
	}
	tradeOut := Out{
		IndexOut: 1,
		PriceOut: 1.1050,
		Bid:      1.1049,
	}
	data := []candle.Candle{
		{High: 1.1010, Low: 1.0990},
		{High: 1.1060, Low: 1.1000},
	}

	got := UpdateTradeStats(tradeIn, tradeOut, data)

	assert.Equal(t, tradeIn.Spread, got.SpreadIn)
	assert.Equal(t, tradeIn.Spread, got.SpreadOut, "spread_out must mirror trade_in.spread, not be recomputed")
	assert.InDelta(t, 5.0, got.Profit, 0.001)
	assert.InDelta(t, 100*(1.1050/1.1000-1), got.ProfitPer, 0.0001)
}

func TestUpdateStatsNetProfitInvariant(t *testing.T) {
	in := instrument.New("EURUSD", instrument.MarketCrypto, instrument.M15)
	in.Data = []candle.Candle{{Open: 1.0, Close: 1.2}}

	tradesIn := []In{{PriceIn: 1.1, Quantity: 10, TradeType: TypeEntryLong}}
	tradesOut := []Out{
		{Profit: 50, ProfitPer: 5, TradeType: TypeExitLong},
		{Profit: -20, ProfitPer: -2, TradeType: TypeStopLoss},
	}

	stats := UpdateStats(in, tradesIn, tradesOut, 1000, 1.5)

	assert.Equal(t, stats.GrossProfit-stats.Commissions, stats.NetProfit)
	assert.Equal(t, 1, stats.StopLosses)
	assert.Equal(t, 1, stats.WiningTrades)
	assert.Equal(t, 1, stats.LosingTrades)
}

func TestUpdateStatsEmptyTradesOutIsZeroValue(t *testing.T) {
	in := instrument.New("EURUSD", instrument.MarketForex, instrument.H1)
	stats := UpdateStats(in, nil, nil, 1000, 1.5)
	assert.Equal(t, Stats{}, stats)
}

func TestUpdateStatsForexDrawdownTimesTen(t *testing.T) {
	forex := instrument.New("EURUSD", instrument.MarketForex, instrument.H1)
	forex.Data = []candle.Candle{{Open: 1, Close: 1}}
	crypto := instrument.New("BTCUSD", instrument.MarketCrypto, instrument.H1)
	crypto.Data = []candle.Candle{{Open: 1, Close: 1}}

	tradesIn := []In{{PriceIn: 1, Quantity: 1}}
	tradesOut := []Out{{Profit: 1, ProfitPer: 1, DrawDown: 5}}

	forexStats := UpdateStats(forex, tradesIn, tradesOut, 100, 0)
	cryptoStats := UpdateStats(crypto, tradesIn, tradesOut, 100, 0)

	assert.InDelta(t, 50, forexStats.MaxDrawdown, 0.0001)
	assert.InDelta(t, 5, cryptoStats.MaxDrawdown, 0.0001)
}

func TestThereAreFundsCircuitBreaker(t *testing.T) {
	assert.True(t, ThereAreFunds(nil))
	assert.True(t, ThereAreFunds([]Out{{ProfitPer: -50}, {ProfitPer: -39}}))
	assert.False(t, ThereAreFunds([]Out{{ProfitPer: -50}, {ProfitPer: -41}}))
}
