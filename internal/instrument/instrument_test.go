package instrument

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vireo-trade/tradecore/internal/candle"
)

func TestInitCandleSealsPreviousAndGrowsData(t *testing.T) {
	in := New("EURUSD", MarketForex, M15)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	in.Next(candle.Tick{Close: 1.1000, Timestamp: t0})
	require.Len(t, in.Data, 1)
	assert.False(t, in.Data[0].IsClosed)

	in.InitCandle(candle.Tick{Close: 1.1010, Timestamp: t0.Add(15 * time.Minute)})
	assert.True(t, in.Data[0].IsClosed, "previous candle must be sealed")
	assert.Len(t, in.Data, 2, "data length must grow by exactly one")
	assert.Equal(t, in.Indicators.Len(), len(in.Data))
}

func TestInitCandlePopulatesNonZeroIndicators(t *testing.T) {
	in := New("EURUSD", MarketForex, M15)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	price := 1.1000
	for i := 0; i < bbPeriod+5; i++ {
		price += 0.0005
		in.InitCandle(candle.Tick{Close: price, High: price + 0.0002, Low: price - 0.0002, Timestamp: t0.Add(time.Duration(i) * 15 * time.Minute)})
	}

	idx := in.LastIndex()
	assert.NotZero(t, in.Indicators.EMAA(idx), "EMA must reflect the rising close series once enough bars have accrued")
	assert.NotZero(t, in.Indicators.ATRA(idx), "ATR must reflect true range once prior bars exist")
	assert.Greater(t, in.Indicators.BBA(idx), in.Indicators.BBB(idx), "upper band must sit above the lower band")
}

func TestSetDataBackfillsIndicatorsAligned(t *testing.T) {
	in := New("EURUSD", MarketForex, M15)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]candle.Candle, 0, bbPeriod+2)
	price := 1.1000
	for i := 0; i < bbPeriod+2; i++ {
		price += 0.0004
		candles = append(candles, candle.Candle{
			Date: t0.Add(time.Duration(i) * 15 * time.Minute), Open: price, High: price + 0.0002, Low: price - 0.0002, Close: price, IsClosed: true,
		})
	}
	require.NoError(t, in.SetData(candles))
	require.Equal(t, len(candles), in.Indicators.Len())
	assert.NotZero(t, in.Indicators.EMAA(in.LastIndex()))
}

func TestNewHTFRequiresTimeFrame(t *testing.T) {
	_, err := NewHTF("EURUSD", MarketForex, "")
	assert.ErrorIs(t, err, ErrWrongInstrumentConf)

	htf, err := NewHTF("EURUSD", MarketForex, H1)
	require.NoError(t, err)
	assert.Equal(t, H1, htf.TimeFrame)
}

func TestTimeFrameRoundDownBuckets(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 37, 42, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 35, 0, 0, time.UTC), M5.RoundDown(ts))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), M15.RoundDown(ts))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), H1.RoundDown(ts))
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), H4.RoundDown(ts))
}
