package instrument

import (
	"math"

	"github.com/vireo-trade/tradecore/internal/candle"
)

// Periods mirror the defaults used throughout the original strategy
// pack's indicator helpers (EMA/BollingerBands/ATR): a 20-bar EMA and
// Bollinger window at 2 standard deviations, and a 14-bar ATR.
const (
	emaPeriod = 20
	bbPeriod  = 20
	bbStdDev  = 2.0
	atrPeriod = 14
)

// computeValues derives the indicator row for the candle currently at
// index len(Data)-1, folding in the previously recorded EMA so Next
// can update it incrementally without rescanning the whole series.
func (in *Instrument) computeValues() Values {
	idx := len(in.Data) - 1
	if idx < 0 {
		return Values{}
	}
	closes := closesWindow(in.Data, idx, bbPeriod)
	upper, lower := bollinger(closes, bbStdDev)

	return Values{
		BBA:  upper,
		BBB:  lower,
		EMAA: ema(in.Data[idx].Close, in.Indicators.EMAA(idx-1), idx),
		ATRA: averageTrueRange(in.Data, idx, atrPeriod),
	}
}

// ema applies the standard smoothing formula; the very first bar has
// no prior average to smooth against, so it seeds on its own close.
func ema(close, prev float64, idx int) float64 {
	if idx == 0 {
		return close
	}
	k := 2.0 / float64(emaPeriod+1)
	return close*k + prev*(1-k)
}

// closesWindow returns up to period closes ending at idx, inclusive.
func closesWindow(data []candle.Candle, idx, period int) []float64 {
	start := idx - period + 1
	if start < 0 {
		start = 0
	}
	closes := make([]float64, 0, idx-start+1)
	for i := start; i <= idx; i++ {
		closes = append(closes, data[i].Close)
	}
	return closes
}

// bollinger returns the upper/lower bands for a window of closes, per
// the original indicators' SMA-centered band computation.
func bollinger(closes []float64, stdDev float64) (upper, lower float64) {
	if len(closes) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, c := range closes {
		mean += c
	}
	mean /= float64(len(closes))

	variance := 0.0
	for _, c := range closes {
		d := c - mean
		variance += d * d
	}
	variance /= float64(len(closes))

	band := math.Sqrt(variance) * stdDev
	return mean + band, mean - band
}

// averageTrueRange is a simple moving average of true range over the
// window ending at idx, matching the original ATR's SMA-of-TR shape.
func averageTrueRange(data []candle.Candle, idx, period int) float64 {
	if idx < 1 {
		return 0
	}
	start := idx - period + 1
	if start < 1 {
		start = 1
	}
	sum := 0.0
	n := 0
	for i := start; i <= idx; i++ {
		h, l, prevClose := data[i].High, data[i].Low, data[i-1].Close
		tr := h - l
		if hc := math.Abs(h - prevClose); hc > tr {
			tr = hc
		}
		if lc := math.Abs(l - prevClose); lc > tr {
			tr = lc
		}
		sum += tr
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
