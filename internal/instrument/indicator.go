package instrument

// IndicatorView is a read-only, indexed projection over a candle
// series with slots for pre-computed indicator outputs (EMA, MACD,
// Bollinger Bands, Stochastic, ATR). Rows are derived by Instrument
// from its own candle history inside Next/InitCandle/SetData; this
// type only stores and indexes the results so a Strategy can read
// e.g. BBA(index) / EMAA(index) without recomputing anything itself.
// Instrument fills BBA, BBB, EMAA and ATRA only; the EMAB, EMAC, MACD
// and Stochastic series are always zero.
type IndicatorView struct {
	bbA, bbB          []float64
	emaA, emaB, emaC  []float64
	macdA, macdB      []float64
	stochA, stochB    []float64
	atrA              []float64
}

// Values is one row of pre-computed indicator outputs, aligned 1:1
// with the candle appended alongside it.
type Values struct {
	BBA, BBB           float64
	EMAA, EMAB, EMAC   float64
	MACDA, MACDB       float64
	StochA, StochB     float64
	ATRA               float64
}

// Append records one row of indicator values, keeping the view's
// length equal to the candle count (invariant I3).
func (v *IndicatorView) Append(vals Values) {
	v.bbA = append(v.bbA, vals.BBA)
	v.bbB = append(v.bbB, vals.BBB)
	v.emaA = append(v.emaA, vals.EMAA)
	v.emaB = append(v.emaB, vals.EMAB)
	v.emaC = append(v.emaC, vals.EMAC)
	v.macdA = append(v.macdA, vals.MACDA)
	v.macdB = append(v.macdB, vals.MACDB)
	v.stochA = append(v.stochA, vals.StochA)
	v.stochB = append(v.stochB, vals.StochB)
	v.atrA = append(v.atrA, vals.ATRA)
}

// ReplaceLast overwrites the most recently appended row, used when
// Next mutates the still-open candle's indicator reading in place.
func (v *IndicatorView) ReplaceLast(vals Values) {
	if len(v.bbA) == 0 {
		v.Append(vals)
		return
	}
	i := len(v.bbA) - 1
	v.bbA[i], v.bbB[i] = vals.BBA, vals.BBB
	v.emaA[i], v.emaB[i], v.emaC[i] = vals.EMAA, vals.EMAB, vals.EMAC
	v.macdA[i], v.macdB[i] = vals.MACDA, vals.MACDB
	v.stochA[i], v.stochB[i] = vals.StochA, vals.StochB
	v.atrA[i] = vals.ATRA
}

func (v *IndicatorView) Len() int { return len(v.bbA) }

func at(s []float64, i int) float64 {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func (v *IndicatorView) BBA(i int) float64    { return at(v.bbA, i) }
func (v *IndicatorView) BBB(i int) float64    { return at(v.bbB, i) }
func (v *IndicatorView) EMAA(i int) float64   { return at(v.emaA, i) }
func (v *IndicatorView) EMAB(i int) float64   { return at(v.emaB, i) }
func (v *IndicatorView) EMAC(i int) float64   { return at(v.emaC, i) }
func (v *IndicatorView) MACDA(i int) float64  { return at(v.macdA, i) }
func (v *IndicatorView) MACDB(i int) float64  { return at(v.macdB, i) }
func (v *IndicatorView) StochA(i int) float64 { return at(v.stochA, i) }
func (v *IndicatorView) StochB(i int) float64 { return at(v.stochB, i) }
func (v *IndicatorView) ATRA(i int) float64   { return at(v.atrA, i) }
