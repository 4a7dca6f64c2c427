package strategy

import "github.com/vireo-trade/tradecore/internal/trade"

// Config is every tunable a Strategy needs, frozen once at
// construction time and never re-read from the environment inside the
// tick loop (spec §9 design note: "re-architect: freeze configuration
// at Strategy construction into a typed config record").
type Config struct {
	Symbol            string
	OrderSize         float64
	Equity            float64
	Commission        float64
	RiskRewardRatio   float64
	PipsProfitTarget  float64
	PipsStopLoss      float64
	PipsMargin        float64
	AtrStopLoss       float64
	AtrProfitTarget   float64
	EMAPercentageDis   float64
	OverwriteOrders   bool
	StopLossType      trade.StopLossType
}

// ToPips converts a pip count to a price delta: n * pipSize, where a
// zero pipSize means the 4-decimal forex pip (0.0001). The symbol is
// not consulted, so the caller supplies any other pip size (spec
// GLOSSARY `to_pips`).
func (c Config) ToPips(n float64, pipSize float64) float64 {
	if pipSize == 0 {
		pipSize = 0.0001
	}
	return n * pipSize
}
