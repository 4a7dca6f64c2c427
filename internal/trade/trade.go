// Package trade holds the order/position lifecycle types: TradeIn,
// TradeOut, Order, StopLoss, Position, and StrategyStats, plus the
// pure functions that mutate them on each tick (spec §3, §4.3, §4.4).
package trade

import "time"

// Direction is the strategy's read of market bias: Long, Short or
// None. Strategy.TradingDirection caches the last value it computed.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionLong
	DirectionShort
)

// Type tags both sides of a trade and every Order: which edge of the
// lifecycle an event belongs to.
type Type int

const (
	TypeNone Type = iota
	TypeEntryLong
	TypeEntryShort
	TypeExitLong
	TypeExitShort
	TypeStopLoss
)

func (t Type) IsStop() bool { return t == TypeStopLoss }

func (t Type) Sign() float64 {
	switch t {
	case TypeEntryLong, TypeExitLong:
		return 1
	case TypeEntryShort, TypeExitShort:
		return -1
	default:
		return 0
	}
}

// In is the opening side of a position (spec §3 TradeIn).
type In struct {
	ID        string    `json:"id"`
	IndexIn   int       `json:"index_in"`
	DateIn    time.Time `json:"date_in"`
	PriceIn   float64   `json:"price_in"`
	Quantity  float64   `json:"quantity"`
	Ask       float64   `json:"ask"`
	Spread    float64   `json:"spread"`
	StopLoss  StopLoss  `json:"stop_loss"`
	TradeType Type      `json:"trade_type"` // EntryLong | EntryShort
}

// Out is the closing side of a position (spec §3 TradeOut).
type Out struct {
	IndexIn     int       `json:"index_in"`
	IndexOut    int       `json:"index_out"`
	PriceIn     float64   `json:"price_in"`
	PriceOut    float64   `json:"price_out"`
	Bid         float64   `json:"bid"`
	SpreadIn    float64   `json:"spread_in"`
	SpreadOut   float64   `json:"spread_out"`
	DateIn      time.Time `json:"date_in"`
	DateOut     time.Time `json:"date_out"`
	TradeType   Type      `json:"trade_type"` // ExitLong | ExitShort | StopLoss
	Profit      float64   `json:"profit"`
	ProfitPer   float64   `json:"profit_per"`
	RunUp       float64   `json:"run_up"`
	RunUpPer    float64   `json:"run_up_per"`
	DrawDown    float64   `json:"draw_down"`
	DrawDownPer float64   `json:"draw_down_per"`
}
