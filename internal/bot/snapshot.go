package bot

import (
	"time"

	"github.com/google/uuid"
	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/strategy"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// identityNamespace is a fixed UUID namespace used to derive a bot's
// deterministic identity fingerprint (spec §3/§6: "uuid := stable_hash
// (symbol ‖ strategy_name ‖ time_frame ‖ strategy_type)"). google/uuid's
// NewSHA1 is a stable, version-5 UUID derivation: same namespace+name
// always yields the same UUID, satisfying invariant P3 across restarts
// and platforms.
var identityNamespace = uuid.MustParse("6f8f4a9e-9b0e-4c9a-9a2d-9b7b9c9d9e9f")

// Identity is the configuration tuple a bot uuid is derived from.
type Identity struct {
	Symbol       string
	StrategyName string
	TimeFrame    instrument.TimeFrame
	StrategyType strategy.Type
}

// UUID computes the deterministic bot identity fingerprint (spec P3).
func (id Identity) UUID() uuid.UUID {
	name := id.Symbol + "|" + id.StrategyName + "|" + string(id.TimeFrame) + "|" + id.StrategyType.String()
	return uuid.NewSHA1(identityNamespace, []byte(name))
}

// InstrumentSnapshot is the persisted candle history for one
// instrument (base or HTF). Indicator series are not persisted:
// Instrument.SetData rebuilds them from the candles when a snapshot
// or an InstrumentData payload is loaded.
type InstrumentSnapshot struct {
	Symbol    string          `json:"symbol"`
	Market    instrument.Market `json:"market"`
	TimeFrame instrument.TimeFrame `json:"time_frame"`
	Data      []candle.Candle `json:"data"`
}

// Snapshot is the persisted bot record (spec §3 "Bot snapshot").
type Snapshot struct {
	UUID            uuid.UUID           `json:"uuid"`
	Symbol          string              `json:"symbol"`
	Market          instrument.Market   `json:"market"`
	StrategyName    string              `json:"strategy_name"`
	StrategyType    strategy.Type       `json:"strategy_type"`
	TimeFrame       instrument.TimeFrame `json:"time_frame"`
	HigherTimeFrame instrument.TimeFrame `json:"higher_time_frame,omitempty"`
	DateStart       time.Time           `json:"date_start"`
	LastUpdate      time.Time           `json:"last_update"`
	Instrument      InstrumentSnapshot  `json:"instrument"`
	HTFInstrument   *InstrumentSnapshot `json:"htf_instrument,omitempty"`
	TradesIn        []trade.In          `json:"trades_in"`
	TradesOut       []trade.Out         `json:"trades_out"`
	Orders          []trade.Order       `json:"orders"`
	StrategyStats   trade.Stats         `json:"strategy_stats"`
}

// TruncateHistory keeps only the last n trades/orders of each kind,
// matching restore-time bounding by MAX_HISTORICAL_POSITIONS (spec
// §3 Ownership, round-trip property R1).
func (s Snapshot) TruncateHistory(n int) Snapshot {
	s.TradesIn = lastN(s.TradesIn, n)
	s.TradesOut = lastN(s.TradesOut, n)
	s.Orders = lastN(s.Orders, n)
	return s
}

func lastN[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
