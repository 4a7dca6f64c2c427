package trade

// PositionKind tags the six Position variants from spec §3.
type PositionKind int

const (
	PositionNone PositionKind = iota
	PositionMarketIn
	PositionMarketOut
	PositionOrder
	PositionPendingOrder
	PositionMarketInOrder
	PositionMarketOutOrder
)

// Position is the tagged result a Strategy produces each tick. Only
// the fields relevant to Kind are populated; this mirrors the source's
// enum (spec §3) without resorting to an interface per variant, since
// the core switches on Kind exhaustively in one place (BotCore.apply).
type Position struct {
	Kind PositionKind

	TradeIn  In
	TradeOut Out
	Orders   []Order
	Order    Order // the single order fulfilled in *Order variants
}

// None is the zero Position: no intent, no effect.
var None = Position{Kind: PositionNone}
