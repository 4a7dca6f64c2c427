package trade

import "time"

// StopLossType selects how a stop-loss's trigger price is derived.
type StopLossType int

const (
	StopLossPips StopLossType = iota
	StopLossAtr
	StopLossPrice
	StopLossTrailing
)

// StopLoss mirrors spec §3: Atr/Pips stops derive Price from the entry
// candle once. StopLossTrailing is a recognised type, but nothing in
// this module updates a stop's Price after it is created.
type StopLoss struct {
	Price      float64      `json:"price"`
	Value      float64      `json:"value"`
	StopType   StopLossType `json:"stop_type"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	ValidUntil time.Time    `json:"valid_until"`
}

// Triggered reports whether price has crossed the stop for the given
// trade side (spec invariant O2 / boundary B2): long stops trigger at
// price <= trigger, short stops at price >= trigger.
func (s StopLoss) Triggered(price float64, side Type) bool {
	switch side {
	case TypeEntryLong:
		return price <= s.Price
	case TypeEntryShort:
		return price >= s.Price
	default:
		return false
	}
}

// OrderType enumerates the six pending-order kinds (spec §3).
type OrderType int

const (
	OrderBuyOrderLong OrderType = iota
	OrderSellOrderLong
	OrderStopLossLong
	OrderBuyOrderShort
	OrderSellOrderShort
	OrderStopLossShort
)

// OrderStatus transitions Pending -> {Fulfilled, Cancelled}, terminal.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderFulfilled
	OrderCancelled
)

// Order is a pending instruction (spec §3). Orders are append-only;
// TradeID links a Fulfilled order back to the trade it belongs to.
type Order struct {
	ID           string      `json:"id"`
	Type         OrderType   `json:"type"`
	Size         float64     `json:"size"`
	TriggerPrice float64     `json:"trigger_price"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	TradeID      string      `json:"trade_id,omitempty"`
}

// IsStop reports whether this order type is a stop-loss.
func (o Order) IsStop() bool {
	return o.Type == OrderStopLossLong || o.Type == OrderStopLossShort
}

// Side returns the trade-direction side this order protects/opens.
func (o Order) Side() Type {
	switch o.Type {
	case OrderBuyOrderLong, OrderSellOrderLong, OrderStopLossLong:
		return TypeEntryLong
	default:
		return TypeEntryShort
	}
}

// AddPending appends new orders to existing, preserving insertion
// order with no dedup (spec §4.3 add_pending).
func AddPending(existing []Order, next ...Order) []Order {
	return append(existing, next...)
}

// CancelAllPending sets the status of every Pending order to
// Cancelled (spec §4.3 cancel_all_bot_pending_orders).
func CancelAllPending(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		if o.Status == OrderPending {
			o.Status = OrderCancelled
		}
		out[i] = o
	}
	return out
}

// CancelTradePending cancels every Pending order bound to tradeID
// (spec §4.3 cancel_trade_pending_orders; invariant O3).
func CancelTradePending(orders []Order, tradeID string) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		if o.Status == OrderPending && o.TradeID == tradeID {
			o.Status = OrderCancelled
		}
		out[i] = o
	}
	return out
}

// FulfillOrder finds the order by id, marks it Fulfilled, and binds it
// to tradeID (spec §4.3 fulfill_bot_order). Returns false if not found.
func FulfillOrder(orders []Order, orderID, tradeID string) ([]Order, bool) {
	out := make([]Order, len(orders))
	copy(out, orders)
	for i, o := range out {
		if o.ID == orderID {
			o.Status = OrderFulfilled
			o.TradeID = tradeID
			out[i] = o
			return out, true
		}
	}
	return out, false
}

// HasOpenStopLoss reports whether any stop-loss order among orders is
// still Pending (neither fulfilled nor cancelled) — the authoritative
// open_positions check on restart (spec §4.1 step 3, design note on
// the discarded trades_in/trades_out comparison).
func HasOpenStopLoss(orders []Order) bool {
	for _, o := range orders {
		if o.IsStop() && o.Status == OrderPending {
			return true
		}
	}
	return false
}
