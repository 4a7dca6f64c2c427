package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPendingPreservesOrder(t *testing.T) {
	existing := []Order{{ID: "1"}, {ID: "2"}}
	got := AddPending(existing, Order{ID: "3"}, Order{ID: "4"})
	require.Len(t, got, 4)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
}

func TestCancelAllPendingOnlyTouchesPending(t *testing.T) {
	orders := []Order{
		{ID: "1", Status: OrderPending},
		{ID: "2", Status: OrderFulfilled},
		{ID: "3", Status: OrderPending},
	}
	got := CancelAllPending(orders)
	assert.Equal(t, OrderCancelled, got[0].Status)
	assert.Equal(t, OrderFulfilled, got[1].Status)
	assert.Equal(t, OrderCancelled, got[2].Status)
}

func TestCancelTradePendingMatchesByTradeID(t *testing.T) {
	orders := []Order{
		{ID: "1", Status: OrderPending, TradeID: "t1"},
		{ID: "2", Status: OrderPending, TradeID: "t2"},
	}
	got := CancelTradePending(orders, "t1")
	assert.Equal(t, OrderCancelled, got[0].Status)
	assert.Equal(t, OrderPending, got[1].Status)
}

func TestFulfillOrderBindsTradeID(t *testing.T) {
	orders := []Order{{ID: "1", Status: OrderPending}}
	got, ok := FulfillOrder(orders, "1", "trade-9")
	require.True(t, ok)
	assert.Equal(t, OrderFulfilled, got[0].Status)
	assert.Equal(t, "trade-9", got[0].TradeID)

	_, ok = FulfillOrder(orders, "missing", "trade-9")
	assert.False(t, ok)
}

func TestStopLossTriggered(t *testing.T) {
	long := StopLoss{Price: 1.0950}
	assert.True(t, long.Triggered(1.0950, TypeEntryLong))
	assert.True(t, long.Triggered(1.0900, TypeEntryLong))
	assert.False(t, long.Triggered(1.0960, TypeEntryLong))

	short := StopLoss{Price: 1.1050}
	assert.True(t, short.Triggered(1.1050, TypeEntryShort))
	assert.True(t, short.Triggered(1.1100, TypeEntryShort))
	assert.False(t, short.Triggered(1.1000, TypeEntryShort))
}

func TestHasOpenStopLoss(t *testing.T) {
	assert.False(t, HasOpenStopLoss(nil))
	assert.True(t, HasOpenStopLoss([]Order{{Type: OrderStopLossLong, Status: OrderPending}}))
	assert.False(t, HasOpenStopLoss([]Order{{Type: OrderStopLossLong, Status: OrderFulfilled}}))
}

func ids(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
