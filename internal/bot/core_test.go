package bot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/logger"
	"github.com/vireo-trade/tradecore/internal/strategy"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// fakeTransport is an in-memory Transport: sent Commands are recorded,
// queued Responses are replayed in order.
type fakeTransport struct {
	mu   sync.Mutex
	sent []Command
	in   chan Response
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{in: make(chan Response, 64)}
}

func (f *fakeTransport) Send(_ context.Context, cmd Command) error {
	f.mu.Lock()
	f.sent = append(f.sent, cmd)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Recv(ctx context.Context) (Response, error) {
	select {
	case r := <-f.in:
		return r, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) push(r Response) { f.in <- r }

func (f *fakeTransport) lastCommand(t *testing.T) Command {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

// alwaysFlatStrategy never produces entries/exits; used to exercise
// the handshake without racing the tick loop.
type alwaysFlatStrategy struct {
	st strategy.Type
	tf instrument.TimeFrame
}

func (s alwaysFlatStrategy) Name() string                   { return "flat" }
func (s alwaysFlatStrategy) StrategyType() strategy.Type     { return s.st }
func (s alwaysFlatStrategy) TimeFrame() instrument.TimeFrame { return s.tf }
func (s alwaysFlatStrategy) HigherTimeFrame() instrument.TimeFrame { return "" }
func (s alwaysFlatStrategy) TradingDirection(int, *instrument.Instrument, *instrument.HTFInstrument) trade.Direction {
	return trade.DirectionNone
}
func (s alwaysFlatStrategy) EntryLong(int, *instrument.Instrument, *instrument.HTFInstrument, candle.Tick) trade.Position {
	return trade.None
}
func (s alwaysFlatStrategy) EntryShort(int, *instrument.Instrument, *instrument.HTFInstrument, candle.Tick) trade.Position {
	return trade.None
}
func (s alwaysFlatStrategy) ExitLong(int, *instrument.Instrument, *instrument.HTFInstrument, trade.In, candle.Tick) trade.Position {
	return trade.None
}
func (s alwaysFlatStrategy) ExitShort(int, *instrument.Instrument, *instrument.HTFInstrument, trade.In, candle.Tick) trade.Position {
	return trade.None
}
func (s alwaysFlatStrategy) StopLoss() trade.StopLoss { return trade.StopLoss{} }

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Format: "text"})
}

func newTestCore(t *testing.T) (*Core, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	cfg := Config{
		Identity: Identity{
			Symbol: "EURUSD", StrategyName: "flat", TimeFrame: instrument.M5, StrategyType: strategy.OnlyLong,
		},
		MaxHistoricalPositions: 100,
	}
	core, err := NewCore(cfg, alwaysFlatStrategy{st: strategy.OnlyLong, tf: instrument.M5}, nil, ft, testLogger())
	require.NoError(t, err)
	return core, ft
}

func TestNewCoreRejectsMTFWithoutHTF(t *testing.T) {
	ft := newFakeTransport()
	cfg := Config{Identity: Identity{Symbol: "EURUSD", TimeFrame: instrument.M5, StrategyType: strategy.OnlyLongMTF}}
	_, err := NewCore(cfg, alwaysFlatStrategy{st: strategy.OnlyLongMTF, tf: instrument.M5}, nil, ft, testLogger())
	require.ErrorIs(t, err, instrument.ErrWrongInstrumentConf)
}

func TestStartHandshakeSendsInitSession(t *testing.T) {
	core, ft := newTestCore(t)
	ctx := context.Background()
	require.NoError(t, core.startHandshake(ctx))
	cmd := ft.lastCommand(t)
	require.Equal(t, CommandInitSession, cmd.Command)
}

func TestHandshakeFlowReachesSubscribe(t *testing.T) {
	core, ft := newTestCore(t)
	ctx := context.Background()

	require.NoError(t, core.startHandshake(ctx))
	require.NoError(t, core.handleInitSession(ctx, json.RawMessage(`null`)))

	candles := []candle.Candle{{Date: time.Now(), Open: 1, High: 1, Low: 1, Close: 1, IsClosed: true}}
	payload, err := json.Marshal(InstrumentDataPayload{TimeFrame: instrument.M5, Data: candles})
	require.NoError(t, err)
	require.NoError(t, core.handleInstrumentData(ctx, payload))

	found := false
	ft.mu.Lock()
	for _, c := range ft.sent {
		if c.Command == CommandSubscribeStream {
			found = true
		}
	}
	ft.mu.Unlock()
	require.True(t, found, "expected SubscribeStream to be sent once base instrument data arrives")
}

func TestExecuteTradeInAppendsHistoryAndMarksOpen(t *testing.T) {
	core, _ := newTestCore(t)
	in := trade.In{ID: "t1", TradeType: trade.TypeEntryLong, PriceIn: 1.1, Quantity: 1}
	payload, err := json.Marshal(in)
	require.NoError(t, err)
	require.NoError(t, core.handleExecuteTradeIn(payload))
	require.True(t, core.OpenPositions())
	require.Len(t, core.tradesIn, 1)
}

func TestExecuteTradeOutClosesPositionAndUpdatesStats(t *testing.T) {
	core, _ := newTestCore(t)
	in := trade.In{ID: "t1", TradeType: trade.TypeEntryLong, PriceIn: 1.1, Quantity: 1}
	inPayload, err := json.Marshal(in)
	require.NoError(t, err)
	require.NoError(t, core.handleExecuteTradeIn(inPayload))

	out := trade.Out{TradeType: trade.TypeExitLong, PriceOut: 1.2}
	outPayload, err := json.Marshal(out)
	require.NoError(t, err)
	require.NoError(t, core.handleExecuteTradeOut(outPayload))

	require.False(t, core.OpenPositions())
	require.Len(t, core.tradesOut, 1)
	require.Equal(t, 1, core.stats.Trades)
}

func TestApplyMarketInOrderSkipsWhenAlreadyOpen(t *testing.T) {
	core, ft := newTestCore(t)
	core.openPositions = true
	sentBefore := len(ft.sent)
	err := core.apply(context.Background(), trade.Position{Kind: trade.PositionMarketInOrder, Order: trade.Order{ID: "o1"}})
	require.NoError(t, err)
	require.Equal(t, sentBefore, len(ft.sent), "must not send ExecutePosition while a position is already open")
}

func TestApplyPendingOrderOverwritesWhenConfigured(t *testing.T) {
	ft := newFakeTransport()
	cfg := Config{
		Identity:        Identity{Symbol: "EURUSD", TimeFrame: instrument.M5, StrategyType: strategy.OnlyLong},
		OverwriteOrders: true,
	}
	core, err := NewCore(cfg, alwaysFlatStrategy{st: strategy.OnlyLong, tf: instrument.M5}, nil, ft, testLogger())
	require.NoError(t, err)
	core.orders = []trade.Order{{ID: "stale", Status: trade.OrderPending}}

	err = core.apply(context.Background(), trade.Position{Kind: trade.PositionPendingOrder, Orders: []trade.Order{{ID: "fresh"}}})
	require.NoError(t, err)
	require.Equal(t, trade.OrderCancelled, core.orders[0].Status)
	require.Equal(t, "fresh", core.orders[len(core.orders)-1].ID)
}
