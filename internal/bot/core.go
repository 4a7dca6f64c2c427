// Package bot implements BotCore: the per-bot tick loop that owns one
// Instrument, optional HTFInstrument, pricing snapshot, trade/order
// history, and a Strategy (spec §4.1).
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/logger"
	"github.com/vireo-trade/tradecore/internal/strategy"
	"github.com/vireo-trade/tradecore/internal/telemetry"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// phase tracks where the startup handshake (spec §4.1) currently is.
type phase int

const (
	phaseAwaitingInit phase = iota
	phaseAwaitingBaseData
	phaseAwaitingHTFData
	phaseRunning
)

// Config is the frozen, process-start configuration for one bot
// (spec §9: "freeze configuration at Strategy construction"; it is
// never re-read from the environment inside Core.Run).
type Config struct {
	Identity               Identity
	Market                 instrument.Market
	MaxHistoricalPositions int
	OverwriteOrders        bool
	Equity                 float64
	Commission             float64
}

// Core is BotCore (spec §4.1). It is not safe for concurrent use: the
// entire bot's state is owned by the single goroutine running Run,
// matching the "logically single-tasked" scheduling model (spec §5).
type Core struct {
	cfg       Config
	uuid      uuid.UUID
	strategy  strategy.Strategy
	instrument *instrument.Instrument
	htf       *instrument.HTFInstrument
	transport Transport
	log       *logger.Logger

	pricing   candle.Tick
	tradesIn  []trade.In
	tradesOut []trade.Out
	orders    []trade.Order

	openPositions   bool
	pendingTradeID  string
	dateStart       time.Time
	stats           trade.Stats
	phase           phase
	baseDataSeen    bool
	htfDataSeen     bool
}

// NewCore builds a BotCore. htf must be nil for single-time-frame
// strategies and non-nil when strategy.StrategyType() requires HTF;
// otherwise construction fails with ErrWrongInstrumentConf (spec B3).
func NewCore(cfg Config, strat strategy.Strategy, htf *instrument.HTFInstrument, transport Transport, log *logger.Logger) (*Core, error) {
	if strat.StrategyType().RequiresHTF() && htf == nil {
		return nil, instrument.ErrWrongInstrumentConf
	}
	if !strat.StrategyType().RequiresHTF() && htf != nil {
		return nil, instrument.ErrWrongInstrumentConf
	}
	in := instrument.New(cfg.Identity.Symbol, cfg.Market, cfg.Identity.TimeFrame)
	return &Core{
		cfg:        cfg,
		uuid:       cfg.Identity.UUID(),
		strategy:   strat,
		instrument: in,
		htf:        htf,
		transport:  transport,
		log:        log,
		dateStart:  time.Now(),
	}, nil
}

// UUID returns the bot's deterministic identity fingerprint.
func (c *Core) UUID() uuid.UUID { return c.uuid }

// Run drives the startup handshake then the per-tick message loop
// until ctx is cancelled or the transport errors (spec §4.1).
func (c *Core) Run(ctx context.Context) error {
	if err := c.startHandshake(ctx); err != nil {
		return fmt.Errorf("bot handshake: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		resp, err := c.transport.Recv(ctx)
		if err != nil {
			return fmt.Errorf("bot recv: %w", err)
		}
		if err := c.handle(ctx, resp); err != nil {
			c.log.WithError(err).Warn("failed to handle response", "response", resp.Response)
		}
	}
}

// startHandshake implements spec §4.1 step 1: send InitSession with the
// bot's identity. It does not wait for the reply; the InitSession
// response and the remaining steps are handled inside handle as
// responses arrive, since step 6 depends on asynchronous InstrumentData
// pushes.
func (c *Core) startHandshake(ctx context.Context) error {
	c.phase = phaseAwaitingInit
	req := InitSessionRequest{
		Symbol:          c.cfg.Identity.Symbol,
		StrategyName:    c.cfg.Identity.StrategyName,
		TimeFrame:       c.cfg.Identity.TimeFrame,
		StrategyType:    c.cfg.Identity.StrategyType.String(),
		HigherTimeFrame: c.htfTimeFrame(),
	}
	return c.transport.Send(ctx, Command{Command: CommandInitSession, Data: marshal(req)})
}

func (c *Core) htfTimeFrame() instrument.TimeFrame {
	if c.htf == nil {
		return ""
	}
	return c.htf.TimeFrame
}

// handle dispatches one inbound Response (spec §4.1 "Message taxonomy").
func (c *Core) handle(ctx context.Context, resp Response) error {
	switch resp.Response {
	case ResponseConnected:
		return nil
	case ResponseInitSession:
		return c.handleInitSession(ctx, resp.Payload)
	case ResponseInstrumentData:
		return c.handleInstrumentData(ctx, resp.Payload)
	case ResponsePricingData:
		return c.handlePricingData(resp.Payload)
	case ResponseStreamResponse:
		return c.handleStreamResponse(ctx, resp.Payload)
	case ResponseExecuteTradeIn:
		return c.handleExecuteTradeIn(resp.Payload)
	case ResponseExecuteTradeOut:
		return c.handleExecuteTradeOut(resp.Payload)
	case ResponseReconnect:
		return c.handleReconnect(ctx, resp.Payload)
	case ResponseError:
		var payload ErrorPayload
		_ = json.Unmarshal(resp.Payload, &payload)
		c.log.Warn("server error", "message", payload.Message)
		return nil
	default:
		// Malformed/unknown message: log and skip (spec §4.1 Failure
		// semantics, §7 propagation policy).
		c.log.Warn("unknown response type", "response", resp.Response)
		return nil
	}
}

// handleInitSession implements spec §4.1 steps 2-4.
func (c *Core) handleInitSession(ctx context.Context, payload json.RawMessage) error {
	var snapshot Snapshot
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		snapshot = snapshot.TruncateHistory(c.cfg.MaxHistoricalPositions)
		c.tradesIn = snapshot.TradesIn
		c.tradesOut = snapshot.TradesOut
		c.orders = snapshot.Orders
		c.stats = snapshot.StrategyStats
		if len(snapshot.Instrument.Data) > 0 {
			_ = c.instrument.SetData(snapshot.Instrument.Data)
		}
	}

	// Authoritative post-restart liveness check (spec §4.1 step 3,
	// design note): active stop-loss presence, not trade-count parity.
	c.openPositions = trade.HasOpenStopLoss(c.orders)
	if c.openPositions && len(c.tradesIn) > 0 {
		c.pendingTradeID = c.tradesIn[len(c.tradesIn)-1].ID
	}

	c.phase = phaseAwaitingBaseData
	if err := c.transport.Send(ctx, Command{Command: CommandGetInstrumentData, Data: marshal(GetInstrumentDataRequest{
		Symbol: c.cfg.Identity.Symbol, TimeFrame: c.cfg.Identity.TimeFrame,
	})}); err != nil {
		return err
	}
	if c.htf != nil {
		if err := c.transport.Send(ctx, Command{Command: CommandGetInstrumentData, Data: marshal(GetInstrumentDataRequest{
			Symbol: c.cfg.Identity.Symbol, TimeFrame: c.htf.TimeFrame,
		})}); err != nil {
			return err
		}
	}
	return c.transport.Send(ctx, Command{Command: CommandGetInstrumentPricing})
}

// handleInstrumentData implements spec §4.1 step 6: set the instrument
// that matches the payload's time-frame; subscribe once all required
// instruments are populated.
func (c *Core) handleInstrumentData(ctx context.Context, payload json.RawMessage) error {
	var data InstrumentDataPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("decode instrument data: %w", err)
	}

	switch {
	case data.TimeFrame == c.cfg.Identity.TimeFrame:
		if err := c.instrument.SetData(data.Data); err != nil {
			return err
		}
		c.baseDataSeen = true
	case c.htf != nil && data.TimeFrame == c.htf.TimeFrame:
		if err := c.htf.SetData(data.Data); err != nil {
			return err
		}
		c.htfDataSeen = true
	default:
		return nil
	}

	ready := c.baseDataSeen && (c.htf == nil || c.htfDataSeen)
	if !ready {
		return nil
	}

	c.phase = phaseRunning
	if err := c.transport.Send(ctx, Command{Command: CommandSubscribeStream, Data: marshal(SubscribeStreamRequest{
		Symbol: c.cfg.Identity.Symbol, TimeFrame: c.cfg.Identity.TimeFrame,
		Strategy: c.strategy.Name(), StrategyType: c.cfg.Identity.StrategyType.String(),
	})}); err != nil {
		return err
	}
	return c.emitSnapshot(ctx)
}

func (c *Core) handlePricingData(payload json.RawMessage) error {
	var data PricingPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("decode pricing: %w", err)
	}
	c.pricing = data.Tick()
	return nil
}

// handleStreamResponse implements spec §4.1 per-tick processing
// (steps 1-5).
func (c *Core) handleStreamResponse(ctx context.Context, payload json.RawMessage) error {
	if c.phase != phaseRunning {
		return nil // out-of-order (not subscribed yet): skipped without logging
	}
	var data StreamResponsePayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("decode stream response: %w", err)
	}
	tick := data.Tick()
	telemetry.BotTicksTotal.WithLabelValues(c.cfg.Identity.Symbol, string(c.cfg.Identity.TimeFrame)).Inc()

	newCandle := c.instrument.Next(tick)
	var htfCandle *candle.Candle
	if c.htf != nil {
		hc := c.htf.Next(tick)
		htfCandle = &hc
	}

	index := c.instrument.LastIndex()
	result := strategy.Tick(c.strategy, index, c.instrument, c.htf, c.tradesIn, c.tradesOut, c.orders, tick)

	if newCandle.IsClosed {
		c.instrument.InitCandle(tick)
	}
	if c.htf != nil && htfCandle != nil && htfCandle.IsClosed {
		c.htf.InitCandle(tick)
	}

	// Orders take precedence: they were placed in prior ticks and may
	// already be in-flight (spec §4.1 step 4).
	if err := c.apply(ctx, result.OrdersPositionResult); err != nil {
		return err
	}
	if err := c.apply(ctx, result.PositionResult); err != nil {
		return err
	}

	if err := c.transport.Send(ctx, Command{Command: CommandGetInstrumentPricing}); err != nil {
		return err
	}
	return c.emitSnapshot(ctx)
}

// apply implements the position-application rules table (spec §4.1).
// Exactly one branch mutates state per call.
func (c *Core) apply(ctx context.Context, pos trade.Position) error {
	switch pos.Kind {
	case trade.PositionNone:
		return nil

	case trade.PositionMarketInOrder:
		if c.openPositions {
			return nil
		}
		orders, ok := trade.FulfillOrder(c.orders, pos.Order.ID, c.pendingTradeID)
		if ok {
			c.orders = orders
		}
		c.openPositions = true
		telemetry.BotPositionsOpened.WithLabelValues(c.cfg.Identity.Symbol, c.strategy.Name()).Inc()
		return c.sendExecutePosition(ctx, pos)

	case trade.PositionMarketOutOrder:
		if !c.openPositions {
			return nil
		}
		lastTradeID := c.lastOpenTradeID()
		orders, _ := trade.FulfillOrder(c.orders, pos.Order.ID, lastTradeID)
		c.orders = trade.CancelTradePending(orders, lastTradeID)
		c.openPositions = false
		c.recordClose(pos)
		return c.sendExecutePosition(ctx, pos)

	case trade.PositionMarketIn:
		if c.openPositions {
			return nil
		}
		c.pendingTradeID = uuid.New().String()
		for i := range pos.Orders {
			pos.Orders[i].TradeID = c.pendingTradeID
		}
		c.orders = trade.AddPending(c.orders, pos.Orders...)
		telemetry.BotPositionsOpened.WithLabelValues(c.cfg.Identity.Symbol, c.strategy.Name()).Inc()
		return c.sendExecutePosition(ctx, pos)

	case trade.PositionMarketOut:
		if !c.openPositions {
			return nil
		}
		lastTradeID := c.lastOpenTradeID()
		c.orders = trade.CancelTradePending(c.orders, lastTradeID)
		c.recordClose(pos)
		return c.sendExecutePosition(ctx, pos)

	case trade.PositionPendingOrder:
		if c.openPositions {
			return nil
		}
		if c.cfg.OverwriteOrders {
			c.orders = trade.CancelAllPending(c.orders)
		}
		c.orders = trade.AddPending(c.orders, pos.Orders...)
		return c.sendExecutePosition(ctx, pos)

	case trade.PositionOrder:
		if c.openPositions {
			return nil
		}
		c.orders = trade.AddPending(c.orders, pos.Orders...)
		return c.sendExecutePosition(ctx, pos)

	default:
		return nil
	}
}

func (c *Core) recordClose(pos trade.Position) {
	reason := "exit"
	if pos.TradeOut.TradeType.IsStop() {
		reason = "stop_loss"
	}
	telemetry.BotPositionsClosed.WithLabelValues(c.cfg.Identity.Symbol, c.strategy.Name(), reason).Inc()
}

func (c *Core) lastOpenTradeID() string {
	if len(c.tradesIn) == 0 {
		return c.pendingTradeID
	}
	return c.tradesIn[len(c.tradesIn)-1].ID
}

func (c *Core) sendExecutePosition(ctx context.Context, pos trade.Position) error {
	req := ExecutePositionRequest{Kind: pos.Kind, Orders: pos.Orders}
	if pos.Kind == trade.PositionMarketIn || pos.Kind == trade.PositionMarketInOrder {
		in := pos.TradeIn
		in.ID = c.pendingTradeID
		req.TradeIn = &in
	}
	if pos.Kind == trade.PositionMarketOut || pos.Kind == trade.PositionMarketOutOrder {
		out := pos.TradeOut
		req.TradeOut = &out
	}
	return c.transport.Send(ctx, Command{Command: CommandExecutePosition, Data: marshal(req)})
}

// handleExecuteTradeIn implements the ExecuteTradeIn acknowledgement
// (spec §4.1 "Acknowledgements").
func (c *Core) handleExecuteTradeIn(payload json.RawMessage) error {
	var in trade.In
	if err := json.Unmarshal(payload, &in); err != nil {
		return fmt.Errorf("decode trade in: %w", err)
	}
	if in.ID == "" {
		in.ID = c.pendingTradeID
	}
	c.tradesIn = append(c.tradesIn, in)
	c.stats = trade.UpdateStats(c.instrument, c.tradesIn, c.tradesOut, c.cfg.Equity, c.cfg.Commission)
	c.openPositions = true
	return nil
}

// handleExecuteTradeOut implements the ExecuteTradeOut acknowledgement
// (spec §4.1, §4.4): recompute the stats-updated trade_out before
// appending it to history.
func (c *Core) handleExecuteTradeOut(payload json.RawMessage) error {
	var out trade.Out
	if err := json.Unmarshal(payload, &out); err != nil {
		return fmt.Errorf("decode trade out: %w", err)
	}
	var in trade.In
	for _, t := range c.tradesIn {
		if t.ID == c.lastOpenTradeID() {
			in = t
			break
		}
	}
	statsUpdated := trade.UpdateTradeStats(in, out, c.instrument.Data)
	c.tradesOut = append(c.tradesOut, statsUpdated)
	c.stats = trade.UpdateStats(c.instrument, c.tradesIn, c.tradesOut, c.cfg.Equity, c.cfg.Commission)
	c.openPositions = false

	labels := []string{c.cfg.Identity.Symbol, c.strategy.Name()}
	telemetry.BotNetProfit.WithLabelValues(labels...).Set(c.stats.NetProfit)
	fundsExhausted := 0.0
	if !trade.ThereAreFunds(c.tradesOut) {
		fundsExhausted = 1
	}
	telemetry.BotFundsExhausted.WithLabelValues(labels...).Set(fundsExhausted)
	return nil
}

// handleReconnect re-runs the full startup handshake, preserving
// history (spec §4.1 Failure semantics, scenario S3).
func (c *Core) handleReconnect(ctx context.Context, payload json.RawMessage) error {
	var data ReconnectPayload
	_ = json.Unmarshal(payload, &data)
	c.baseDataSeen, c.htfDataSeen = false, false
	c.log.Info("reconnect requested", "clean_data", data.CleanData)
	return c.startHandshake(ctx)
}

// emitSnapshot sends UpdateBotData (spec §4.1 step 7 / per-tick step 5).
func (c *Core) emitSnapshot(ctx context.Context) error {
	snap := c.Snapshot()
	return c.transport.Send(ctx, Command{Command: CommandUpdateBotData, Data: marshal(snap)})
}

// Snapshot materializes the bot's current state for persistence
// (spec §3 "Bot snapshot").
func (c *Core) Snapshot() Snapshot {
	snap := Snapshot{
		UUID:         c.uuid,
		Symbol:       c.cfg.Identity.Symbol,
		Market:       c.cfg.Market,
		StrategyName: c.cfg.Identity.StrategyName,
		StrategyType: c.cfg.Identity.StrategyType,
		TimeFrame:    c.cfg.Identity.TimeFrame,
		DateStart:    c.dateStart,
		LastUpdate:   time.Now(),
		Instrument: InstrumentSnapshot{
			Symbol: c.instrument.Symbol, Market: c.instrument.Market,
			TimeFrame: c.instrument.TimeFrame, Data: c.instrument.Data,
		},
		TradesIn:      c.tradesIn,
		TradesOut:     c.tradesOut,
		Orders:        c.orders,
		StrategyStats: c.stats,
	}
	if c.htf != nil {
		snap.HigherTimeFrame = c.htf.TimeFrame
		snap.HTFInstrument = &InstrumentSnapshot{
			Symbol: c.htf.Symbol, Market: c.htf.Market, TimeFrame: c.htf.TimeFrame, Data: c.htf.Data,
		}
	}
	return snap
}

// OpenPositions reports the bot's current liveness (spec invariant P1).
func (c *Core) OpenPositions() bool { return c.openPositions }
