package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vireo-trade/tradecore/internal/bot"
	"github.com/vireo-trade/tradecore/internal/broker"
	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/logger"
	"github.com/vireo-trade/tradecore/internal/ratelimit"
	"github.com/vireo-trade/tradecore/internal/store"
	"github.com/vireo-trade/tradecore/internal/strategy"
	"github.com/vireo-trade/tradecore/internal/telemetry"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// Server is SessionServer (spec §5): it accepts bot connections,
// creates a session per connection, hashes identities, restores/
// persists snapshots via StateStore, routes broker frames into
// symbol/time_frame rooms, and supervises heartbeats.
type Server struct {
	upgrader websocket.Upgrader
	broker   broker.Adapter
	store    store.StateStore
	limiter  *ratelimit.PerSession
	log      *logger.Logger

	keepaliveInterval time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	rooms *rooms

	listenersMu sync.Mutex
	listeners   map[string]context.CancelFunc
}

// New builds a Server. broker and st are the external collaborators
// this process multiplexes (spec §1). keepaliveInterval drives the
// per-room broker keepalive (spec §4.5, KEEPALIVE_INTERVAL); zero
// disables it.
func New(brk broker.Adapter, st store.StateStore, log *logger.Logger, keepaliveInterval time.Duration) *Server {
	return &Server{
		upgrader:          websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		broker:            brk,
		store:             st,
		limiter:           ratelimit.NewPerSession(20, 40),
		log:               log.Component("server"),
		keepaliveInterval: keepaliveInterval,
		sessions:          make(map[uuid.UUID]*session),
		rooms:             newRooms(),
		listeners:         make(map[string]context.CancelFunc),
	}
}

// Run starts the heartbeat supervisor and blocks until ctx is
// cancelled (spec §6 HEARTBEAT_INTERVAL/LAST_DATA_TIMEOUT).
func (s *Server) Run(ctx context.Context, heartbeatInterval, lastDataTimeout time.Duration) {
	stop := make(chan struct{})
	go s.superviseHeartbeats(heartbeatInterval, lastDataTimeout, stop)
	<-ctx.Done()
	close(stop)
}

// HandleWS upgrades an inbound HTTP request to a websocket and runs
// the per-connection read loop until it closes (spec §5 "Accept
// TCP+websocket connections. Create a Session per connection.").
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	sess := newSession(conn)
	go sess.writeLoop()
	conn.SetPongHandler(func(string) error {
		sess.lastPong = time.Now()
		sess.clientStatus = ClientUp
		return nil
	})
	sess.tryFanOut(bot.Response{Response: bot.ResponseConnected})

	s.readLoop(r.Context(), sess)
}

func (s *Server) readLoop(ctx context.Context, sess *session) {
	defer s.teardown(sess)
	for {
		var cmd bot.Command
		if err := sess.conn.ReadJSON(&cmd); err != nil {
			return
		}
		if sess.id != uuid.Nil && !s.limiter.Allow(sess.id.String()) {
			telemetry.ServerCommandsRateLimited.WithLabelValues(string(cmd.Command)).Inc()
			sess.tryFanOut(bot.Response{Response: bot.ResponseError, Payload: marshal(bot.ErrorPayload{Message: "rate limited"})})
			continue
		}
		if err := s.dispatch(ctx, sess, cmd); err != nil {
			s.log.WithError(err).Warn("failed to handle command", "command", cmd.Command)
			sess.tryFanOut(bot.Response{Response: bot.ResponseError, Payload: marshal(bot.ErrorPayload{Message: err.Error()})})
		}
	}
}

func (s *Server) teardown(sess *session) {
	sess.close()
	if sess.id != uuid.Nil {
		s.removeSession(sess.id)
		s.limiter.Drop(sess.id.String())
	}
}

func (s *Server) removeSession(id uuid.UUID) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	count := len(s.sessions)
	s.mu.Unlock()
	telemetry.ServerSessionsConnected.Set(float64(count))
	if ok && sess.room != "" {
		s.rooms.unsubscribe(sess.room, id)
	}
}

// dispatch implements spec §5 responsibilities (c)-(f).
func (s *Server) dispatch(ctx context.Context, sess *session, cmd bot.Command) error {
	switch cmd.Command {
	case bot.CommandInitSession:
		return s.handleInitSession(ctx, sess, cmd.Data)
	case bot.CommandGetInstrumentData:
		return s.handleGetInstrumentData(ctx, sess, cmd.Data)
	case bot.CommandGetInstrumentPricing:
		return s.handleGetInstrumentPricing(ctx, sess)
	case bot.CommandSubscribeStream:
		return s.handleSubscribeStream(ctx, sess, cmd.Data)
	case bot.CommandExecutePosition:
		return s.handleExecutePosition(ctx, sess, cmd.Data)
	case bot.CommandUpdateBotData:
		return s.handleUpdateBotData(ctx, sess, cmd.Data)
	default:
		return fmt.Errorf("unknown command: %s", cmd.Command)
	}
}

func (s *Server) handleInitSession(ctx context.Context, sess *session, data json.RawMessage) error {
	var req bot.InitSessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode init session: %w", err)
	}
	identity := bot.Identity{
		Symbol: req.Symbol, StrategyName: req.StrategyName,
		TimeFrame: req.TimeFrame, StrategyType: strategy.ParseType(req.StrategyType),
	}
	id := identity.UUID()
	sess.id = id
	sess.symbol = req.Symbol
	sess.strategy = req.StrategyName
	sess.strategyType = req.StrategyType
	sess.timeFrame = req.TimeFrame
	sess.marketHours = marketHoursForSymbol(req.Symbol)
	sess.clientStatus = ClientUp
	sess.lastData = time.Now()

	s.mu.Lock()
	s.sessions[id] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	telemetry.ServerSessionsConnected.Set(float64(count))

	snap, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	var payload json.RawMessage
	if ok {
		payload = marshal(snap)
	} else {
		payload = json.RawMessage(`null`)
	}
	sess.tryFanOut(bot.Response{Response: bot.ResponseInitSession, Payload: payload})
	return nil
}

func (s *Server) handleGetInstrumentData(ctx context.Context, sess *session, data json.RawMessage) error {
	var req bot.GetInstrumentDataRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode get instrument data: %w", err)
	}
	candles, err := s.broker.HistoricalCandles(ctx, req.Symbol, req.TimeFrame)
	if err != nil {
		return fmt.Errorf("historical candles: %w", err)
	}
	sess.tryFanOut(bot.Response{
		Response: bot.ResponseInstrumentData,
		Payload:  marshal(bot.InstrumentDataPayload{TimeFrame: req.TimeFrame, Data: candles}),
	})
	return nil
}

func (s *Server) handleGetInstrumentPricing(ctx context.Context, sess *session) error {
	// The pricing symbol is the one the session registered with
	// InitSession, so pricing works before SubscribeStream as well.
	tick, err := s.broker.Pricing(ctx, sess.symbol)
	if err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	sess.tryFanOut(bot.Response{
		Response: bot.ResponsePricingData,
		Payload: marshal(bot.PricingPayload{
			Ask: tick.Ask, Bid: tick.Bid, High: tick.High, Low: tick.Low, Volume: tick.Volume,
			Timestamp: tick.Timestamp.UnixMilli(),
		}),
	})
	return nil
}

func (s *Server) handleSubscribeStream(ctx context.Context, sess *session, data json.RawMessage) error {
	var req bot.SubscribeStreamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode subscribe stream: %w", err)
	}
	room := roomKey(req.Symbol, req.TimeFrame)
	sess.room = room
	s.rooms.subscribe(room, sess.id)
	s.ensureListener(ctx, req.Symbol, req.TimeFrame)
	return nil
}

// ensureListener spawns one broker-stream listener per room, fanning
// frames out to every subscribed session (spec §5 responsibility (e),
// "Room routing").
func (s *Server) ensureListener(parent context.Context, symbol string, tf instrument.TimeFrame) {
	room := roomKey(symbol, tf)
	s.listenersMu.Lock()
	if _, ok := s.listeners[room]; ok {
		s.listenersMu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.listeners[room] = cancel
	s.listenersMu.Unlock()

	go s.runListener(ctx, room, symbol, tf)
}

func (s *Server) runListener(ctx context.Context, room, symbol string, tf instrument.TimeFrame) {
	defer func() {
		s.listenersMu.Lock()
		delete(s.listeners, room)
		s.listenersMu.Unlock()
	}()

	stream, err := s.broker.Stream(ctx, symbol, tf)
	if err != nil {
		s.log.WithError(err).Warn("failed to start broker stream", "room", room)
		return
	}

	var keepaliveC <-chan time.Time
	if s.keepaliveInterval > 0 {
		keepalive := time.NewTicker(s.keepaliveInterval)
		defer keepalive.Stop()
		keepaliveC = keepalive.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepaliveC:
			if err := s.broker.Ping(ctx); err != nil {
				s.log.WithError(err).Warn("broker keepalive failed", "room", room)
				s.broadcastReconnect(room)
				return
			}
		case tick, ok := <-stream:
			if !ok {
				// Broker stream closed: tell every subscriber to
				// reconnect, preserving history (spec §5 Cancellation).
				s.broadcastReconnect(room)
				return
			}
			s.broadcastStream(room, tick)
		}
	}
}

func (s *Server) broadcastStream(room string, tick candle.Tick) {
	payload := marshal(bot.StreamResponsePayload{
		Ask: tick.Ask, Bid: tick.Bid, High: tick.High, Low: tick.Low, Close: tick.Close, Volume: tick.Volume,
		Timestamp: tick.Timestamp.UnixMilli(),
	})
	s.fanOut(room, bot.Response{Response: bot.ResponseStreamResponse, Payload: payload})
}

func (s *Server) broadcastReconnect(room string) {
	payload := marshal(bot.ReconnectPayload{CleanData: false})
	s.fanOut(room, bot.Response{Response: bot.ResponseReconnect, Payload: payload})
}

func (s *Server) fanOut(room string, resp bot.Response) {
	for _, id := range s.rooms.snapshot(room) {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		if resp.Response == bot.ResponseStreamResponse {
			sess.lastData = time.Now()
		}
		if !sess.tryFanOut(resp) {
			s.removeSession(id)
		}
	}
}

func (s *Server) handleExecutePosition(ctx context.Context, sess *session, data json.RawMessage) error {
	var req bot.ExecutePositionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode execute position: %w", err)
	}
	symbol, _ := splitRoom(sess.room)

	pos := toPosition(req)
	in, out, err := s.broker.Execute(ctx, symbol, pos)
	if err != nil {
		return fmt.Errorf("broker execute: %w", err)
	}
	if req.TradeIn != nil {
		sess.tryFanOut(bot.Response{Response: bot.ResponseExecuteTradeIn, Payload: marshal(in)})
	}
	if req.TradeOut != nil {
		sess.tryFanOut(bot.Response{Response: bot.ResponseExecuteTradeOut, Payload: marshal(out)})
	}
	return nil
}

func (s *Server) handleUpdateBotData(ctx context.Context, _ *session, data json.RawMessage) error {
	var snap bot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return s.store.Upsert(ctx, snap)
}

func toPosition(req bot.ExecutePositionRequest) trade.Position {
	pos := trade.Position{Kind: req.Kind, Orders: req.Orders}
	if req.TradeIn != nil {
		pos.TradeIn = *req.TradeIn
	}
	if req.TradeOut != nil {
		pos.TradeOut = *req.TradeOut
	}
	return pos
}

func splitRoom(room string) (symbol string, tf instrument.TimeFrame) {
	for i := len(room) - 1; i >= 0; i-- {
		if room[i] == '_' {
			return room[:i], instrument.TimeFrame(room[i+1:])
		}
	}
	return room, ""
}

func marshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
