// Package telemetry exposes Prometheus metrics for both binaries,
// grounded on the pack's real client_golang usage rather than the
// teacher's hand-rolled in-memory counters: bot-side trade/order/tick
// counters and server-side session/room gauges, served over /metrics
// in each binary's main.go.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	// BotTicksTotal counts stream ticks processed per bot identity.
	BotTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradecore_bot_ticks_total", Help: "Ticks processed by a bot."},
		[]string{"symbol", "time_frame"},
	)

	// BotPositionsOpened counts MarketIn/MarketInOrder applications.
	BotPositionsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradecore_bot_positions_opened_total", Help: "Positions opened."},
		[]string{"symbol", "strategy"},
	)

	// BotPositionsClosed counts MarketOut/MarketOutOrder applications,
	// split by whether the close was a stop-loss.
	BotPositionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradecore_bot_positions_closed_total", Help: "Positions closed."},
		[]string{"symbol", "strategy", "reason"},
	)

	// BotNetProfit mirrors the latest StrategyStats.NetProfit.
	BotNetProfit = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "tradecore_bot_net_profit", Help: "Latest net profit snapshot."},
		[]string{"symbol", "strategy"},
	)

	// BotFundsExhausted flips to 1 when ThereAreFunds trips the
	// circuit breaker, 0 otherwise.
	BotFundsExhausted = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "tradecore_bot_funds_exhausted", Help: "1 if the -90% drawdown circuit breaker is tripped."},
		[]string{"symbol", "strategy"},
	)

	// ServerSessionsConnected is the live bot-session gauge.
	ServerSessionsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "tradecore_server_sessions_connected", Help: "Currently connected bot sessions."},
	)

	// ServerRoomSubscribers tracks subscriber count per room.
	ServerRoomSubscribers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "tradecore_server_room_subscribers", Help: "Bots subscribed to a symbol/time_frame room."},
		[]string{"room"},
	)

	// ServerHeartbeatTimeouts counts sessions the heartbeat supervisor
	// dropped because no stream data reached them within
	// LAST_DATA_TIMEOUT while their market was open.
	ServerHeartbeatTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tradecore_server_heartbeat_timeouts_total", Help: "Sessions dropped on last-data timeout."},
	)

	// ServerCommandsRateLimited counts commands rejected by the
	// per-session rate limiter.
	ServerCommandsRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradecore_server_commands_rate_limited_total", Help: "Commands rejected by the rate limiter."},
		[]string{"command"},
	)
)

func init() {
	prometheus.MustRegister(
		BotTicksTotal, BotPositionsOpened, BotPositionsClosed, BotNetProfit, BotFundsExhausted,
		ServerSessionsConnected, ServerRoomSubscribers, ServerHeartbeatTimeouts, ServerCommandsRateLimited,
	)
}
