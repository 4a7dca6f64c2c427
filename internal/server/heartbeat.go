package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vireo-trade/tradecore/internal/bot"
	"github.com/vireo-trade/tradecore/internal/telemetry"
)

// superviseHeartbeats implements spec §4.5 Heartbeat: every interval,
// ping every session (liveness) and separately evaluate the dead-
// session rule against last_data/market_hours (data staleness),
// grounded on the original heart_beat.rs loop.
func (s *Server) superviseHeartbeats(interval, lastDataTimeout time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.pingSessions()
			s.dropStaleSessions(lastDataTimeout)
		}
	}
}

func (s *Server) pingSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.lastPing = time.Now()
		_ = sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
	}
}

// dropStaleSessions implements the scenario S3 rule verbatim: a
// session is dead when now-last_data exceeds LAST_DATA_TIMEOUT AND its
// market is currently open. Dead sessions get Reconnect{clean_data:
// true} and are removed; sessions whose market is closed are left
// idle, matching heart_beat.rs's "session KO while market is open"
// guard. Sessions that never finished InitSession (no symbol yet) are
// skipped, mirroring the original's `symbol() != "init"` check.
func (s *Server) dropStaleSessions(lastDataTimeout time.Duration) {
	now := time.Now()

	s.mu.Lock()
	stale := make([]uuid.UUID, 0)
	for id, sess := range s.sessions {
		if sess.symbol == "" {
			continue
		}
		if now.Sub(sess.lastData) <= lastDataTimeout {
			continue
		}
		if !sess.marketHours.IsOpen(now) {
			continue
		}
		sess.clientStatus = ClientDown
		stale = append(stale, id)
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.log.Warn("dropping session on last-data timeout", "bot_uuid", id.String())
		telemetry.ServerHeartbeatTimeouts.Inc()

		s.mu.Lock()
		sess, ok := s.sessions[id]
		s.mu.Unlock()
		if ok {
			sess.tryFanOut(bot.Response{Response: bot.ResponseReconnect, Payload: marshal(bot.ReconnectPayload{CleanData: true})})
		}
		s.removeSession(id)
	}
}
