// Package server implements SessionServer: the process that terminates
// broker connectivity, fans out market data to bots, persists bot
// snapshots, and supervises per-bot heartbeats (spec §5).
package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vireo-trade/tradecore/internal/bot"
	"github.com/vireo-trade/tradecore/internal/instrument"
)

// ClientStatus mirrors spec §3 Session's client_status enum.
type ClientStatus int

const (
	ClientConnecting ClientStatus = iota
	ClientUp
	ClientDown
)

// session is one bot connection: the full spec §3 Session data model
// plus the websocket plumbing. Reads happen on the connection's own
// goroutine; writes are serialized through send to satisfy gorilla's
// single-writer requirement.
type session struct {
	id   uuid.UUID
	conn *websocket.Conn

	mu   sync.Mutex
	send chan bot.Response

	room string

	symbol       string
	strategy     string
	strategyType string
	timeFrame    instrument.TimeFrame
	started      time.Time

	lastPing     time.Time
	lastPong     time.Time
	lastData     time.Time
	clientStatus ClientStatus
	marketHours  MarketHours
}

func newSession(conn *websocket.Conn) *session {
	now := time.Now()
	return &session{
		conn: conn, send: make(chan bot.Response, 64),
		started: now, lastPing: now, lastPong: now, lastData: now,
		clientStatus: ClientConnecting,
	}
}

// writeLoop drains send and writes frames to the connection until send
// is closed. Must run on its own goroutine (spec §5 "stream side is
// owned exclusively by one listener task" — here, one writer per
// session mirrors that exclusivity for the per-session outbound side).
func (s *session) writeLoop() {
	for resp := range s.send {
		s.mu.Lock()
		err := s.conn.WriteJSON(resp)
		s.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// tryFanOut sends resp without blocking the caller indefinitely; a
// full buffer indicates a stalled session and is treated as a
// disconnect signal by the caller (spec §5 cancellation: "observes a
// send error on next fan-out and removes the session").
func (s *session) tryFanOut(resp bot.Response) bool {
	select {
	case s.send <- resp:
		return true
	default:
		return false
	}
}

func (s *session) close() {
	close(s.send)
	_ = s.conn.Close()
}
