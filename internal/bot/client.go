package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vireo-trade/tradecore/internal/circuitbreaker"
	"github.com/vireo-trade/tradecore/internal/logger"
)

// WSTransport is the gorilla/websocket-backed Transport BotCore uses in
// production. Reconnection with exponential backoff is handled inside
// Recv: a failed read redials before surfacing Connected again, so a
// caller looping on Recv sees a transparent Reconnect-equivalent
// sequence without tearing down BotCore itself (spec §4.1, S3). Redial
// attempts are additionally guarded by a circuit breaker so a session
// server that is down hard doesn't get hammered with dial attempts
// every backoff tick (spec §7 "backoff reconnect attempts").
type WSTransport struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn

	maxBackoff time.Duration
	breaker    *circuitbreaker.Breaker
}

// NewWSTransport dials url immediately; callers get a ready-to-use
// Transport or a dial error.
func NewWSTransport(ctx context.Context, url string, log *logger.Logger) (*WSTransport, error) {
	t := &WSTransport{
		url:        url,
		maxBackoff: 30 * time.Second,
		breaker:    circuitbreaker.New("session-server", circuitbreaker.DefaultConfig(), log),
	}
	if err := t.dial(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *WSTransport) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.url, err)
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

// Send writes one Command as a JSON text frame.
func (t *WSTransport) Send(ctx context.Context, cmd Command) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transport not connected")
	}
	b, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Recv blocks for the next Response, transparently redialing with
// exponential backoff (capped at maxBackoff) if the connection drops,
// until ctx is cancelled.
func (t *WSTransport) Recv(ctx context.Context) (Response, error) {
	backoff := time.Second
	for {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()

		if conn != nil {
			_, raw, err := conn.ReadMessage()
			if err == nil {
				var resp Response
				if uerr := json.Unmarshal(raw, &resp); uerr != nil {
					return Response{}, fmt.Errorf("decode response: %w", uerr)
				}
				return resp, nil
			}
		}

		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(backoff):
		}
		if err := t.breaker.Execute(ctx, t.dial); err != nil {
			if !errors.Is(err, circuitbreaker.ErrOpen) && !errors.Is(err, circuitbreaker.ErrProbeInFlight) {
				backoff *= 2
				if backoff > t.maxBackoff {
					backoff = t.maxBackoff
				}
			}
			continue
		}
		backoff = time.Second
	}
}

// Close tears down the underlying connection.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
