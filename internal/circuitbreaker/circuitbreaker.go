// Package circuitbreaker guards repeated reconnect attempts against a
// session server or broker feed: after MaxFailures consecutive dial
// failures it stops trying for Timeout, then allows one probe through
// before fully reopening (spec §7 "backoff reconnect attempts").
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vireo-trade/tradecore/internal/logger"
)

// State is one of Closed (allowing), Open (rejecting), HalfOpen
// (probing).
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrOpen is returned when the breaker is rejecting calls.
	ErrOpen = errors.New("circuit breaker is open")
	// ErrProbeInFlight is returned when a half-open probe is already running.
	ErrProbeInFlight = errors.New("circuit breaker probe already in flight")
)

// Config tunes the breaker.
type Config struct {
	MaxFailures uint32
	Timeout     time.Duration
}

// DefaultConfig matches a reconnect loop: five consecutive failures
// opens the breaker for a minute.
func DefaultConfig() Config {
	return Config{MaxFailures: 5, Timeout: time.Minute}
}

// Breaker wraps a named resource (e.g. "session-server",
// "broker-feed") whose calls should be guarded.
type Breaker struct {
	name string
	cfg  Config
	log  *logger.Logger

	mu              sync.Mutex
	state           State
	failures        uint32
	lastFailure     time.Time
	probeInFlight   bool
}

// New creates a Breaker in the Closed state.
func New(name string, cfg Config, log *logger.Logger) *Breaker {
	return &Breaker{name: name, cfg: cfg, log: log.Component("circuit-breaker").WithFields(map[string]any{"breaker": name})}
}

// Execute runs fn if the breaker allows it, recording the outcome.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn(ctx)
	b.after(err)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.lastFailure) <= b.cfg.Timeout {
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.probeInFlight = true
		b.log.Info("transitioning to half-open", "timeout", b.cfg.Timeout)
		return nil
	case StateHalfOpen:
		if b.probeInFlight {
			return ErrProbeInFlight
		}
		b.probeInFlight = true
		return nil
	default:
		return fmt.Errorf("unknown circuit breaker state: %v", b.state)
	}
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.probeInFlight = false
		b.failures = 0
		if b.state != StateClosed {
			b.state = StateClosed
			b.log.Info("closed after successful probe")
		}
		return
	}

	b.failures++
	b.lastFailure = time.Now()
	b.probeInFlight = false

	switch b.state {
	case StateClosed:
		if b.failures >= b.cfg.MaxFailures {
			b.state = StateOpen
			b.log.Warn("opened after repeated failures", "failures", b.failures)
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.log.Warn("reopened after failed probe")
	}
}

// State reports the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
