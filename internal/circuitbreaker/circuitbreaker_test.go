package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vireo-trade/tradecore/internal/logger"
)

func TestOpensAfterMaxFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 2, Timeout: time.Hour}, logger.New(nil))
	boom := errors.New("boom")

	_ = b.Execute(context.Background(), func(context.Context) error { return boom })
	require.Equal(t, StateClosed, b.State())
	_ = b.Execute(context.Background(), func(context.Context) error { return boom })
	require.Equal(t, StateOpen, b.State())

	err := b.Execute(context.Background(), func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrOpen)
}

func TestHalfOpenProbeCloses(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, Timeout: time.Millisecond}, logger.New(nil))
	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(2 * time.Millisecond)
	err := b.Execute(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, StateClosed, b.State())
}
