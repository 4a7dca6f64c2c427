package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadServerRejectsTimeoutNotExceedingHeartbeat(t *testing.T) {
	t.Setenv("HEARTBEAT_INTERVAL", "10")
	t.Setenv("HB_CLIENT_TIMEOUT", "5")
	_, err := LoadServer()
	require.Error(t, err)
}

func TestLoadBotFailsFastOnMissingRequiredVars(t *testing.T) {
	_, err := LoadBot()
	require.Error(t, err)
}

func TestLoadBotSucceedsWithRequiredVarsSet(t *testing.T) {
	t.Setenv("WS_SERVER_URL", "ws://localhost:8080/ws")
	t.Setenv("TIME_FRAME", "M5")
	t.Setenv("STRATEGY_TYPE", "OnlyLong")
	t.Setenv("SYMBOL", "EURUSD")
	t.Setenv("STRATEGY_NAME", "NumBars")
	cfg, err := LoadBot()
	require.NoError(t, err)
	require.Equal(t, "EURUSD", cfg.Symbol)
}
