// Package config loads environment-variable configuration for both
// binaries, frozen once at process start. Variable names match the
// core's env var reference exactly; missing required vars are fatal at
// startup (spec §6/§7).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// BotConfig is the environment-derived configuration for cmd/bot.
type BotConfig struct {
	WSServerURL  string
	WSServerHost string
	WSServerPort int

	MaxHistoricalPositions int
	OverwriteOrders        bool
	TimeFrame              string
	HigherTimeFrame        string
	StrategyType           string

	OrderSize        float64
	Equity           float64
	Commission       float64
	RiskRewardRatio  float64
	PipsProfitTarget float64
	PipsStopLoss     float64
	PipsMargin       float64
	UseAtrStopLoss   bool
	AtrStopLoss      float64
	AtrProfitTarget  float64
	EMAPercentageDis float64

	ExecutionMode string

	Symbol       string
	StrategyName string
	MetricsAddr  string
	LogFormat    string
}

// ServerConfig is the environment-derived configuration for cmd/server.
type ServerConfig struct {
	WSServerHost string
	WSServerPort int

	HeartbeatInterval  int // seconds
	HBClientTimeout    int // seconds
	LastDataTimeout    int // seconds
	KeepaliveInterval  int // milliseconds

	BrokerUsername string
	BrokerPassword string

	BackendHistoricDataFolder string
	MongoBotDBName            string
	DBBotCollection           string

	MetricsAddr string
	LogFormat   string
}

// LoadDotEnv loads a .env file if present; a missing file is not an
// error.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// LoadBot reads BotConfig from the environment (spec §6).
func LoadBot() (*BotConfig, error) {
	var missing []string
	require := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &BotConfig{
		WSServerURL:            require("WS_SERVER_URL"),
		WSServerHost:           getEnv("WS_SERVER_HOST", "localhost"),
		WSServerPort:           getEnvInt("WS_SERVER_PORT", 8080),
		MaxHistoricalPositions: getEnvInt("MAX_HISTORICAL_POSITIONS", 500),
		OverwriteOrders:        getEnvBool("OVERWRITE_ORDERS", false),
		TimeFrame:              require("TIME_FRAME"),
		HigherTimeFrame:        os.Getenv("HIGHER_TIME_FRAME"),
		StrategyType:           require("STRATEGY_TYPE"),
		OrderSize:              getEnvFloat("ORDER_SIZE", 1),
		Equity:                 getEnvFloat("EQUITY", 10000),
		Commission:             getEnvFloat("COMMISSION", 0),
		RiskRewardRatio:        getEnvFloat("RISK_REWARD_RATIO", 2),
		PipsProfitTarget:       getEnvFloat("PIPS_PROFIT_TARGET", 0),
		PipsStopLoss:           getEnvFloat("PIPS_STOP_LOSS", 0),
		PipsMargin:             getEnvFloat("PIPS_MARGIN", 0),
		UseAtrStopLoss:         getEnvBool("ATR_STOP_LOSS", false),
		AtrStopLoss:            getEnvFloat("ATR_STOPLOSS", 0),
		AtrProfitTarget:        getEnvFloat("ATR_PROFIT_TARGET", 0),
		EMAPercentageDis:       getEnvFloat("EMA_PERCENTAGE_DIS", 0),
		ExecutionMode:          getEnv("EXECUTION_MODE", "paper"),
		Symbol:                 require("SYMBOL"),
		StrategyName:           require("STRATEGY_NAME"),
		MetricsAddr:            getEnv("METRICS_ADDR", ":9101"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}
	return cfg, nil
}

// LoadServer reads ServerConfig from the environment (spec §6).
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		WSServerHost:              getEnv("WS_SERVER_HOST", "0.0.0.0"),
		WSServerPort:              getEnvInt("WS_SERVER_PORT", 8080),
		HeartbeatInterval:         getEnvInt("HEARTBEAT_INTERVAL", 5),
		HBClientTimeout:           getEnvInt("HB_CLIENT_TIMEOUT", 10),
		LastDataTimeout:           getEnvInt("LAST_DATA_TIMEOUT", 60),
		KeepaliveInterval:         getEnvInt("KEEPALIVE_INTERVAL", 15000),
		BrokerUsername:            os.Getenv("BROKER_USERNAME"),
		BrokerPassword:            os.Getenv("BROKER_PASSWORD"),
		BackendHistoricDataFolder: getEnv("BACKEND_HISTORIC_DATA_FOLDER", "./data/historic"),
		MongoBotDBName:            getEnv("MONGO_BOT_DB_NAME", "tradecore"),
		DBBotCollection:           getEnv("DB_BOT_COLLECTION", "bots"),
		MetricsAddr:               getEnv("METRICS_ADDR", ":9100"),
		LogFormat:                 getEnv("LOG_FORMAT", "json"),
	}
	if cfg.HBClientTimeout <= cfg.HeartbeatInterval {
		return nil, fmt.Errorf("HB_CLIENT_TIMEOUT must exceed HEARTBEAT_INTERVAL")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
