// Command bot runs a single BotCore process for one
// (symbol, time_frame, strategy, strategy_type) tuple.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vireo-trade/tradecore/internal/bot"
	"github.com/vireo-trade/tradecore/internal/config"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/logger"
	"github.com/vireo-trade/tradecore/internal/strategy"
	"github.com/vireo-trade/tradecore/internal/strategy/bbreversals"
	"github.com/vireo-trade/tradecore/internal/strategy/numbars"
	"github.com/vireo-trade/tradecore/internal/trade"
)

var market = flag.String("market", "forex", "asset class: forex, crypto, stock")

func main() {
	flag.Parse()
	config.LoadDotEnv()

	cfg, err := config.LoadBot()
	if err != nil {
		fmt.Fprintln(os.Stderr, "tradecore-bot:", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Format: cfg.LogFormat, Level: slog.LevelInfo}).Component("bot").Symbol(cfg.Symbol)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.WithError(http.ListenAndServe(cfg.MetricsAddr, nil)).Warn("metrics server stopped")
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strategyType := strategy.ParseType(cfg.StrategyType)
	strat, htfCfg, err := buildStrategy(cfg, strategyType)
	if err != nil {
		log.WithError(err).Warn("failed to build strategy")
		os.Exit(1)
	}

	var htf *instrument.HTFInstrument
	if strategyType.RequiresHTF() {
		htf, err = instrument.NewHTF(cfg.Symbol, parseMarket(*market), instrument.TimeFrame(cfg.HigherTimeFrame))
		if err != nil {
			log.WithError(err).Warn("failed to build higher time-frame instrument")
			os.Exit(1)
		}
	}
	_ = htfCfg

	transport, err := bot.NewWSTransport(ctx, cfg.WSServerURL, log)
	if err != nil {
		log.WithError(err).Warn("failed to connect to session server")
		os.Exit(1)
	}
	defer transport.Close()

	core, err := bot.NewCore(bot.Config{
		Identity: bot.Identity{
			Symbol: cfg.Symbol, StrategyName: cfg.StrategyName,
			TimeFrame: instrument.TimeFrame(cfg.TimeFrame), StrategyType: strategyType,
		},
		Market:                 parseMarket(*market),
		MaxHistoricalPositions: cfg.MaxHistoricalPositions,
		OverwriteOrders:        cfg.OverwriteOrders,
		Equity:                 cfg.Equity,
		Commission:             cfg.Commission,
	}, strat, htf, transport, log)
	if err != nil {
		log.WithError(err).Warn("failed to build bot core")
		os.Exit(1)
	}

	log.Info("bot starting", "uuid", core.UUID().String())
	if err := core.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Warn("bot exited with error")
		os.Exit(1)
	}
}

func buildStrategy(cfg *config.BotConfig, st strategy.Type) (strategy.Strategy, strategy.Config, error) {
	scfg := strategy.Config{
		Symbol: cfg.Symbol, OrderSize: cfg.OrderSize, Equity: cfg.Equity, Commission: cfg.Commission,
		RiskRewardRatio: cfg.RiskRewardRatio, PipsProfitTarget: cfg.PipsProfitTarget, PipsStopLoss: cfg.PipsStopLoss,
		PipsMargin: cfg.PipsMargin, AtrStopLoss: cfg.AtrStopLoss, AtrProfitTarget: cfg.AtrProfitTarget,
		EMAPercentageDis: cfg.EMAPercentageDis,
	}
	if cfg.UseAtrStopLoss {
		scfg.StopLossType = trade.StopLossAtr
	} else {
		scfg.StopLossType = trade.StopLossPips
	}

	switch cfg.StrategyName {
	case "BB_Reversals":
		strat, err := bbreversals.New(scfg, st, instrument.TimeFrame(cfg.TimeFrame), instrument.TimeFrame(cfg.HigherTimeFrame))
		return strat, scfg, err
	default:
		strat, err := numbars.New(scfg, st, instrument.TimeFrame(cfg.TimeFrame))
		return strat, scfg, err
	}
}

func parseMarket(s string) instrument.Market {
	switch s {
	case "crypto":
		return instrument.MarketCrypto
	case "stock":
		return instrument.MarketStock
	default:
		return instrument.MarketForex
	}
}
