// Command server runs the SessionServer: the WS endpoint every BotCore
// connects to, plus room routing, heartbeat supervision, and the bot
// state store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vireo-trade/tradecore/internal/broker"
	"github.com/vireo-trade/tradecore/internal/config"
	"github.com/vireo-trade/tradecore/internal/logger"
	"github.com/vireo-trade/tradecore/internal/server"
	"github.com/vireo-trade/tradecore/internal/store"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "tradecore-server:", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Format: cfg.LogFormat, Level: slog.LevelInfo}).Component("server")

	st, err := store.NewFileStore(cfg.BackendHistoricDataFolder + "/bots")
	if err != nil {
		log.WithError(err).Warn("failed to open bot state store")
		os.Exit(1)
	}
	// No real upstream market-data adapter ships with this module (spec
	// §1 Non-goals); Paper generates synthetic ticks (and serves no
	// historical candles) so the server is runnable standalone.
	brk := broker.NewPaper(1.1, 0.0002)

	srv := server.New(brk, st, log, time.Duration(cfg.KeepaliveInterval)*time.Millisecond)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWS)
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.WSServerHost, cfg.WSServerPort)
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("session server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("http server stopped")
		}
	}()

	go srv.Run(ctx, time.Duration(cfg.HeartbeatInterval)*time.Second, time.Duration(cfg.LastDataTimeout)*time.Second)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
