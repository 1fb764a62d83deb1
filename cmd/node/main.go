package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pviana/matchbook/params"
	"github.com/pviana/matchbook/pkg/api"
	"github.com/pviana/matchbook/pkg/book"
	"github.com/pviana/matchbook/pkg/trades"
	"github.com/pviana/matchbook/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.LogFile)

	// ---- Trade history (pebble) ----
	store, err := trades.Open(cfg.Storage.TradeDB)
	if err != nil {
		sugar.Fatalw("trade_store_open_failed", "path", cfg.Storage.TradeDB, "err", err)
	}
	defer store.Close()

	// ---- WebSocket trade feed ----
	hub := api.NewHub(sugar)

	// The engine posts every trade to the persistent store first, then the
	// live feed. A store failure aborts the match; the feed never fails.
	sink := trades.Tee{store, hub}

	// ---- Matching engine ----
	b := book.New(cfg.Engine.Asset, sink, book.WithLogger(sugar))
	sugar.Infow("book_initialized", "asset", cfg.Engine.Asset)

	// ---- API server ----
	server := api.NewServer(b, store, hub, cfg.Engine.SnapshotDepth, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(cfg.API.ListenAddr, cfg.API.AllowedOrigins); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("node_started",
		"asset", cfg.Engine.Asset,
		"api_addr", cfg.API.ListenAddr,
		"trade_db", cfg.Storage.TradeDB)

	<-ctx.Done()
	sugar.Info("shutting down")
}
