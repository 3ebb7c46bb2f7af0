package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunovale/bolsa/params"
	"github.com/brunovale/bolsa/pkg/api"
	"github.com/brunovale/bolsa/pkg/exchange"
	"github.com/brunovale/bolsa/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.Server.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Server.LogFile)

	seed := make([]exchange.Instrument, len(cfg.Instruments))
	for i, in := range cfg.Instruments {
		seed[i] = exchange.Instrument{Symbol: in.Symbol, Name: in.Name, Price: in.Price}
	}

	ex, err := exchange.New(seed, exchange.SimConfig{
		MinTick:     cfg.Sim.MinTick,
		MaxTick:     cfg.Sim.MaxTick,
		MaxDriftPct: cfg.Sim.MaxDriftPct,
	}, cfg.Server.SubQueueSize, util.RealClock{}, sugar)
	if err != nil {
		sugar.Fatalw("exchange_init_failed", "err", err)
	}
	sugar.Infow("exchange_seeded", "instruments", len(seed))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex.Start(ctx)

	server := api.NewServer(ex, sugar)
	go func() {
		if err := server.Start(cfg.Server.ListenAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
	ex.Close()
}
