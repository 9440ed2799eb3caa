package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-sma/internal/trading/engine"
	enginev1 "github.com/rxtech-lab/argo-sma/internal/trading/engine/engine_v1"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

func liveCommand() *cli.Command {
	return &cli.Command{
		Name:  "live",
		Usage: "Backfill then stream bars from an exchange and paper trade the SMA crossover",
		Description: "Configuration is read from ARGO_SMA_* environment variables. " +
			"Files given with --env-file are loaded first and never override variables already set.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files to load",
				Value: []string{".env"},
			},
		},
		Action: liveAction,
	}
}

func liveAction(ctx context.Context, cmd *cli.Command) error {
	config, err := engine.LoadConfig(cmd.StringSlice("env-file")...)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	marketDataProvider, err := provider.NewMarketDataProvider(config.Provider, config.PolygonApiKey)
	if err != nil {
		return fmt.Errorf("failed to create market data provider: %w", err)
	}

	eng := enginev1.NewLiveTradingEngineV1WithLogger(log)
	if err := eng.Initialize(config); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	if err := eng.SetMarketDataProvider(marketDataProvider); err != nil {
		return err
	}

	onStart := engine.OnEngineStartCallback(func(symbols []string, interval string) error {
		fmt.Printf("Engine started: symbols=%v, interval=%s\n", symbols, interval)

		return nil
	})
	onStop := engine.OnEngineStopCallback(func(err error) {
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Printf("Engine stopped with error: %v\n", err)

			return
		}

		fmt.Println("Engine stopped")
	})
	onOrder := engine.OnOrderCallback(func(order types.Order) error {
		fmt.Printf("Order %s: %s %s %.4f\n", order.Status, order.Side, order.Symbol, order.Quantity)

		return nil
	})
	onStatus := engine.OnStatusUpdateCallback(func(status types.EngineStatus) error {
		fmt.Printf("Status: %s\n", status)

		return nil
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = eng.Run(ctx, engine.LiveTradingCallbacks{
		OnEngineStart:  &onStart,
		OnEngineStop:   &onStop,
		OnOrder:        &onOrder,
		OnStatusUpdate: &onStatus,
	})
	if errors.Is(err, context.Canceled) {
		fmt.Println("Trading stopped by user")

		return nil
	}

	return err
}
