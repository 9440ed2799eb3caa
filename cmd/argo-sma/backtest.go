package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-sma/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-sma/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-sma/internal/strategy"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

var backtestFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the backtest engine `YAML` config; defaults apply when omitted",
	},
	&cli.StringFlag{
		Name:     "data",
		Aliases:  []string{"d"},
		Usage:    "Market data files, glob patterns allowed (e.g. data/*.parquet)",
		Required: true,
	},
	&cli.StringFlag{
		Name:    "results",
		Aliases: []string{"r"},
		Usage:   "Directory the run results are written to",
		Value:   "results",
	},
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Run the SMA crossover strategy over historical bars with analytics",
		Flags: append(append([]cli.Flag{}, backtestFlags...),
			&cli.IntFlag{
				Name:    "period",
				Aliases: []string{"p"},
				Usage:   "SMA period; replaces the strategy section of the config file",
			},
			&cli.BoolFlag{
				Name:  "print-log",
				Usage: "Log every bar and order event; replaces the strategy section of the config file",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide the progress bar",
			},
		),
		Action: backtestAction,
	}
}

// newBacktestEngine loads the config file and the data paths shared by backtest and optimize.
func newBacktestEngine(cmd *cli.Command) (*enginev1.BacktestEngineV1, error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	config := ""

	if path := cmd.String("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		config = string(data)
	}

	backtester, ok := enginev1.NewBacktestEngineV1().(*enginev1.BacktestEngineV1)
	if !ok {
		return nil, fmt.Errorf("unexpected backtest engine type")
	}

	backtester.SetLogger(log)

	if err := backtester.Initialize(config); err != nil {
		return nil, fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.SetDataPath(cmd.String("data")); err != nil {
		return nil, err
	}

	if err := backtester.SetResultsFolder(cmd.String("results")); err != nil {
		return nil, err
	}

	return backtester, nil
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	backtester, err := newBacktestEngine(cmd)
	if err != nil {
		return err
	}

	if cmd.IsSet("period") || cmd.IsSet("print-log") {
		config := strategy.DefaultBacktestConfig()
		config.PrintLog = cmd.Bool("print-log")

		if cmd.IsSet("period") {
			config.Period = int(cmd.Int("period"))
		}

		if err := backtester.SetStrategyConfig(config); err != nil {
			return err
		}
	}

	callbacks := engine.LifecycleCallbacks{}
	if !cmd.Bool("no-progress") {
		callbacks = progressCallbacks()
	}

	stats, err := backtester.Run(ctx, callbacks)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	for _, s := range stats {
		fmt.Printf("Results of %s written next to %s\n", s.DataPath, s.TradesFilePath)
	}

	return nil
}

// progressCallbacks renders one progress bar per run.
func progressCallbacks() engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, period int, _ int, dataFilePath string, totalDataPoints int) error {
		bar = progressbar.Default(int64(totalDataPoints), fmt.Sprintf("period %d %s", period, dataFilePath))

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current int, _ int) error {
		if bar == nil {
			return nil
		}

		return bar.Set(current)
	})
	onRunEnd := engine.OnRunEndCallback(func(_ string, _ int, _ string, _ string) {
		if bar != nil {
			_ = bar.Finish()
			bar = nil
		}
	})

	return engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	}
}
