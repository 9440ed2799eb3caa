package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/rxtech-lab/argo-sma/internal/backtest/engine"
	"github.com/rxtech-lab/argo-sma/internal/report"
	"github.com/urfave/cli/v3"
)

// Default sweep covers periods 10 to 30, both ends included.
const (
	defaultMinPeriod = 10
	defaultMaxPeriod = 30
)

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Run one backtest per SMA period without analytics and print the ending values",
		Flags: append(append([]cli.Flag{}, backtestFlags...),
			&cli.IntFlag{
				Name:  "min-period",
				Usage: "Smallest SMA period",
				Value: defaultMinPeriod,
			},
			&cli.IntFlag{
				Name:  "max-period",
				Usage: "Largest SMA period, included in the sweep",
				Value: defaultMaxPeriod,
			},
		),
		Action: optimizeAction,
	}
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	backtester, err := newBacktestEngine(cmd)
	if err != nil {
		return err
	}

	results, err := backtester.Optimize(ctx, int(cmd.Int("min-period")), int(cmd.Int("max-period")), engine.LifecycleCallbacks{})
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}

	if len(results) == 0 {
		return nil
	}

	best := append([]engine.OptimizeResult(nil), results...)
	sort.SliceStable(best, func(i, j int) bool { return best[i].FinalValue > best[j].FinalValue })

	return report.PrintTable(os.Stdout,
		[]string{"Best Period", "Ending Value", "Data"},
		[]string{strconv.Itoa(best[0].Period), strconv.FormatFloat(best[0].FinalValue, 'f', 2, 64), best[0].DataPath},
	)
}
