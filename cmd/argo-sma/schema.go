package main

import (
	"context"
	"fmt"

	enginev1 "github.com/rxtech-lab/argo-sma/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-sma/internal/trading/engine"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the backtest or live configuration",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "live",
				Usage: "Print the live engine configuration schema",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var (
				schema string
				err    error
			)

			if cmd.Bool("live") {
				schema, err = engine.GetConfigSchema()
			} else {
				schema, err = enginev1.NewBacktestEngineV1().GetConfigSchema()
			}

			if err != nil {
				return err
			}

			fmt.Println(schema)

			return nil
		},
	}
}
