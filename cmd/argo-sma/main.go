package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/version"
	"github.com/urfave/cli/v3"
)

var logLevelFlag = &cli.StringFlag{
	Name:  "log-level",
	Usage: "Log level (debug, info, warn, error)",
	Value: "info",
}

// newLogger builds the zap logger at the level selected on the command line.
func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	return logger.NewLoggerWithLevel(cmd.String("log-level"))
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-sma",
		Usage:   "SMA crossover signal engine with backtest and live hosts",
		Version: version.GetVersion(),
		Flags:   []cli.Flag{logLevelFlag},
		Commands: []*cli.Command{
			backtestCommand(),
			optimizeCommand(),
			liveCommand(),
			downloadCommand(),
			schemaCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
