// randcast-node is the CLI entry point for the threshold-BLS randomness
// node: new-run bootstraps a fresh identity and registers on chain, re-run
// resumes from the persisted data file, demo runs entirely in memory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clockwork "github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v2"

	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/node"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "path to the node's TOML configuration file",
	Value:   "config.toml",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "enable debug logging",
}

func main() {
	app := &cli.App{
		Name:  "randcast-node",
		Usage: "threshold-BLS randomness beacon node",
		Flags: []cli.Flag{configFlag, verboseFlag},
		Commands: []*cli.Command{
			{
				Name:   "new-run",
				Usage:  "bootstrap a fresh node: back up any data file, generate a DKG keypair, register on chain",
				Action: runAction(node.ModeNewRun),
			},
			{
				Name:   "re-run",
				Usage:  "resume from the existing data file",
				Action: runAction(node.ModeReRun),
			},
			{
				Name:   "demo",
				Usage:  "run with in-memory caches only",
				Action: runAction(node.ModeDemo),
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(mode node.Mode) cli.ActionFunc {
	return func(c *cli.Context) error {
		level := log.InfoLevel
		if c.Bool(verboseFlag.Name) {
			level = log.DebugLevel
		}
		l := log.New(os.Stdout, level, true).Named("randcast-node")

		cfg, err := node.Load(c.String(configFlag.Name))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(c.Context)
		defer cancel()

		nodeCtx, cleanup, err := node.Bootstrap(ctx, l, clockwork.NewRealClock(), cfg, mode)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := nodeCtx.Start(ctx); err != nil {
			nodeCtx.Stop()
			return err
		}
		l.Infow("node started", "mode", string(mode), "chains", nodeCtx.ChainIDs())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			l.Infow("shutting down", "signal", sig.String())
		case <-ctx.Done():
		}

		cancel()
		nodeCtx.Stop()
		return nil
	}
}
