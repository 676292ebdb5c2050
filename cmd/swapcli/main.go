package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/coinshift-network/swapd/internal/config"
	"github.com/coinshift-network/swapd/internal/core/application/pubsub"
	"github.com/coinshift-network/swapd/internal/core/application/swap"
	webhookpubsub "github.com/coinshift-network/swapd/internal/infrastructure/pubsub/webhook"
	dbbadger "github.com/coinshift-network/swapd/internal/infrastructure/storage/db/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	app := cli.NewApp()

	app.Name = "swapcli"
	app.Usage = "Command line interface for inspecting and administrating the " +
		"swaps of a stopped swapd node"
	app.Writer = out
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "the data directory of swapd, overrides SWAPD_DATADIR",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		if datadir := ctx.String("datadir"); len(datadir) > 0 {
			if err := os.Setenv("SWAPD_DATADIR", datadir); err != nil {
				return err
			}
		}
		return config.InitConfig()
	}
	app.Commands = append(
		app.Commands,
		&listswaps,
		&showswap,
		&lockedoutput,
		&listlocks,
		&observeswap,
		&webhook,
		&listwebhooks,
	)
	return app
}

// getSwapService opens the swaps db of the node. Badger allows only one
// process at a time to open a db, swapd must be stopped.
func getSwapService() (*swap.Service, func(), error) {
	repoManager, err := dbbadger.NewRepoManager(config.GetDbDir(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (is swapd running?)", err)
	}

	svc, err := swap.NewService(
		repoManager, nil, config.GetNetwork(), config.GetString(config.L2AssetKey),
	)
	if err != nil {
		repoManager.Close()
		return nil, nil, err
	}
	return svc, repoManager.Close, nil
}

func getPubSubService() (*pubsub.Service, func(), error) {
	webhookPubSub, err := webhookpubsub.NewWebhookPubSubService(
		config.GetDbDir(), nil,
		config.GetDuration(config.WebhookTimeoutKey), pubsub.Events...,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (is swapd running?)", err)
	}

	svc := pubsub.NewService(webhookPubSub)
	return svc, svc.Close, nil
}

func printJSON(w io.Writer, resp interface{}) error {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return fmt.Errorf("unable to encode response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(buf))
	return err
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[swapcli] %v\n", err)
	}
	os.Exit(1)
}
