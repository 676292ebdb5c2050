package main

import (
	"context"
	"strconv"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/pkg/amount"
	"github.com/urfave/cli/v2"
)

var (
	listswaps = cli.Command{
		Name:  "list",
		Usage: "list all swaps, optionally only the active ones",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "active",
				Usage: "list only swaps that still lock sidechain outputs",
			},
		},
		Action: listSwapsAction,
	}
	showswap = cli.Command{
		Name:      "show",
		Usage:     "show the swap with the given id",
		ArgsUsage: "<swap_id>",
		Action:    showSwapAction,
	}
	lockedoutput = cli.Command{
		Name:      "locked",
		Usage:     "tell which swap, if any, locks the given sidechain output",
		ArgsUsage: "<txid:vout>",
		Action:    lockedOutputAction,
	}
	listlocks = cli.Command{
		Name:      "locks",
		Usage:     "list the sidechain outputs locked to the given swap",
		ArgsUsage: "<swap_id>",
		Action:    listLocksAction,
	}
	observeswap = cli.Command{
		Name:      "observe",
		Usage:     "manually report an observation of the l1 tx paying a swap",
		ArgsUsage: "<swap_id> <l1_txid> <confirmations>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "amount",
				Usage: "the amount in BTC paid to the swap's l1 recipient, ie. 0.015",
			},
			&cli.StringFlag{
				Name:  "claimer_hint",
				Usage: "reference to whoever paid an open swap on l1",
			},
		},
		Action: observeSwapAction,
	}
)

func listSwapsAction(ctx *cli.Context) error {
	svc, cleanup, err := getSwapService()
	if err != nil {
		return err
	}
	defer cleanup()

	var swaps []domain.Swap
	if ctx.Bool("active") {
		swaps, err = svc.ListActiveSwaps(context.Background())
	} else {
		swaps, err = svc.ListSwaps(context.Background())
	}
	if err != nil {
		return err
	}

	views := make([]swapView, 0, len(swaps))
	for _, s := range swaps {
		views = append(views, newSwapView(s))
	}
	return printJSON(ctx.App.Writer, map[string]interface{}{"swaps": views})
}

func showSwapAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}
	id, err := domain.SwapIDFromString(ctx.Args().First())
	if err != nil {
		return err
	}

	svc, cleanup, err := getSwapService()
	if err != nil {
		return err
	}
	defer cleanup()

	swap, err := svc.GetSwap(context.Background(), id)
	if err != nil {
		return err
	}
	if swap == nil {
		return domain.ErrSwapNotFound
	}
	return printJSON(ctx.App.Writer, newSwapView(*swap))
}

func lockedOutputAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}
	outpoint, err := domain.OutpointFromString(ctx.Args().First())
	if err != nil {
		return err
	}

	svc, cleanup, err := getSwapService()
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := svc.IsOutputLockedTo(context.Background(), outpoint)
	if err != nil {
		return err
	}

	resp := map[string]interface{}{
		"outpoint": outpoint.String(),
		"locked":   id != nil,
	}
	if id != nil {
		resp["swap_id"] = id.String()
	}
	return printJSON(ctx.App.Writer, resp)
}

func listLocksAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}
	id, err := domain.SwapIDFromString(ctx.Args().First())
	if err != nil {
		return err
	}

	svc, cleanup, err := getSwapService()
	if err != nil {
		return err
	}
	defer cleanup()

	locks, err := svc.ListOutputLocks(context.Background(), id)
	if err != nil {
		return err
	}

	views := make([]lockView, 0, len(locks))
	for _, l := range locks {
		views = append(views, lockView{
			Outpoint: l.Outpoint.String(),
			Value:    l.Value,
			Amount:   amount.Format(l.Value),
		})
	}
	return printJSON(ctx.App.Writer, map[string]interface{}{"locks": views})
}

func observeSwapAction(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}
	args := ctx.Args()
	id, err := domain.SwapIDFromString(args.Get(0))
	if err != nil {
		return err
	}
	txid, err := domain.SwapTxIDFromString(args.Get(1))
	if err != nil {
		return err
	}
	confirmations, err := strconv.ParseUint(args.Get(2), 10, 32)
	if err != nil {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	obs := domain.L1Observation{
		TxID:          txid,
		Confirmations: uint32(confirmations),
		ClaimerHint:   ctx.String("claimer_hint"),
	}
	if amountStr := ctx.String("amount"); len(amountStr) > 0 {
		l1Amount, err := amount.Parse(amountStr)
		if err != nil {
			return err
		}
		obs.Amount = &l1Amount
	}

	svc, cleanup, err := getSwapService()
	if err != nil {
		return err
	}
	defer cleanup()

	swap, err := svc.ObserveL1(context.Background(), id, obs)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, newSwapView(*swap))
}
