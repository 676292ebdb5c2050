package main

import (
	"context"
	"fmt"

	"github.com/coinshift-network/swapd/internal/core/application/pubsub"
	"github.com/coinshift-network/swapd/internal/core/ports"
	"github.com/urfave/cli/v2"
)

var eventFlag = &cli.StringFlag{
	Name: "event",
	Usage: fmt.Sprintf(
		"the event triggering the webhook, one of %v or %s for any of them",
		pubsub.Events, ports.AnyTopic,
	),
	Value: ports.AnyTopic,
}

var (
	webhook = cli.Command{
		Name:  "webhook",
		Usage: "add or remove webhooks",
		Subcommands: []*cli.Command{
			webhookAddCmd, webhookRemoveCmd,
		},
	}
	listwebhooks = cli.Command{
		Name:   "webhooks",
		Usage:  "list all webhooks, optionally filtered by target event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "event",
				Usage: "list only the webhooks triggered by this event",
			},
		},
		Action: listWebhooksAction,
	}

	webhookAddCmd = &cli.Command{
		Name:  "add",
		Usage: "add a (secured) webhook endpoint called whenever a target event occurs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "the webhook endpoint to be called whenever the target event occurs",
				Required: true,
			},
			&cli.StringFlag{
				Name: "secret",
				Usage: "the eventual secret to use to generate an OAuth token for " +
					"authenticating requests to the webhook endpoint",
			},
			eventFlag,
		},
		Action: addWebhookAction,
	}

	webhookRemoveCmd = &cli.Command{
		Name:  "remove",
		Usage: "remove a webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "the id of the webhook to remove",
				Required: true,
			},
		},
		Action: removeWebhookAction,
	}
)

func addWebhookAction(ctx *cli.Context) error {
	svc, cleanup, err := getPubSubService()
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := svc.AddWebhook(
		context.Background(), ctx.String("event"),
		ctx.String("endpoint"), ctx.String("secret"),
	)
	if err != nil {
		return err
	}

	return printJSON(ctx.App.Writer, map[string]string{"id": id})
}

func removeWebhookAction(ctx *cli.Context) error {
	svc, cleanup, err := getPubSubService()
	if err != nil {
		return err
	}
	defer cleanup()

	hookID := ctx.String("id")
	if err := svc.RemoveWebhook(context.Background(), hookID); err != nil {
		return err
	}

	fmt.Fprintln(ctx.App.Writer, "removed webhook with id:", hookID)
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	svc, cleanup, err := getPubSubService()
	if err != nil {
		return err
	}
	defer cleanup()

	events := append([]string{ports.AnyTopic}, pubsub.Events...)
	if event := ctx.String("event"); len(event) > 0 {
		events = []string{event}
	}

	hooks := make([]ports.Subscription, 0)
	seen := make(map[string]struct{})
	for _, event := range events {
		subs, err := svc.ListWebhooks(context.Background(), event)
		if err != nil {
			return err
		}
		for _, s := range subs {
			if _, ok := seen[s.Id()]; ok {
				continue
			}
			seen[s.Id()] = struct{}{}
			hooks = append(hooks, s)
		}
	}

	type hookView struct {
		ID        string `json:"id"`
		Event     string `json:"event"`
		Endpoint  string `json:"endpoint"`
		IsSecured bool   `json:"is_secured"`
	}
	views := make([]hookView, 0, len(hooks))
	for _, h := range hooks {
		views = append(views, hookView{h.Id(), h.Topic(), h.NotifyAt(), h.IsSecured()})
	}
	return printJSON(ctx.App.Writer, map[string]interface{}{"webhooks": views})
}
