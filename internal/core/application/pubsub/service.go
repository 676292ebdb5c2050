package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/internal/core/ports"
)

const (
	EventSwapCreated = "SWAP_CREATED"
	EventSwapReady   = "SWAP_READY"
	EventSwapClaimed = "SWAP_CLAIMED"
)

// Events lists the topics published by the service.
var Events = []string{EventSwapCreated, EventSwapReady, EventSwapClaimed}

type Service struct {
	pubsub ports.PubSub
}

func NewService(pubsub ports.PubSub) *Service {
	return &Service{pubsub}
}

func (s *Service) PubSub() ports.PubSub {
	return s.pubsub
}

func (s *Service) AddWebhook(
	_ context.Context, event, endpoint, secret string,
) (string, error) {
	if !isValidEvent(event) {
		return "", fmt.Errorf("invalid webhook event type %q", event)
	}
	return s.pubsub.Subscribe(event, endpoint, secret)
}

func (s *Service) RemoveWebhook(_ context.Context, id string) error {
	return s.pubsub.Unsubscribe(ports.UnspecifiedTopic, id)
}

func (s *Service) ListWebhooks(
	_ context.Context, event string,
) ([]ports.Subscription, error) {
	if !isValidEvent(event) {
		return nil, fmt.Errorf("invalid webhook event type %q", event)
	}
	return s.pubsub.ListSubscriptionsForTopic(event), nil
}

func (s *Service) PublishSwapCreatedEvent(swap domain.Swap, txid string) error {
	event := EventSwapCreated
	payload := map[string]interface{}{
		"event": event,
		"swap":  getSwapPayload(swap),
		"txid":  txid,
	}
	message, _ := json.Marshal(payload)

	return s.pubsub.Publish(event, string(message))
}

func (s *Service) PublishSwapReadyEvent(swap domain.Swap) error {
	event := EventSwapReady
	payload := map[string]interface{}{
		"event": event,
		"swap":  getSwapPayload(swap),
	}
	message, _ := json.Marshal(payload)

	return s.pubsub.Publish(event, string(message))
}

func (s *Service) PublishSwapClaimedEvent(
	swap domain.Swap, recipient, txid string,
) error {
	event := EventSwapClaimed
	payload := map[string]interface{}{
		"event":     event,
		"swap":      getSwapPayload(swap),
		"recipient": recipient,
	}
	if len(txid) > 0 {
		payload["txid"] = txid
	}
	message, _ := json.Marshal(payload)

	return s.pubsub.Publish(event, string(message))
}

func (s *Service) Close() {
	s.pubsub.Close()
}

func isValidEvent(event string) bool {
	if event == ports.AnyTopic {
		return true
	}
	for _, e := range Events {
		if e == event {
			return true
		}
	}
	return false
}
