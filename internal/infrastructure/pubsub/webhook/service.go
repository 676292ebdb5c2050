package webhookpubsub

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coinshift-network/swapd/internal/core/ports"
	"github.com/coinshift-network/swapd/pkg/circuitbreaker"
	"github.com/dgraph-io/badger/v3"
	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

const defaultRequestTimeout = 15 * time.Second

type webhookService struct {
	store      *webhookStore
	httpClient *client
	topics     map[string]struct{}

	lock     *sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewWebhookPubSubService returns a pubsub service that notifies subscribers
// by making a POST request to their endpoints. Webhooks are persisted in a
// badger store under datadir, or kept in memory if datadir is empty.
// Subscriptions are accepted only for the given topics or for any of them
// via ports.AnyTopic.
func NewWebhookPubSubService(
	datadir string, logger badger.Logger, requestTimeout time.Duration,
	topics ...string,
) (ports.PubSub, error) {
	if len(topics) <= 0 {
		return nil, fmt.Errorf("missing topics")
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	store, err := newWebhookStore(datadir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening webhooks db: %w", err)
	}

	topicsByName := make(map[string]struct{})
	for _, t := range topics {
		topicsByName[t] = struct{}{}
	}
	topicsByName[ports.AnyTopic] = struct{}{}

	return &webhookService{
		store:      store,
		httpClient: newHTTPClient(requestTimeout),
		topics:     topicsByName,
		lock:       &sync.Mutex{},
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}, nil
}

func (ws *webhookService) Subscribe(topic, endpoint, secret string) (string, error) {
	if _, ok := ws.topics[topic]; !ok {
		return "", ErrInvalidTopic
	}

	hook, err := NewWebhook(topic, endpoint, secret)
	if err != nil {
		return "", err
	}
	if err := ws.store.add(*hook); err != nil {
		return "", err
	}

	log.Debugf("added webhook %s for event %s", hook.ID, topic)
	return hook.ID, nil
}

// Unsubscribe removes the webhook with the given id. The topic, if specified,
// must match the one of the webhook.
func (ws *webhookService) Unsubscribe(topic, id string) error {
	hook, err := ws.store.get(id)
	if err != nil {
		return err
	}
	if hook == nil || (topic != ports.UnspecifiedTopic && topic != hook.Event) {
		return ErrWebhookNotFound
	}

	if err := ws.store.remove(id); err != nil {
		return err
	}
	log.Debugf("removed webhook %s", id)
	return nil
}

func (ws *webhookService) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	hooks, err := ws.getHooksForTopic(topic)
	if err != nil {
		log.WithError(err).Warnf("failed to list webhooks for event %s", topic)
		return nil
	}

	subs := make([]ports.Subscription, 0, len(hooks))
	for i := range hooks {
		subs = append(subs, &hooks[i])
	}
	return subs
}

// Publish makes a POST request to every webhook endpoint registered for the
// given topic, or for any topic. Requests are made concurrently and each
// endpoint has its own circuit breaker, so that a single unreachable
// subscriber doesn't prevent the others from being notified.
func (ws *webhookService) Publish(topic string, message string) error {
	if _, ok := ws.topics[topic]; !ok || topic == ports.AnyTopic {
		return ErrInvalidTopic
	}

	hooks, err := ws.getHooksForTopic(topic)
	if err != nil {
		return err
	}

	eg := &errgroup.Group{}
	for i := range hooks {
		hook := hooks[i]
		eg.Go(func() error { return ws.doRequest(hook, message) })
	}
	return eg.Wait()
}

func (ws *webhookService) Close() {
	if err := ws.store.close(); err != nil {
		log.WithError(err).Warn("error while closing webhooks db")
	}
}

func (ws *webhookService) getHooksForTopic(topic string) ([]Webhook, error) {
	if topic == ports.AnyTopic {
		return ws.store.listByEvent(topic)
	}
	return ws.store.listByEvent(topic, ports.AnyTopic)
}

func (ws *webhookService) doRequest(hook Webhook, payload string) error {
	cb := ws.getCircuitBreaker(hook.Endpoint)

	_, err := cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if hook.IsSecured() {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
				IssuedAt: time.Now().Unix(),
				Subject:  hook.Event,
			})
			tokenString, err := token.SignedString([]byte(hook.Secret))
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(hook.Endpoint, payload, headers)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("webhook %s replied with %d: %s", hook.ID, status, resp)
		}
		return nil, nil
	})
	if err != nil {
		log.WithError(err).Debugf("failed to notify webhook %s", hook.ID)
	}
	return err
}

func (ws *webhookService) getCircuitBreaker(endpoint string) *gobreaker.CircuitBreaker {
	ws.lock.Lock()
	defer ws.lock.Unlock()

	cb, ok := ws.breakers[endpoint]
	if !ok {
		cb = circuitbreaker.NewCircuitBreaker(fmt.Sprintf("webhook %s", endpoint))
		ws.breakers[endpoint] = cb
	}
	return cb
}
