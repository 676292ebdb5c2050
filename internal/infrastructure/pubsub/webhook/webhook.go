package webhookpubsub

import (
	"net/url"

	"github.com/google/uuid"
)

type Webhook struct {
	ID       string `badgerhold:"key"`
	Event    string `badgerholdIndex:"Event"`
	Endpoint string
	Secret   string
}

func NewWebhook(event, endpoint, secret string) (*Webhook, error) {
	if len(event) <= 0 {
		return nil, ErrInvalidTopic
	}
	u, err := url.ParseRequestURI(endpoint)
	if err != nil || len(u.Host) <= 0 {
		return nil, ErrInvalidEndpoint
	}
	id := uuid.New().String()
	return &Webhook{id, event, endpoint, secret}, nil
}

func (h *Webhook) Topic() string {
	return h.Event
}

func (h *Webhook) Id() string {
	return h.ID
}

func (h *Webhook) NotifyAt() string {
	return h.Endpoint
}

func (h *Webhook) IsSecured() bool {
	return len(h.Secret) > 0
}
