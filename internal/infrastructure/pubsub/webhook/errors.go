package webhookpubsub

import "errors"

var (
	// ErrInvalidTopic is returned whenever attempting to subscribe to an unknown
	// topic.
	ErrInvalidTopic = errors.New("topic is invalid")
	// ErrInvalidEndpoint is returned if the endpoint of a webhook is not a
	// valid absolute URL.
	ErrInvalidEndpoint = errors.New("webhook endpoint must be a valid URL")
	// ErrWebhookNotFound is returned when unsubscribing an unknown webhook.
	ErrWebhookNotFound = errors.New("webhook not found")
)
