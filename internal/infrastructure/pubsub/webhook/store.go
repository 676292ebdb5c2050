package webhookpubsub

import (
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/timshannon/badgerhold/v4"
)

const webhooksDir = "webhooks"

// webhookStore persists webhooks indexed by the event they're subscribed to.
type webhookStore struct {
	store *badgerhold.Store
}

func newWebhookStore(baseDir string, logger badger.Logger) (*webhookStore, error) {
	var dbDir string
	if len(baseDir) > 0 {
		dbDir = filepath.Join(baseDir, webhooksDir)
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if len(dbDir) <= 0 {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}
	return &webhookStore{store}, nil
}

func (s *webhookStore) add(hook Webhook) error {
	return s.store.Insert(hook.ID, hook)
}

func (s *webhookStore) get(id string) (*Webhook, error) {
	var hook Webhook
	if err := s.store.Get(id, &hook); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &hook, nil
}

func (s *webhookStore) remove(id string) error {
	return s.store.Delete(id, Webhook{})
}

func (s *webhookStore) listByEvent(events ...string) ([]Webhook, error) {
	values := make([]interface{}, 0, len(events))
	for _, e := range events {
		values = append(values, e)
	}

	var hooks []Webhook
	query := badgerhold.Where("Event").In(values...).Index("Event")
	if err := s.store.Find(&hooks, query); err != nil {
		return nil, err
	}
	return hooks, nil
}

func (s *webhookStore) close() error {
	return s.store.Close()
}
