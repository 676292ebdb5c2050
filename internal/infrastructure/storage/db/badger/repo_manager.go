package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/internal/core/ports"
	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	swapsDir = "swaps"
	// maxConflictRetries bounds how many times a write transaction is
	// retried after failing to commit because of a concurrent writer.
	maxConflictRetries = 5
)

type txKey struct{}

type transaction struct {
	txn      *badger.Txn
	readOnly bool
}

type repoManager struct {
	store *badgerhold.Store

	swapRepository       domain.SwapRepository
	outputLockRepository domain.OutputLockRepository
	spentInputRepository domain.SpentInputRepository
}

// NewRepoManager opens (or creates if not exists) the badger store in the
// given directory. Swaps, output locks and spent inputs live in the same store
// so that they are always mutated in the same transaction. An empty baseDbDir makes the
// store live in memory only.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, swapsDir)
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening swaps db: %w", err)
	}

	return &repoManager{
		store:                store,
		swapRepository:       newSwapRepositoryImpl(store),
		outputLockRepository: newOutputLockRepositoryImpl(store),
		spentInputRepository: newSpentInputRepositoryImpl(store),
	}, nil
}

func (r *repoManager) SwapRepository() domain.SwapRepository {
	return r.swapRepository
}

func (r *repoManager) OutputLockRepository() domain.OutputLockRepository {
	return r.outputLockRepository
}

func (r *repoManager) SpentInputRepository() domain.SpentInputRepository {
	return r.spentInputRepository
}

func (r *repoManager) Close() {
	if err := r.store.Close(); err != nil {
		log.WithError(err).Warn("error while closing swaps db")
	}
}

func (r *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if tx, ok := ctx.Value(txKey{}).(*transaction); ok && tx != nil {
		if tx.readOnly && !readOnly {
			return nil, ErrReadOnlyTransaction
		}
		return handler(ctx)
	}

	for attempt := 0; ; attempt++ {
		res, err := r.runTransaction(ctx, readOnly, handler)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			return nil, err
		}
		log.Debugf("db transaction conflict, retrying (attempt %d)", attempt+1)
	}
}

func (r *repoManager) runTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	txn := r.store.Badger().NewTransaction(!readOnly)
	defer txn.Discard()

	ctx = context.WithValue(ctx, txKey{}, &transaction{txn, readOnly})
	res, err := handler(ctx)
	if err != nil {
		return nil, err
	}

	if !readOnly {
		if err := txn.Commit(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func txFromContext(ctx context.Context, write bool) (*badger.Txn, error) {
	tx, ok := ctx.Value(txKey{}).(*transaction)
	if !ok || tx == nil {
		return nil, ErrMissingTransaction
	}
	if write && tx.readOnly {
		return nil, ErrReadOnlyTransaction
	}
	return tx.txn, nil
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
