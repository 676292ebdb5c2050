package dbbadger

import (
	"context"
	"errors"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type outputLockData struct {
	TxID   string
	VOut   uint32
	SwapID string `badgerholdIndex:"SwapID"`
	Value  uint64
}

type outputLockRepositoryImpl struct {
	store *badgerhold.Store
}

func newOutputLockRepositoryImpl(
	store *badgerhold.Store,
) domain.OutputLockRepository {
	return outputLockRepositoryImpl{store}
}

func (r outputLockRepositoryImpl) LockOutput(
	ctx context.Context, lock domain.OutputLock,
) error {
	tx, err := txFromContext(ctx, true)
	if err != nil {
		return err
	}

	data := outputLockData{
		TxID:   lock.Outpoint.TxID,
		VOut:   lock.Outpoint.VOut,
		SwapID: lock.SwapID.String(),
		Value:  lock.Value,
	}
	if err := r.store.TxInsert(tx, lock.Outpoint.String(), data); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrOutputAlreadyLocked
		}
		return err
	}
	return nil
}

func (r outputLockRepositoryImpl) GetOutputLock(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.OutputLock, error) {
	tx, err := txFromContext(ctx, false)
	if err != nil {
		return nil, err
	}

	var data outputLockData
	if err := r.store.TxGet(tx, outpoint.String(), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return fromOutputLockData(data)
}

func (r outputLockRepositoryImpl) GetOutputLocksForSwap(
	ctx context.Context, id domain.SwapID,
) ([]domain.OutputLock, error) {
	tx, err := txFromContext(ctx, false)
	if err != nil {
		return nil, err
	}

	var list []outputLockData
	query := badgerhold.Where("SwapID").Eq(id.String()).Index("SwapID")
	if err := r.store.TxFind(tx, &list, query); err != nil {
		return nil, err
	}

	locks := make([]domain.OutputLock, 0, len(list))
	for _, data := range list {
		lock, err := fromOutputLockData(data)
		if err != nil {
			return nil, err
		}
		locks = append(locks, *lock)
	}
	return locks, nil
}

func (r outputLockRepositoryImpl) UnlockOutput(
	ctx context.Context, outpoint domain.Outpoint,
) error {
	tx, err := txFromContext(ctx, true)
	if err != nil {
		return err
	}

	err = r.store.TxDelete(tx, outpoint.String(), outputLockData{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil
	}
	return err
}

func fromOutputLockData(data outputLockData) (*domain.OutputLock, error) {
	id, err := domain.SwapIDFromString(data.SwapID)
	if err != nil {
		return nil, err
	}
	return &domain.OutputLock{
		Outpoint: domain.Outpoint{TxID: data.TxID, VOut: data.VOut},
		SwapID:   id,
		Value:    data.Value,
	}, nil
}
