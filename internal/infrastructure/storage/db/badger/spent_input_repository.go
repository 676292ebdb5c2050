package dbbadger

import (
	"context"
	"errors"
	"fmt"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type spentInputData struct {
	TxID   string
	VOut   uint32
	SwapID string
}

type spentInputRepositoryImpl struct {
	store *badgerhold.Store
}

func newSpentInputRepositoryImpl(
	store *badgerhold.Store,
) domain.SpentInputRepository {
	return spentInputRepositoryImpl{store}
}

// AddSpentInputs relies on TxInsert reading the key before writing it: the
// read makes concurrent transactions spending the same input conflict at
// commit.
func (r spentInputRepositoryImpl) AddSpentInputs(
	ctx context.Context, inputs ...domain.SpentInput,
) error {
	tx, err := txFromContext(ctx, true)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		data := spentInputData{
			TxID:   in.Outpoint.TxID,
			VOut:   in.Outpoint.VOut,
			SwapID: in.SwapID.String(),
		}
		if err := r.store.TxInsert(tx, in.Outpoint.String(), data); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				return fmt.Errorf(
					"%w: input %s already spent", domain.ErrOutputAlreadyLocked, in.Outpoint,
				)
			}
			return err
		}
	}
	return nil
}

func (r spentInputRepositoryImpl) GetSpentInput(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.SpentInput, error) {
	tx, err := txFromContext(ctx, false)
	if err != nil {
		return nil, err
	}

	var data spentInputData
	if err := r.store.TxGet(tx, outpoint.String(), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	id, err := domain.SwapIDFromString(data.SwapID)
	if err != nil {
		return nil, err
	}
	return &domain.SpentInput{
		Outpoint: domain.Outpoint{TxID: data.TxID, VOut: data.VOut},
		SwapID:   id,
	}, nil
}
