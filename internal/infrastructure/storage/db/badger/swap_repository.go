package dbbadger

import (
	"context"
	"errors"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

// swapData is the storage representation of a domain.Swap. The SwapTxID
// union is flattened into its kind and raw bytes.
type swapData struct {
	ID                    string
	ParentChain           int
	L1RecipientAddress    string
	L1Amount              *uint64
	L2Recipient           string
	L2Amount              uint64
	RequiredConfirmations uint32
	L1TxID                []byte
	L1TxIDKind            int
	Confirmations         uint32
	L1ClaimerHint         string
	L1ClaimerAddress      string
	State                 int `badgerholdIndex:"State"`
	CreatedAt             int64
	UpdatedAt             int64
}

type swapRepositoryImpl struct {
	store *badgerhold.Store
}

func newSwapRepositoryImpl(store *badgerhold.Store) domain.SwapRepository {
	return swapRepositoryImpl{store}
}

func (r swapRepositoryImpl) PutSwap(ctx context.Context, swap domain.Swap) error {
	tx, err := txFromContext(ctx, true)
	if err != nil {
		return err
	}

	data := toSwapData(swap)
	return r.store.TxUpsert(tx, data.ID, data)
}

func (r swapRepositoryImpl) GetSwap(
	ctx context.Context, id domain.SwapID,
) (*domain.Swap, error) {
	tx, err := txFromContext(ctx, false)
	if err != nil {
		return nil, err
	}

	return r.getSwap(tx, id.String())
}

func (r swapRepositoryImpl) GetAllSwaps(ctx context.Context) ([]domain.Swap, error) {
	tx, err := txFromContext(ctx, false)
	if err != nil {
		return nil, err
	}

	return r.findSwaps(tx, nil)
}

func (r swapRepositoryImpl) GetSwapsByState(
	ctx context.Context, states ...domain.SwapState,
) ([]domain.Swap, error) {
	tx, err := txFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(states) <= 0 {
		return nil, nil
	}

	iface := make([]interface{}, 0, len(states))
	for _, s := range states {
		iface = append(iface, int(s))
	}
	query := badgerhold.Where("State").In(iface...).Index("State")

	return r.findSwaps(tx, query)
}

func (r swapRepositoryImpl) getSwap(tx *badger.Txn, key string) (*domain.Swap, error) {
	var data swapData
	if err := r.store.TxGet(tx, key, &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return fromSwapData(data)
}

func (r swapRepositoryImpl) findSwaps(
	tx *badger.Txn, query *badgerhold.Query,
) ([]domain.Swap, error) {
	var list []swapData
	if err := r.store.TxFind(tx, &list, query); err != nil {
		return nil, err
	}

	swaps := make([]domain.Swap, 0, len(list))
	for _, data := range list {
		swap, err := fromSwapData(data)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, *swap)
	}
	return swaps, nil
}

func toSwapData(swap domain.Swap) swapData {
	var l1TxID []byte
	var l1TxIDKind int
	if swap.L1TxID != nil {
		l1TxID = swap.L1TxID.Bytes()
		l1TxIDKind = int(swap.L1TxID.Kind())
	}

	return swapData{
		ID:                    swap.ID.String(),
		ParentChain:           int(swap.ParentChain),
		L1RecipientAddress:    swap.L1RecipientAddress,
		L1Amount:              swap.L1Amount,
		L2Recipient:           swap.L2Recipient,
		L2Amount:              swap.L2Amount,
		RequiredConfirmations: swap.RequiredConfirmations,
		L1TxID:                l1TxID,
		L1TxIDKind:            l1TxIDKind,
		Confirmations:         swap.Confirmations,
		L1ClaimerHint:         swap.L1ClaimerHint,
		L1ClaimerAddress:      swap.L1ClaimerAddress,
		State:                 int(swap.State),
		CreatedAt:             swap.CreatedAt,
		UpdatedAt:             swap.UpdatedAt,
	}
}

func fromSwapData(data swapData) (*domain.Swap, error) {
	id, err := domain.SwapIDFromString(data.ID)
	if err != nil {
		return nil, err
	}

	var l1TxID *domain.SwapTxID
	if len(data.L1TxID) > 0 {
		var txid domain.SwapTxID
		if domain.SwapTxIDKind(data.L1TxIDKind) == domain.SwapTxIDVariableHash {
			txid, err = domain.NewVariableSwapTxID(data.L1TxID)
		} else {
			txid, err = domain.SwapTxIDFromBytes(data.L1TxID)
		}
		if err != nil {
			return nil, err
		}
		l1TxID = &txid
	}

	return &domain.Swap{
		ID:                    id,
		ParentChain:           domain.ParentChain(data.ParentChain),
		L1RecipientAddress:    data.L1RecipientAddress,
		L1Amount:              data.L1Amount,
		L2Recipient:           data.L2Recipient,
		L2Amount:              data.L2Amount,
		RequiredConfirmations: data.RequiredConfirmations,
		L1TxID:                l1TxID,
		Confirmations:         data.Confirmations,
		L1ClaimerHint:         data.L1ClaimerHint,
		L1ClaimerAddress:      data.L1ClaimerAddress,
		State:                 domain.SwapState(data.State),
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}, nil
}
