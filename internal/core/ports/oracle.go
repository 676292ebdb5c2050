package ports

import (
	"context"

	"github.com/coinshift-network/swapd/internal/core/domain"
)

// ParentChainOracle reports sightings of parent chain transactions.
type ParentChainOracle interface {
	ParentChain() domain.ParentChain
	// GetBlockCount returns the height of the parent chain tip. It's used to
	// probe the connection with the parent chain node.
	GetBlockCount(ctx context.Context) (uint64, error)
	// ObserveTransaction returns the current depth of the transaction with the
	// given id and, if any, the amount it pays to the given address.
	ObserveTransaction(
		ctx context.Context, txid domain.SwapTxID, address string,
	) (*domain.L1Observation, error)
}
