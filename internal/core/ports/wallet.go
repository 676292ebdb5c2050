package ports

import (
	"context"

	"github.com/coinshift-network/swapd/internal/core/domain"
)

// Wallet is the sidechain wallet funding swap creation transactions. Key
// management and coin selection are up to the implementation.
type Wallet interface {
	// SelectInputs returns unspents whose total value is at least amount.
	// Every unspent must carry its output script, which must be a witness
	// program: swap outputs are keyed by the txid of the unsigned creation
	// transaction.
	SelectInputs(ctx context.Context, amount uint64) ([]domain.Utxo, error)
	// NewAddress derives a fresh sidechain address owned by the wallet.
	NewAddress(ctx context.Context) (string, error)
}
