package ports

import (
	"context"

	"github.com/coinshift-network/swapd/internal/core/domain"
)

// AccumulatorSnapshot is an immutable view of the canonical unspent set as of
// a given sidechain tip.
type AccumulatorSnapshot interface {
	Tip() string
}

// Accumulator proves that outputs belong to the canonical unspent set.
type Accumulator interface {
	TipSnapshot(ctx context.Context) (AccumulatorSnapshot, error)
	ProveMembership(snapshot AccumulatorSnapshot, outpoint domain.Outpoint) bool
}
