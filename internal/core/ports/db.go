package ports

import (
	"context"

	"github.com/coinshift-network/swapd/internal/core/domain"
)

// RepoManager interface defines the methods for swaps, output locks and the
// inputs spent by swaps. All repositories share the same underlying store so
// that a single transaction can span them.
type RepoManager interface {
	SwapRepository() domain.SwapRepository
	OutputLockRepository() domain.OutputLockRepository
	SpentInputRepository() domain.SpentInputRepository

	// RunTransaction opens a read or write transaction, makes it available to
	// the repositories through the context given to handler and commits it if
	// the handler succeeds. A nested call joins the transaction of the outer
	// one.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)

	Close()
}
