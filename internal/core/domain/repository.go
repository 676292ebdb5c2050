package domain

import "context"

// SwapRepository is the abstraction for any kind of database intended to
// persist Swaps. Every method expects the caller to have opened a database
// transaction and to pass it through the given context. Implementations do
// no business validation.
type SwapRepository interface {
	// PutSwap inserts or overwrites the given swap.
	PutSwap(ctx context.Context, swap Swap) error
	// GetSwap returns the swap with the given id, or nil if not found.
	GetSwap(ctx context.Context, id SwapID) (*Swap, error)
	// GetAllSwaps returns all the swaps stored in the repository.
	GetAllSwaps(ctx context.Context) ([]Swap, error)
	// GetSwapsByState returns all the swaps being in any of the given states.
	GetSwapsByState(ctx context.Context, states ...SwapState) ([]Swap, error)
}

// OutputLockRepository is the abstraction for the index mapping sidechain
// outputs to the swaps encumbering them. It must share the database
// transaction with the SwapRepository.
type OutputLockRepository interface {
	// LockOutput adds the lock to the index. It fails with
	// ErrOutputAlreadyLocked if the outpoint is already in the index.
	LockOutput(ctx context.Context, lock OutputLock) error
	// GetOutputLock returns the lock for the outpoint, or nil if not found.
	GetOutputLock(ctx context.Context, outpoint Outpoint) (*OutputLock, error)
	// GetOutputLocksForSwap returns all the locks referring to the given swap.
	GetOutputLocksForSwap(ctx context.Context, id SwapID) ([]OutputLock, error)
	// UnlockOutput removes the outpoint from the index.
	UnlockOutput(ctx context.Context, outpoint Outpoint) error
}

// SpentInputRepository is the abstraction for the index of the sidechain
// outputs consumed by swap creation transactions. An output can fund at most
// one swap. It must share the database transaction with the SwapRepository.
type SpentInputRepository interface {
	// AddSpentInputs adds the inputs to the index. It fails with
	// ErrOutputAlreadyLocked if any of them is already in the index.
	AddSpentInputs(ctx context.Context, inputs ...SpentInput) error
	// GetSpentInput returns the record for the outpoint, or nil if not found.
	GetSpentInput(ctx context.Context, outpoint Outpoint) (*SpentInput, error)
}
