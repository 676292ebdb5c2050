package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSwap is wrapped by every error returned for malformed swap
	// creation or observation arguments.
	ErrInvalidSwap = errors.New("invalid swap")
	// ErrSwapNotFound is returned when the given SwapID is unknown.
	ErrSwapNotFound = errors.New("swap not found")
	// ErrSwapInvalidState is returned when an operation is attempted against a
	// swap that is not in the required state.
	ErrSwapInvalidState = errors.New("swap is not in the required state")
	// ErrMissingClaimer is returned when claiming an open swap without
	// specifying who is claiming it.
	ErrMissingClaimer = errors.New("open swap requires a claimer address")
	// ErrOutputAlreadyLocked is returned when an output is already encumbered
	// by some swap.
	ErrOutputAlreadyLocked = errors.New("output is already locked to a swap")
	// ErrOutputNotLocked is returned when an output claimed to be locked to a
	// swap is not present in the lock index.
	ErrOutputNotLocked = errors.New("output is not locked to any swap")
	// ErrAccumulatorProof is returned when an output cannot be proven to be
	// part of the unspent set of the chosen chain tip.
	ErrAccumulatorProof = errors.New("output membership proof failed")
	// ErrUnknownParentChain is returned when parsing a parent chain name that
	// is not supported.
	ErrUnknownParentChain = errors.New("unknown parent chain")
	ErrInvalidSwapID      = errors.New("invalid swap id")
	ErrInvalidL1TxID      = errors.New("invalid l1 txid")
	// ErrInvalidOutpoint is returned for outpoints not in the txid:vout form
	// or whose txid is not a 32-byte hex hash.
	ErrInvalidOutpoint = errors.New("invalid outpoint")

	ErrSwapInvalidParentChain = fmt.Errorf("%w: parent chain not supported", ErrInvalidSwap)
	ErrSwapMissingL1Recipient = fmt.Errorf("%w: missing l1 recipient address", ErrInvalidSwap)
	ErrSwapInvalidL1Recipient = fmt.Errorf("%w: malformed l1 recipient address", ErrInvalidSwap)
	ErrSwapInvalidL1Amount    = fmt.Errorf("%w: l1 amount must be positive when set", ErrInvalidSwap)
	ErrSwapInvalidL2Amount    = fmt.Errorf("%w: l2 amount must be positive", ErrInvalidSwap)
	ErrSwapRecipientMismatch  = fmt.Errorf(
		"%w: exactly one of l2 recipient and open swap must be set", ErrInvalidSwap,
	)
	ErrSwapInvalidConfirmations = fmt.Errorf(
		"%w: required confirmations must be at least 1", ErrInvalidSwap,
	)
	ErrSwapMissingInputs = fmt.Errorf("%w: creation transaction has no inputs", ErrInvalidSwap)
	ErrSwapMissingL1TxID = fmt.Errorf("%w: missing l1 txid", ErrInvalidSwap)
	ErrL1Underpaid       = fmt.Errorf(
		"%w: observed l1 amount is lower than the swap terms", ErrInvalidSwap,
	)
)
