package swap

import (
	"errors"
	"fmt"

	"github.com/coinshift-network/swapd/internal/core/domain"
)

var (
	ErrMissingRepoManager = errors.New("missing repo manager")
	ErrInvalidL2Asset     = errors.New("l2 asset must be a 32-byte hex string")

	// ErrInvalidL2Recipient is returned when the address receiving the value
	// of a swap is not valid for the sidechain network.
	ErrInvalidL2Recipient = fmt.Errorf("%w: malformed l2 recipient address", domain.ErrInvalidSwap)
	// ErrInsufficientFunds is returned when the wallet selected inputs that do
	// not cover the locked amount plus fees.
	ErrInsufficientFunds = errors.New("selected inputs do not cover amount and fee")
	// ErrNonWitnessInput is returned when the wallet selects an input whose
	// script is not a witness program.
	ErrNonWitnessInput = errors.New("wallet input must be a segwit output")
	// ErrNoLockedOutputs is returned when claiming a swap without providing any
	// output to spend.
	ErrNoLockedOutputs = errors.New("missing locked outputs to claim")
	// ErrDuplicatedOutput is returned when the same output is given more than
	// once.
	ErrDuplicatedOutput = errors.New("duplicated locked output")
	// ErrOutputLockedToOtherSwap is returned when claiming an output that is
	// encumbered by a swap other than the one being claimed.
	ErrOutputLockedToOtherSwap = fmt.Errorf(
		"%w: output is locked to another swap", domain.ErrOutputNotLocked,
	)
	// ErrIncompleteClaim is returned when the outputs to claim do not include
	// every output locked to the swap.
	ErrIncompleteClaim = errors.New("claim must spend every output locked to the swap")
	// ErrInsufficientLockedValue is returned when the fee is greater than or
	// equal to the value locked to the swap.
	ErrInsufficientLockedValue = errors.New("locked value does not cover the fee")
)
