package domain

import (
	"fmt"
	"time"
)

// SwapState represents the different states that a swap can assume. States
// only advance Pending -> ReadyToClaim -> Claimed.
type SwapState int

const (
	SwapStatePending SwapState = iota
	SwapStateReadyToClaim
	SwapStateClaimed
)

func (s SwapState) String() string {
	switch s {
	case SwapStatePending:
		return "Pending"
	case SwapStateReadyToClaim:
		return "ReadyToClaim"
	case SwapStateClaimed:
		return "Claimed"
	default:
		return fmt.Sprintf("SwapState(%d)", int(s))
	}
}

// ActiveSwapStates are the states of swaps whose outputs are still locked.
var ActiveSwapStates = []SwapState{SwapStatePending, SwapStateReadyToClaim}

// SwapArgs are the terms of a new swap as chosen by its creator.
type SwapArgs struct {
	ParentChain        ParentChain
	L1RecipientAddress string
	// L1Amount is optional, it can be filled later by an L1 observation.
	L1Amount *uint64
	// L2Recipient must be set unless IsOpen is true.
	L2Recipient string
	IsOpen      bool
	L2Amount    uint64
	// RequiredConfirmations defaults to the parent chain's default if nil.
	RequiredConfirmations *uint32
}

// L1Observation is a sighting of the parent chain transaction paying a swap,
// as reported by an external oracle.
type L1Observation struct {
	TxID          SwapTxID
	Confirmations uint32
	// Amount, if known, is the value paid to the swap's l1 recipient.
	Amount *uint64
	// ClaimerHint is an optional reference to whoever paid an open swap on L1.
	ClaimerHint string
}

// Swap is the data structure representing a swap between the parent chain and
// the sidechain.
type Swap struct {
	ID                    SwapID
	ParentChain           ParentChain
	L1RecipientAddress    string
	L1Amount              *uint64
	L2Recipient           string
	L2Amount              uint64
	RequiredConfirmations uint32
	L1TxID                *SwapTxID
	Confirmations         uint32
	L1ClaimerHint         string
	L1ClaimerAddress      string
	State                 SwapState
	CreatedAt             int64
	UpdatedAt             int64
}

// NewSwap validates the given terms and returns a Pending swap whose id is
// minted from the outpoints consumed by the creating transaction.
func NewSwap(args SwapArgs, creationInputs []Outpoint) (*Swap, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}

	id, err := NewSwapID(creationInputs)
	if err != nil {
		return nil, err
	}

	requiredConfs := args.ParentChain.DefaultConfirmations()
	if args.RequiredConfirmations != nil {
		requiredConfs = *args.RequiredConfirmations
	}

	var l2Recipient string
	if !args.IsOpen {
		l2Recipient = args.L2Recipient
	}

	now := time.Now().Unix()
	return &Swap{
		ID:                    id,
		ParentChain:           args.ParentChain,
		L1RecipientAddress:    args.L1RecipientAddress,
		L1Amount:              copyAmount(args.L1Amount),
		L2Recipient:           l2Recipient,
		L2Amount:              args.L2Amount,
		RequiredConfirmations: requiredConfs,
		State:                 SwapStatePending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Observe merges an L1 observation into the swap. It is allowed only while
// the swap is Pending. The confirmation counter never decreases, so repeated
// or out of order reports are harmless. A payment lower than the agreed l1
// amount is rejected, an overpayment is accepted and the agreed amount is
// kept. Once the counter reaches the required confirmations the swap becomes
// ReadyToClaim.
func (s *Swap) Observe(obs L1Observation) error {
	if !s.IsPending() {
		return fmt.Errorf(
			"%w: cannot observe swap %s in state %s", ErrSwapInvalidState, s.ID, s.State,
		)
	}
	if obs.TxID.IsZero() {
		return ErrSwapMissingL1TxID
	}
	if obs.Amount != nil {
		if *obs.Amount == 0 {
			return ErrSwapInvalidL1Amount
		}
		if s.L1Amount != nil && *obs.Amount < *s.L1Amount {
			return ErrL1Underpaid
		}
	}

	txid := obs.TxID
	s.L1TxID = &txid
	if obs.Confirmations > s.Confirmations {
		s.Confirmations = obs.Confirmations
	}
	if s.L1Amount == nil && obs.Amount != nil {
		s.L1Amount = copyAmount(obs.Amount)
	}
	if s.IsOpen() && len(obs.ClaimerHint) > 0 {
		s.L1ClaimerHint = obs.ClaimerHint
	}
	if s.Confirmations >= s.RequiredConfirmations {
		s.State = SwapStateReadyToClaim
	}
	s.UpdatedAt = time.Now().Unix()
	return nil
}

// Claim brings a ReadyToClaim swap to the terminal Claimed state and returns
// the sidechain address the locked value must be paid to. For a targeted swap
// that is its l2 recipient and outerClaimer is ignored, for an open swap
// outerClaimer is mandatory and gets recorded as the claimer of the swap.
func (s *Swap) Claim(outerClaimer string) (string, error) {
	if !s.IsReadyToClaim() {
		return "", fmt.Errorf(
			"%w: cannot claim swap %s in state %s", ErrSwapInvalidState, s.ID, s.State,
		)
	}

	recipient := s.L2Recipient
	if s.IsOpen() {
		if len(outerClaimer) <= 0 {
			return "", ErrMissingClaimer
		}
		recipient = outerClaimer
		s.L1ClaimerAddress = outerClaimer
	}

	s.State = SwapStateClaimed
	s.UpdatedAt = time.Now().Unix()
	return recipient, nil
}

// IsOpen returns whether anyone can claim the swap by providing the recipient
// at claim time.
func (s *Swap) IsOpen() bool {
	return len(s.L2Recipient) <= 0
}

// IsPending returns whether the swap is waiting for L1 confirmations.
func (s *Swap) IsPending() bool {
	return s.State == SwapStatePending
}

// IsReadyToClaim returns whether the swap reached the required confirmations.
func (s *Swap) IsReadyToClaim() bool {
	return s.State == SwapStateReadyToClaim
}

// IsClaimed returns whether the swap is in its terminal state.
func (s *Swap) IsClaimed() bool {
	return s.State == SwapStateClaimed
}

// IsActive returns whether the swap still encumbers sidechain outputs.
func (s *Swap) IsActive() bool {
	return !s.IsClaimed()
}

// Validate checks the terms of a swap without minting it.
func (a SwapArgs) Validate() error {
	if !a.ParentChain.IsValid() {
		return ErrSwapInvalidParentChain
	}
	if err := a.ParentChain.ValidateAddress(a.L1RecipientAddress); err != nil {
		return err
	}
	if a.L1Amount != nil && *a.L1Amount == 0 {
		return ErrSwapInvalidL1Amount
	}
	if a.L2Amount == 0 {
		return ErrSwapInvalidL2Amount
	}
	if hasRecipient := len(a.L2Recipient) > 0; hasRecipient == a.IsOpen {
		return ErrSwapRecipientMismatch
	}
	if a.RequiredConfirmations != nil && *a.RequiredConfirmations < 1 {
		return ErrSwapInvalidConfirmations
	}
	return nil
}

func copyAmount(amount *uint64) *uint64 {
	if amount == nil {
		return nil
	}
	v := *amount
	return &v
}
