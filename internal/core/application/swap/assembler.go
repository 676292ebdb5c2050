package swap

import (
	"context"
	"fmt"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/internal/core/ports"
	"github.com/coinshift-network/swapd/pkg/amount"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements/transaction"
)

// TxAssembler builds the sidechain transactions that create and claim swaps.
// The returned transactions are candidates, their acceptance is up to the
// ledger they're submitted to. The wallet and the accumulator are injected at
// every call and the accumulator snapshot is fetched only once per call.
type TxAssembler struct {
	svc *Service
}

func NewTxAssembler(svc *Service) *TxAssembler {
	return &TxAssembler{svc}
}

// BuildCreateTx funds a new swap with the given terms. The returned
// transaction spends the wallet selected inputs into exactly one output locked
// to the swap, valued l2 amount, plus an optional change output. The swap, the
// lock of its output and the record of the spent inputs are committed
// atomically, so that an input funds at most one swap.
func (a *TxAssembler) BuildCreateTx(
	ctx context.Context,
	accumulator ports.Accumulator,
	wallet ports.Wallet,
	args domain.SwapArgs,
	fee uint64,
) (*transaction.Transaction, domain.SwapID, error) {
	if accumulator == nil {
		return nil, domain.SwapID{}, fmt.Errorf("missing accumulator")
	}
	if wallet == nil {
		return nil, domain.SwapID{}, fmt.Errorf("missing wallet")
	}
	if err := a.svc.validateArgs(args); err != nil {
		return nil, domain.SwapID{}, err
	}
	targetAmount, err := amount.Sum(args.L2Amount, fee)
	if err != nil {
		return nil, domain.SwapID{}, err
	}

	snapshot, err := accumulator.TipSnapshot(ctx)
	if err != nil {
		return nil, domain.SwapID{}, err
	}

	utxos, err := wallet.SelectInputs(ctx, targetAmount)
	if err != nil {
		return nil, domain.SwapID{}, err
	}
	if err := checkWitnessUtxos(utxos); err != nil {
		return nil, domain.SwapID{}, err
	}
	var inputsAmount uint64
	for _, u := range utxos {
		if !accumulator.ProveMembership(snapshot, u.Outpoint) {
			return nil, domain.SwapID{}, fmt.Errorf(
				"%w: input %s at tip %s", domain.ErrAccumulatorProof, u.Outpoint, snapshot.Tip(),
			)
		}
		if inputsAmount, err = amount.Sum(inputsAmount, u.Value); err != nil {
			return nil, domain.SwapID{}, err
		}
	}
	if inputsAmount < targetAmount {
		return nil, domain.SwapID{}, fmt.Errorf(
			"%w: got %d, expected at least %d", ErrInsufficientFunds, inputsAmount, targetAmount,
		)
	}

	inputs := outpointsFromUtxos(utxos)
	swap, err := a.svc.CreateSwap(args, inputs)
	if err != nil {
		return nil, domain.SwapID{}, err
	}

	tx := transaction.NewTx(txVersion)
	for _, in := range inputs {
		txIn, err := newTxInput(in)
		if err != nil {
			return nil, domain.SwapID{}, err
		}
		tx.AddInput(txIn)
	}

	lockScript, err := SwapLockScript(swap.ID)
	if err != nil {
		return nil, domain.SwapID{}, err
	}
	lockOut, err := newTxOutput(a.svc.l2Asset, args.L2Amount, lockScript)
	if err != nil {
		return nil, domain.SwapID{}, err
	}
	tx.AddOutput(lockOut)

	if change := inputsAmount - targetAmount; change > 0 {
		addr, err := wallet.NewAddress(ctx)
		if err != nil {
			return nil, domain.SwapID{}, err
		}
		script, err := l2OutputScript(addr, a.svc.network)
		if err != nil {
			return nil, domain.SwapID{}, err
		}
		changeOut, err := newTxOutput(a.svc.l2Asset, change, script)
		if err != nil {
			return nil, domain.SwapID{}, err
		}
		tx.AddOutput(changeOut)
	}

	// Inputs are all segwit, the txid doesn't change once the tx is signed.
	txid := tx.TxHash().String()
	lock := domain.OutputLock{
		Outpoint: domain.Outpoint{TxID: txid, VOut: 0},
		SwapID:   swap.ID,
		Value:    args.L2Amount,
	}

	if _, err := a.svc.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			if err := a.svc.insertSwap(ctx, *swap, inputs); err != nil {
				return nil, err
			}
			return nil, a.svc.repoManager.OutputLockRepository().LockOutput(ctx, lock)
		},
	); err != nil {
		return nil, domain.SwapID{}, err
	}

	log.Infof("created swap %s with tx %s", swap.ID, txid)
	a.svc.publishCreated(*swap, txid)
	return tx, swap.ID, nil
}

// BuildClaimTx spends all the outputs locked to the swap with the given id
// into a single output paying their total value minus fee to the recipient
// of the swap. Every given output must be locked to the swap and proven to be
// unspent at the current accumulator tip, and all outputs locked to the swap
// must be given. The Claimed swap and the release of its outputs are committed
// atomically.
func (a *TxAssembler) BuildClaimTx(
	ctx context.Context,
	accumulator ports.Accumulator,
	id domain.SwapID,
	lockedOutputs []domain.Outpoint,
	outerClaimer string,
	fee uint64,
) (*transaction.Transaction, error) {
	if len(lockedOutputs) <= 0 {
		return nil, ErrNoLockedOutputs
	}
	if accumulator == nil {
		return nil, fmt.Errorf("missing accumulator")
	}

	snapshot, err := accumulator.TipSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	type result struct {
		tx        *transaction.Transaction
		swap      *domain.Swap
		recipient string
	}

	res, err := a.svc.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			swap, err := a.svc.getSwap(ctx, id)
			if err != nil {
				return nil, err
			}

			locks, err := a.verifyLockedOutputs(
				ctx, accumulator, snapshot, id, lockedOutputs,
			)
			if err != nil {
				return nil, err
			}

			values := make([]uint64, 0, len(locks))
			for _, l := range locks {
				values = append(values, l.Value)
			}
			lockedAmount, err := amount.Sum(values...)
			if err != nil {
				return nil, err
			}
			if fee >= lockedAmount {
				return nil, fmt.Errorf(
					"%w: locked %d, fee %d", ErrInsufficientLockedValue, lockedAmount, fee,
				)
			}

			recipient, err := a.svc.claimSwap(ctx, swap, locks, outerClaimer)
			if err != nil {
				return nil, err
			}

			tx, err := a.buildClaimTx(lockedOutputs, recipient, lockedAmount-fee)
			if err != nil {
				return nil, err
			}
			return result{tx, swap, recipient}, nil
		},
	)
	if err != nil {
		return nil, err
	}

	r := res.(result)
	txid := r.tx.TxHash().String()
	log.Infof("swap %s claimed by %s with tx %s", r.swap.ID, r.recipient, txid)
	a.svc.publishClaimed(*r.swap, r.recipient, txid)
	return r.tx, nil
}

// verifyLockedOutputs returns the locks of the given outputs making sure they
// are exactly all those of the swap and that they're still unspent.
func (a *TxAssembler) verifyLockedOutputs(
	ctx context.Context,
	accumulator ports.Accumulator,
	snapshot ports.AccumulatorSnapshot,
	id domain.SwapID,
	outpoints []domain.Outpoint,
) ([]domain.OutputLock, error) {
	lockRepo := a.svc.repoManager.OutputLockRepository()

	locks := make([]domain.OutputLock, 0, len(outpoints))
	seen := make(map[domain.Outpoint]struct{})
	for _, op := range outpoints {
		if _, ok := seen[op]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatedOutput, op)
		}
		seen[op] = struct{}{}

		lock, err := lockRepo.GetOutputLock(ctx, op)
		if err != nil {
			return nil, err
		}
		if lock == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrOutputNotLocked, op)
		}
		if lock.SwapID != id {
			return nil, fmt.Errorf(
				"%w: %s is locked to %s", ErrOutputLockedToOtherSwap, op, lock.SwapID,
			)
		}
		if !accumulator.ProveMembership(snapshot, op) {
			return nil, fmt.Errorf(
				"%w: output %s at tip %s", domain.ErrAccumulatorProof, op, snapshot.Tip(),
			)
		}
		locks = append(locks, *lock)
	}

	allLocks, err := lockRepo.GetOutputLocksForSwap(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(allLocks) != len(locks) {
		return nil, fmt.Errorf(
			"%w: got %d outputs, swap has %d", ErrIncompleteClaim, len(locks), len(allLocks),
		)
	}
	return locks, nil
}

func (a *TxAssembler) buildClaimTx(
	inputs []domain.Outpoint, recipient string, value uint64,
) (*transaction.Transaction, error) {
	script, err := l2OutputScript(recipient, a.svc.network)
	if err != nil {
		return nil, err
	}

	tx := transaction.NewTx(txVersion)
	for _, in := range inputs {
		txIn, err := newTxInput(in)
		if err != nil {
			return nil, err
		}
		tx.AddInput(txIn)
	}

	out, err := newTxOutput(a.svc.l2Asset, value, script)
	if err != nil {
		return nil, err
	}
	tx.AddOutput(out)
	return tx, nil
}
