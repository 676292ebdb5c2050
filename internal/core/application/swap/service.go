package swap

import (
	"context"
	"fmt"

	"github.com/coinshift-network/swapd/internal/core/application/pubsub"
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements/network"
)

// Service exposes the lifecycle of swaps to the callers of the node. Every
// method runs in its own db transaction, or joins the one of the given
// context if any.
type Service struct {
	repoManager ports.RepoManager
	pubsub      *pubsub.Service
	network     *network.Network
	l2Asset     []byte
}

// NewService returns a new swap service for the sidechain identified by the
// given network and native asset. pubsubSvc is optional, if defined it is used
// to notify about swaps reaching a new state.
func NewService(
	repoManager ports.RepoManager,
	pubsubSvc *pubsub.Service,
	net *network.Network,
	l2Asset string,
) (*Service, error) {
	if repoManager == nil {
		return nil, ErrMissingRepoManager
	}
	if net == nil {
		return nil, fmt.Errorf("missing network")
	}
	asset, err := AssetFromHex(l2Asset)
	if err != nil {
		return nil, err
	}

	return &Service{repoManager, pubsubSvc, net, asset}, nil
}

// CreateSwap validates the given terms and mints the Pending swap that a
// creation transaction spending the given outpoints opens. Nothing is stored:
// a swap is persisted only by TxAssembler.BuildCreateTx, together with the
// lock of its funding output.
func (s *Service) CreateSwap(
	args domain.SwapArgs, creationInputs []domain.Outpoint,
) (*domain.Swap, error) {
	if err := s.validateArgs(args); err != nil {
		return nil, err
	}
	return domain.NewSwap(args, creationInputs)
}

// ObserveL1 merges an oracle observation into the swap with the given id.
func (s *Service) ObserveL1(
	ctx context.Context, id domain.SwapID, obs domain.L1Observation,
) (*domain.Swap, error) {
	var becameReady bool
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			swap, err := s.getSwap(ctx, id)
			if err != nil {
				return nil, err
			}
			wasPending := swap.IsPending()
			if err := swap.Observe(obs); err != nil {
				return nil, err
			}
			if err := s.repoManager.SwapRepository().PutSwap(ctx, *swap); err != nil {
				return nil, err
			}
			becameReady = wasPending && swap.IsReadyToClaim()
			return swap, nil
		},
	)
	if err != nil {
		return nil, err
	}

	swap := res.(*domain.Swap)
	log.Debugf(
		"swap %s observed with %d/%d confirmations",
		swap.ID, swap.Confirmations, swap.RequiredConfirmations,
	)
	if becameReady {
		log.Infof("swap %s is ready to be claimed", swap.ID)
		s.publishReady(*swap)
	}
	return swap, nil
}

// ClaimSwap brings a ReadyToClaim swap to the Claimed state and releases all
// the outputs locked to it. It returns the updated swap and the sidechain
// address that the locked value must be paid to.
func (s *Service) ClaimSwap(
	ctx context.Context, id domain.SwapID, outerClaimer string,
) (*domain.Swap, string, error) {
	type result struct {
		swap      *domain.Swap
		recipient string
	}

	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			swap, err := s.getSwap(ctx, id)
			if err != nil {
				return nil, err
			}
			locks, err := s.repoManager.OutputLockRepository().GetOutputLocksForSwap(
				ctx, id,
			)
			if err != nil {
				return nil, err
			}
			recipient, err := s.claimSwap(ctx, swap, locks, outerClaimer)
			if err != nil {
				return nil, err
			}
			return result{swap, recipient}, nil
		},
	)
	if err != nil {
		return nil, "", err
	}

	r := res.(result)
	log.Infof("swap %s claimed by %s", r.swap.ID, r.recipient)
	s.publishClaimed(*r.swap, r.recipient, "")
	return r.swap, r.recipient, nil
}

// GetSwap returns the swap with the given id, or nil if not found.
func (s *Service) GetSwap(
	ctx context.Context, id domain.SwapID,
) (*domain.Swap, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.SwapRepository().GetSwap(ctx, id)
		},
	)
	if err != nil {
		return nil, err
	}
	return res.(*domain.Swap), nil
}

// ListSwaps returns all the swaps, claimed ones included.
func (s *Service) ListSwaps(ctx context.Context) ([]domain.Swap, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.SwapRepository().GetAllSwaps(ctx)
		},
	)
	if err != nil {
		return nil, err
	}
	return res.([]domain.Swap), nil
}

// ListActiveSwaps returns the swaps that still encumber sidechain outputs.
func (s *Service) ListActiveSwaps(ctx context.Context) ([]domain.Swap, error) {
	return s.listSwapsByState(ctx, domain.ActiveSwapStates...)
}

// ListPendingSwaps returns the swaps waiting for L1 confirmations.
func (s *Service) ListPendingSwaps(ctx context.Context) ([]domain.Swap, error) {
	return s.listSwapsByState(ctx, domain.SwapStatePending)
}

// IsOutputLockedTo returns the id of the swap encumbering the given output,
// or nil if the output is free.
func (s *Service) IsOutputLockedTo(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.SwapID, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.OutputLockRepository().GetOutputLock(ctx, outpoint)
		},
	)
	if err != nil {
		return nil, err
	}

	lock := res.(*domain.OutputLock)
	if lock == nil {
		return nil, nil
	}
	id := lock.SwapID
	return &id, nil
}

// ListOutputLocks returns the outputs currently locked to the given swap.
func (s *Service) ListOutputLocks(
	ctx context.Context, id domain.SwapID,
) ([]domain.OutputLock, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.OutputLockRepository().GetOutputLocksForSwap(ctx, id)
		},
	)
	if err != nil {
		return nil, err
	}
	return res.([]domain.OutputLock), nil
}

func (s *Service) listSwapsByState(
	ctx context.Context, states ...domain.SwapState,
) ([]domain.Swap, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.SwapRepository().GetSwapsByState(ctx, states...)
		},
	)
	if err != nil {
		return nil, err
	}
	return res.([]domain.Swap), nil
}

func (s *Service) validateArgs(args domain.SwapArgs) error {
	if err := args.Validate(); err != nil {
		return err
	}
	if !args.IsOpen {
		if _, err := l2OutputScript(args.L2Recipient, s.network); err != nil {
			return err
		}
	}
	return nil
}

// insertSwap must be called within a write transaction. Every input of the
// creation transaction is recorded as spent by the swap: an input already
// spent by another creation transaction, or locked to a swap, is reported as
// ErrOutputAlreadyLocked.
func (s *Service) insertSwap(
	ctx context.Context, swap domain.Swap, creationInputs []domain.Outpoint,
) error {
	swapRepo := s.repoManager.SwapRepository()
	lockRepo := s.repoManager.OutputLockRepository()
	spentRepo := s.repoManager.SpentInputRepository()

	existing, err := swapRepo.GetSwap(ctx, swap.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf(
			"%w: inputs already spent by swap %s",
			domain.ErrOutputAlreadyLocked, existing.ID,
		)
	}

	spentInputs := make([]domain.SpentInput, 0, len(creationInputs))
	for _, in := range creationInputs {
		lock, err := lockRepo.GetOutputLock(ctx, in)
		if err != nil {
			return err
		}
		if lock != nil {
			return fmt.Errorf(
				"%w: input %s is locked to swap %s",
				domain.ErrOutputAlreadyLocked, in, lock.SwapID,
			)
		}

		spent, err := spentRepo.GetSpentInput(ctx, in)
		if err != nil {
			return err
		}
		if spent != nil {
			return fmt.Errorf(
				"%w: input %s already spent by swap %s",
				domain.ErrOutputAlreadyLocked, in, spent.SwapID,
			)
		}
		spentInputs = append(spentInputs, domain.SpentInput{Outpoint: in, SwapID: swap.ID})
	}

	if err := spentRepo.AddSpentInputs(ctx, spentInputs...); err != nil {
		return err
	}
	return swapRepo.PutSwap(ctx, swap)
}

// claimSwap must be called within a write transaction. It resolves the
// recipient of the swap, stores the Claimed swap and unlocks the given
// outputs.
func (s *Service) claimSwap(
	ctx context.Context, swap *domain.Swap, locks []domain.OutputLock,
	outerClaimer string,
) (string, error) {
	recipient, err := swap.Claim(outerClaimer)
	if err != nil {
		return "", err
	}
	if _, err := l2OutputScript(recipient, s.network); err != nil {
		return "", err
	}

	if err := s.repoManager.SwapRepository().PutSwap(ctx, *swap); err != nil {
		return "", err
	}
	for _, lock := range locks {
		if err := s.repoManager.OutputLockRepository().UnlockOutput(
			ctx, lock.Outpoint,
		); err != nil {
			return "", err
		}
	}
	return recipient, nil
}

func (s *Service) getSwap(ctx context.Context, id domain.SwapID) (*domain.Swap, error) {
	swap, err := s.repoManager.SwapRepository().GetSwap(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSwapNotFound, id)
	}
	return swap, nil
}

func (s *Service) publishCreated(swap domain.Swap, txid string) {
	if s.pubsub == nil {
		return
	}
	if err := s.pubsub.PublishSwapCreatedEvent(swap, txid); err != nil {
		log.WithError(err).Warnf("failed to publish event for swap %s", swap.ID)
	}
}

func (s *Service) publishReady(swap domain.Swap) {
	if s.pubsub == nil {
		return
	}
	if err := s.pubsub.PublishSwapReadyEvent(swap); err != nil {
		log.WithError(err).Warnf("failed to publish event for swap %s", swap.ID)
	}
}

func (s *Service) publishClaimed(swap domain.Swap, recipient, txid string) {
	if s.pubsub == nil {
		return
	}
	if err := s.pubsub.PublishSwapClaimedEvent(swap, recipient, txid); err != nil {
		log.WithError(err).Warnf("failed to publish event for swap %s", swap.ID)
	}
}
