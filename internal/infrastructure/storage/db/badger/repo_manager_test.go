package dbbadger_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/internal/core/ports"
	dbbadger "github.com/coinshift-network/swapd/internal/infrastructure/storage/db/badger"
	"github.com/stretchr/testify/require"
)

func TestSwapRepository(t *testing.T) {
	repoManager := newTestRepoManager(t)
	repo := repoManager.SwapRepository()

	pending := newTestSwap(t)
	ready := newTestSwap(t)
	require.NoError(t, ready.Observe(domain.L1Observation{
		TxID: randomTxID(t, 32), Confirmations: 1, Amount: amount(21),
	}))
	claimed := newTestSwap(t)
	require.NoError(t, claimed.Observe(domain.L1Observation{
		TxID: randomTxID(t, 20), Confirmations: 3,
	}))
	_, err := claimed.Claim("claimer")
	require.NoError(t, err)

	_, err = write(repoManager, func(ctx context.Context) (interface{}, error) {
		for _, s := range []*domain.Swap{pending, ready, claimed} {
			if err := repo.PutSwap(ctx, *s); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		for _, s := range []*domain.Swap{pending, ready, claimed} {
			res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
				return repo.GetSwap(ctx, s.ID)
			})
			require.NoError(t, err)
			swap := res.(*domain.Swap)
			require.NotNil(t, swap)
			require.Equal(t, *s, *swap)
		}
	})

	t.Run("get_unknown", func(t *testing.T) {
		res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
			return repo.GetSwap(ctx, domain.SwapID{1})
		})
		require.NoError(t, err)
		require.Nil(t, res.(*domain.Swap))
	})

	t.Run("get_all", func(t *testing.T) {
		res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
			return repo.GetAllSwaps(ctx)
		})
		require.NoError(t, err)
		require.Len(t, res.([]domain.Swap), 3)
	})

	t.Run("get_by_state", func(t *testing.T) {
		res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
			return repo.GetSwapsByState(ctx, domain.ActiveSwapStates...)
		})
		require.NoError(t, err)
		swaps := res.([]domain.Swap)
		require.Len(t, swaps, 2)
		for _, s := range swaps {
			require.True(t, s.IsActive())
		}

		res, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
			return repo.GetSwapsByState(ctx, domain.SwapStateClaimed)
		})
		require.NoError(t, err)
		swaps = res.([]domain.Swap)
		require.Len(t, swaps, 1)
		require.Equal(t, claimed.ID, swaps[0].ID)
	})

	t.Run("overwrite", func(t *testing.T) {
		updated := *pending
		require.NoError(t, updated.Observe(domain.L1Observation{
			TxID: randomTxID(t, 32), Confirmations: 1,
		}))

		_, err := write(repoManager, func(ctx context.Context) (interface{}, error) {
			return nil, repo.PutSwap(ctx, updated)
		})
		require.NoError(t, err)

		res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
			return repo.GetSwap(ctx, pending.ID)
		})
		require.NoError(t, err)
		require.True(t, res.(*domain.Swap).IsReadyToClaim())

		// The state index follows the overwrite.
		res, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
			return repo.GetSwapsByState(ctx, domain.SwapStatePending)
		})
		require.NoError(t, err)
		require.Empty(t, res.([]domain.Swap))

		res, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
			return repo.GetSwapsByState(ctx, domain.SwapStateReadyToClaim)
		})
		require.NoError(t, err)
		require.ElementsMatch(
			t, []domain.SwapID{pending.ID, ready.ID}, swapIDs(res.([]domain.Swap)),
		)
	})
}

func TestOutputLockRepository(t *testing.T) {
	repoManager := newTestRepoManager(t)
	repo := repoManager.OutputLockRepository()

	swapID := domain.SwapID{1, 2, 3}
	otherSwapID := domain.SwapID{4, 5, 6}
	outpoints := randomOutpoints(3)

	_, err := write(repoManager, func(ctx context.Context) (interface{}, error) {
		for i, op := range outpoints {
			id := swapID
			if i == len(outpoints)-1 {
				id = otherSwapID
			}
			lock := domain.OutputLock{Outpoint: op, SwapID: id, Value: 1000}
			if err := repo.LockOutput(ctx, lock); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	require.NoError(t, err)

	res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
		return repo.GetOutputLock(ctx, outpoints[0])
	})
	require.NoError(t, err)
	lock := res.(*domain.OutputLock)
	require.NotNil(t, lock)
	require.Equal(t, swapID, lock.SwapID)
	require.Equal(t, uint64(1000), lock.Value)

	res, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
		return repo.GetOutputLocksForSwap(ctx, swapID)
	})
	require.NoError(t, err)
	require.Len(t, res.([]domain.OutputLock), 2)

	_, err = write(repoManager, func(ctx context.Context) (interface{}, error) {
		return nil, repo.LockOutput(ctx, domain.OutputLock{
			Outpoint: outpoints[0], SwapID: otherSwapID,
		})
	})
	require.ErrorIs(t, err, domain.ErrOutputAlreadyLocked)

	_, err = write(repoManager, func(ctx context.Context) (interface{}, error) {
		if err := repo.UnlockOutput(ctx, outpoints[0]); err != nil {
			return nil, err
		}
		// Unlocking an unknown outpoint is a no-op.
		return nil, repo.UnlockOutput(ctx, randomOutpoints(1)[0])
	})
	require.NoError(t, err)

	res, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
		return repo.GetOutputLock(ctx, outpoints[0])
	})
	require.NoError(t, err)
	require.Nil(t, res.(*domain.OutputLock))

	res, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
		return repo.GetOutputLocksForSwap(ctx, swapID)
	})
	require.NoError(t, err)
	locks := res.([]domain.OutputLock)
	require.Len(t, locks, 1)
	require.Equal(t, outpoints[1], locks[0].Outpoint)
}

func TestSpentInputRepository(t *testing.T) {
	repoManager := newTestRepoManager(t)
	repo := repoManager.SpentInputRepository()

	swapID := domain.SwapID{1, 2, 3}
	outpoints := randomOutpoints(2)

	_, err := write(repoManager, func(ctx context.Context) (interface{}, error) {
		return nil, repo.AddSpentInputs(
			ctx,
			domain.SpentInput{Outpoint: outpoints[0], SwapID: swapID},
			domain.SpentInput{Outpoint: outpoints[1], SwapID: swapID},
		)
	})
	require.NoError(t, err)

	res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
		return repo.GetSpentInput(ctx, outpoints[1])
	})
	require.NoError(t, err)
	spent := res.(*domain.SpentInput)
	require.NotNil(t, spent)
	require.Equal(t, swapID, spent.SwapID)
	require.Equal(t, outpoints[1], spent.Outpoint)

	res, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
		return repo.GetSpentInput(ctx, randomOutpoints(1)[0])
	})
	require.NoError(t, err)
	require.Nil(t, res.(*domain.SpentInput))

	// A partially overlapping set is rejected as a whole.
	other := randomOutpoints(1)[0]
	_, err = write(repoManager, func(ctx context.Context) (interface{}, error) {
		return nil, repo.AddSpentInputs(
			ctx,
			domain.SpentInput{Outpoint: other, SwapID: domain.SwapID{4}},
			domain.SpentInput{Outpoint: outpoints[0], SwapID: domain.SwapID{4}},
		)
	})
	require.ErrorIs(t, err, domain.ErrOutputAlreadyLocked)

	res, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
		return repo.GetSpentInput(ctx, other)
	})
	require.NoError(t, err)
	require.Nil(t, res.(*domain.SpentInput))
}

func TestRunTransaction(t *testing.T) {
	t.Run("rollback_on_error", func(t *testing.T) {
		repoManager := newTestRepoManager(t)
		swap := newTestSwap(t)
		op := randomOutpoints(1)[0]
		errFailure := errors.New("failure")

		_, err := write(repoManager, func(ctx context.Context) (interface{}, error) {
			if err := repoManager.SwapRepository().PutSwap(ctx, *swap); err != nil {
				return nil, err
			}
			if err := repoManager.OutputLockRepository().LockOutput(
				ctx, domain.OutputLock{Outpoint: op, SwapID: swap.ID},
			); err != nil {
				return nil, err
			}
			return nil, errFailure
		})
		require.ErrorIs(t, err, errFailure)

		res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
			swaps, err := repoManager.SwapRepository().GetAllSwaps(ctx)
			if err != nil {
				return nil, err
			}
			lock, err := repoManager.OutputLockRepository().GetOutputLock(ctx, op)
			if err != nil {
				return nil, err
			}
			require.Nil(t, lock)
			return swaps, nil
		})
		require.NoError(t, err)
		require.Empty(t, res)
	})

	t.Run("nested_joins_outer", func(t *testing.T) {
		repoManager := newTestRepoManager(t)
		swap := newTestSwap(t)

		_, err := write(repoManager, func(ctx context.Context) (interface{}, error) {
			if _, err := write(repoManager, func(ctx context.Context) (interface{}, error) {
				return nil, repoManager.SwapRepository().PutSwap(ctx, *swap)
			}); err != nil {
				return nil, err
			}
			// The write of the nested call is visible to the outer one before
			// commit.
			s, err := repoManager.SwapRepository().GetSwap(ctx, swap.ID)
			if err != nil {
				return nil, err
			}
			require.NotNil(t, s)
			return nil, nil
		})
		require.NoError(t, err)
	})

	t.Run("no_write_within_read", func(t *testing.T) {
		repoManager := newTestRepoManager(t)
		swap := newTestSwap(t)

		_, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
			return nil, repoManager.SwapRepository().PutSwap(ctx, *swap)
		})
		require.ErrorIs(t, err, dbbadger.ErrReadOnlyTransaction)

		_, err = read(repoManager, func(ctx context.Context) (interface{}, error) {
			return write(repoManager, func(ctx context.Context) (interface{}, error) {
				return nil, nil
			})
		})
		require.ErrorIs(t, err, dbbadger.ErrReadOnlyTransaction)
	})

	t.Run("missing_transaction", func(t *testing.T) {
		repoManager := newTestRepoManager(t)

		_, err := repoManager.SwapRepository().GetAllSwaps(context.Background())
		require.ErrorIs(t, err, dbbadger.ErrMissingTransaction)

		err = repoManager.OutputLockRepository().UnlockOutput(
			context.Background(), randomOutpoints(1)[0],
		)
		require.ErrorIs(t, err, dbbadger.ErrMissingTransaction)
	})

	t.Run("concurrent_locks", func(t *testing.T) {
		repoManager := newTestRepoManager(t)
		op := randomOutpoints(1)[0]
		numOfWriters := 5

		errs := make([]error, numOfWriters)
		wg := &sync.WaitGroup{}
		wg.Add(numOfWriters)
		for i := 0; i < numOfWriters; i++ {
			go func(i int) {
				defer wg.Done()
				_, errs[i] = write(repoManager, func(ctx context.Context) (interface{}, error) {
					return nil, repoManager.OutputLockRepository().LockOutput(
						ctx, domain.OutputLock{Outpoint: op, SwapID: domain.SwapID{byte(i + 1)}},
					)
				})
			}(i)
		}
		wg.Wait()

		var successes int
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			require.ErrorIs(t, err, domain.ErrOutputAlreadyLocked)
		}
		require.Equal(t, 1, successes)
	})

	t.Run("persistent", func(t *testing.T) {
		datadir := t.TempDir()
		swap := newTestSwap(t)

		repoManager, err := dbbadger.NewRepoManager(datadir, nil)
		require.NoError(t, err)
		_, err = write(repoManager, func(ctx context.Context) (interface{}, error) {
			return nil, repoManager.SwapRepository().PutSwap(ctx, *swap)
		})
		require.NoError(t, err)
		repoManager.Close()

		repoManager, err = dbbadger.NewRepoManager(datadir, nil)
		require.NoError(t, err)
		defer repoManager.Close()

		res, err := read(repoManager, func(ctx context.Context) (interface{}, error) {
			return repoManager.SwapRepository().GetSwap(ctx, swap.ID)
		})
		require.NoError(t, err)
		require.Equal(t, *swap, *res.(*domain.Swap))
	})
}

func newTestRepoManager(t *testing.T) ports.RepoManager {
	repoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return repoManager
}

func read(
	repoManager ports.RepoManager, query func(context.Context) (interface{}, error),
) (interface{}, error) {
	return repoManager.RunTransaction(context.Background(), true, query)
}

func write(
	repoManager ports.RepoManager, query func(context.Context) (interface{}, error),
) (interface{}, error) {
	return repoManager.RunTransaction(context.Background(), false, query)
}

func newTestSwap(t *testing.T) *domain.Swap {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		randomBytes(20), &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)

	swap, err := domain.NewSwap(domain.SwapArgs{
		ParentChain:        domain.ParentChainRegtest,
		L1RecipientAddress: addr.EncodeAddress(),
		IsOpen:             true,
		L2Amount:           5000,
	}, randomOutpoints(2))
	require.NoError(t, err)
	return swap
}

func randomOutpoints(num int) []domain.Outpoint {
	outpoints := make([]domain.Outpoint, 0, num)
	for i := 0; i < num; i++ {
		outpoints = append(outpoints, domain.Outpoint{
			TxID: hex.EncodeToString(randomBytes(32)),
			VOut: uint32(i),
		})
	}
	return outpoints
}

func randomTxID(t *testing.T, size int) domain.SwapTxID {
	txid, err := domain.SwapTxIDFromBytes(randomBytes(size))
	require.NoError(t, err)
	return txid
}

func randomBytes(num int) []byte {
	b := make([]byte, num)
	//nolint
	rand.Read(b)
	return b
}

func swapIDs(swaps []domain.Swap) []domain.SwapID {
	ids := make([]domain.SwapID, 0, len(swaps))
	for _, s := range swaps {
		ids = append(ids, s.ID)
	}
	return ids
}

func amount(v uint64) *uint64 {
	return &v
}
