package swap_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coinshift-network/swapd/internal/core/application/swap"
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCheckPendingSwaps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	confs := uint32(3)
	args := openSwapArgs(t, 1000)
	args.RequiredConfirmations = &confs

	// No l1 tx known yet, it's skipped.
	unseen := createPendingSwap(t, env, args)

	seen := createPendingSwap(t, env, args)
	txid := randomTxID(t)
	_, err := env.svc.ObserveL1(ctx, seen.ID, domain.L1Observation{
		TxID: txid, Confirmations: 1,
	})
	require.NoError(t, err)

	failing := createPendingSwap(t, env, args)
	failingTxID := randomTxID(t)
	_, err = env.svc.ObserveL1(ctx, failing.ID, domain.L1Observation{
		TxID: failingTxID, Confirmations: 1,
	})
	require.NoError(t, err)

	oracle := &mockOracle{}
	oracle.On("ParentChain").Return(domain.ParentChainRegtest)
	oracle.On("ObserveTransaction", mock.Anything, txid, seen.L1RecipientAddress).
		Return(&domain.L1Observation{TxID: txid, Confirmations: 3}, nil).Once()
	oracle.On("ObserveTransaction", mock.Anything, failingTxID, failing.L1RecipientAddress).
		Return(nil, fmt.Errorf("tx not found"))

	watcher := swap.NewWatcher(env.svc, oracle, time.Second)

	count, err := watcher.CheckPendingSwaps(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	swp, err := env.svc.GetSwap(ctx, seen.ID)
	require.NoError(t, err)
	require.True(t, swp.IsReadyToClaim())

	swp, err = env.svc.GetSwap(ctx, unseen.ID)
	require.NoError(t, err)
	require.True(t, swp.IsPending())

	swp, err = env.svc.GetSwap(ctx, failing.ID)
	require.NoError(t, err)
	require.True(t, swp.IsPending())
	require.Equal(t, uint32(1), swp.Confirmations)

	// A stale report is not forwarded.
	staleOracle := &mockOracle{}
	staleOracle.On("ParentChain").Return(domain.ParentChainRegtest)
	staleOracle.On("ObserveTransaction", mock.Anything, failingTxID, failing.L1RecipientAddress).
		Return(&domain.L1Observation{TxID: failingTxID, Confirmations: 1}, nil)
	watcher = swap.NewWatcher(env.svc, staleOracle, time.Second)

	count, err = watcher.CheckPendingSwaps(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCheckPendingSwapsOtherChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	swp := createPendingSwap(t, env, openSwapArgs(t, 1000))
	_, err := env.svc.ObserveL1(ctx, swp.ID, domain.L1Observation{
		TxID: randomTxID(t),
	})
	require.NoError(t, err)

	oracle := &mockOracle{}
	oracle.On("ParentChain").Return(domain.ParentChainLTC)

	count, err := swap.NewWatcher(env.svc, oracle, time.Second).
		CheckPendingSwaps(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
	oracle.AssertNotCalled(
		t, "ObserveTransaction", mock.Anything, mock.Anything, mock.Anything,
	)
}

func TestWatcher(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	confs := uint32(2)
	args := openSwapArgs(t, 1000)
	args.RequiredConfirmations = &confs
	swp := createPendingSwap(t, env, args)
	txid := randomTxID(t)
	_, err := env.svc.ObserveL1(ctx, swp.ID, domain.L1Observation{TxID: txid})
	require.NoError(t, err)

	oracle := &mockOracle{}
	oracle.On("ParentChain").Return(domain.ParentChainRegtest)
	oracle.On("GetBlockCount", mock.Anything).Return(uint64(100), nil)
	oracle.On("ObserveTransaction", mock.Anything, txid, swp.L1RecipientAddress).
		Return(&domain.L1Observation{TxID: txid, Confirmations: 2}, nil)

	watcher := swap.NewWatcher(env.svc, oracle, 50*time.Millisecond)
	watcher.Start()
	defer watcher.Stop()

	require.Eventually(t, func() bool {
		s, err := env.svc.GetSwap(ctx, swp.ID)
		return err == nil && s.IsReadyToClaim()
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcherDisconnectedOracle(t *testing.T) {
	env := newTestEnv(t)

	oracle := &mockOracle{}
	oracle.On("ParentChain").Return(domain.ParentChainRegtest)
	oracle.On("GetBlockCount", mock.Anything).Return(nil, fmt.Errorf("connection refused"))

	watcher := swap.NewWatcher(env.svc, oracle, 20*time.Millisecond)
	watcher.Start()
	time.Sleep(200 * time.Millisecond)
	watcher.Stop()

	oracle.AssertCalled(t, "GetBlockCount", mock.Anything)
	oracle.AssertNotCalled(
		t, "ObserveTransaction", mock.Anything, mock.Anything, mock.Anything,
	)
}
