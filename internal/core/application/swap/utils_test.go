package swap_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/coinshift-network/swapd/internal/core/application/pubsub"
	"github.com/coinshift-network/swapd/internal/core/application/swap"
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/internal/core/ports"
	dbbadger "github.com/coinshift-network/swapd/internal/infrastructure/storage/db/badger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/payment"
)

var (
	l2Net   = &network.Regtest
	l2Asset = network.Regtest.AssetID
	tip     = snapshot("0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206")
)

type testEnv struct {
	svc         *swap.Service
	assembler   *swap.TxAssembler
	repoManager ports.RepoManager
	pubsub      *mockPubSub
}

func newTestEnv(t *testing.T) testEnv {
	repoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)

	ps := &mockPubSub{}
	ps.On("Publish", mock.Anything, mock.Anything).Return(nil)

	svc, err := swap.NewService(repoManager, pubsub.NewService(ps), l2Net, l2Asset)
	require.NoError(t, err)

	return testEnv{svc, swap.NewTxAssembler(svc), repoManager, ps}
}

// newHonestAccumulator returns an accumulator proving membership of any
// output.
func newHonestAccumulator() *mockAccumulator {
	acc := &mockAccumulator{}
	acc.On("TipSnapshot", mock.Anything).Return(tip, nil)
	acc.On("ProveMembership", mock.Anything, mock.Anything).Return(true)
	return acc
}

func newTestWallet(t *testing.T, target uint64, utxos ...domain.Utxo) *mockWallet {
	wallet := &mockWallet{}
	wallet.On("SelectInputs", mock.Anything, target).Return(utxos, nil)
	wallet.On("NewAddress", mock.Anything).Return(l2Address(t), nil)
	return wallet
}

// createPendingSwap funds a new swap with a single wallet input and returns
// the stored swap.
func createPendingSwap(t *testing.T, env testEnv, args domain.SwapArgs) *domain.Swap {
	ctx := context.Background()
	fee := uint64(100)
	wallet := newTestWallet(t, args.L2Amount+fee, randomUtxo(args.L2Amount+fee))

	_, id, err := env.assembler.BuildCreateTx(
		ctx, newHonestAccumulator(), wallet, args, fee,
	)
	require.NoError(t, err)

	swp, err := env.svc.GetSwap(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, swp)
	require.True(t, swp.IsPending())
	return swp
}

// createReadySwap funds a new swap and brings it to ReadyToClaim. It returns
// the swap id and the outpoint locked to it.
func createReadySwap(
	t *testing.T, env testEnv, args domain.SwapArgs, fee uint64,
) (domain.SwapID, domain.Outpoint) {
	ctx := context.Background()
	wallet := newTestWallet(t, args.L2Amount+fee, randomUtxo(args.L2Amount+fee+500))

	tx, id, err := env.assembler.BuildCreateTx(
		ctx, newHonestAccumulator(), wallet, args, fee,
	)
	require.NoError(t, err)

	swp, err := env.svc.ObserveL1(ctx, id, domain.L1Observation{
		TxID:          randomTxID(t),
		Confirmations: 100,
	})
	require.NoError(t, err)
	require.True(t, swp.IsReadyToClaim())

	return id, domain.Outpoint{TxID: tx.TxHash().String(), VOut: 0}
}

func targetedSwapArgs(t *testing.T, recipient string, l2Amount uint64) domain.SwapArgs {
	return domain.SwapArgs{
		ParentChain:        domain.ParentChainRegtest,
		L1RecipientAddress: l1Address(t, &chaincfg.RegressionNetParams),
		L2Recipient:        recipient,
		L2Amount:           l2Amount,
	}
}

func openSwapArgs(t *testing.T, l2Amount uint64) domain.SwapArgs {
	return domain.SwapArgs{
		ParentChain:        domain.ParentChainRegtest,
		L1RecipientAddress: l1Address(t, &chaincfg.RegressionNetParams),
		IsOpen:             true,
		L2Amount:           l2Amount,
	}
}

func l2Address(t *testing.T) string {
	return l2AddressForNetwork(t, l2Net)
}

func l2AddressForNetwork(t *testing.T, net *network.Network) string {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	addr, err := payment.FromPublicKey(key.PubKey(), net, nil).WitnessPubKeyHash()
	require.NoError(t, err)
	return addr
}

func l1Address(t *testing.T, params *chaincfg.Params) string {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(randomBytes(20), params)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func randomUtxo(value uint64) domain.Utxo {
	return domain.Utxo{
		Outpoint: randomOutpoint(),
		Value:    value,
		Script:   p2wpkhScript(),
	}
}

func p2wpkhScript() []byte {
	return append([]byte{txscript.OP_0, txscript.OP_DATA_20}, randomBytes(20)...)
}

func randomOutpoint() domain.Outpoint {
	return domain.Outpoint{
		TxID: hex.EncodeToString(randomBytes(32)),
		VOut: 1,
	}
}

func randomTxID(t *testing.T) domain.SwapTxID {
	txid, err := domain.SwapTxIDFromBytes(randomBytes(32))
	require.NoError(t, err)
	return txid
}

func randomBytes(num int) []byte {
	b := make([]byte, num)
	//nolint
	rand.Read(b)
	return b
}
