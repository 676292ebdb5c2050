package swap_test

import (
	"context"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// **** Wallet ****

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) SelectInputs(
	ctx context.Context, amount uint64,
) ([]domain.Utxo, error) {
	args := m.Called(ctx, amount)

	var res []domain.Utxo
	if a := args.Get(0); a != nil {
		res = a.([]domain.Utxo)
	}
	return res, args.Error(1)
}

func (m *mockWallet) NewAddress(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

// **** Accumulator ****

type snapshot string

func (s snapshot) Tip() string {
	return string(s)
}

type mockAccumulator struct {
	mock.Mock
}

func (m *mockAccumulator) TipSnapshot(
	ctx context.Context,
) (ports.AccumulatorSnapshot, error) {
	args := m.Called(ctx)

	var res ports.AccumulatorSnapshot
	if a := args.Get(0); a != nil {
		res = a.(ports.AccumulatorSnapshot)
	}
	return res, args.Error(1)
}

func (m *mockAccumulator) ProveMembership(
	snapshot ports.AccumulatorSnapshot, outpoint domain.Outpoint,
) bool {
	args := m.Called(snapshot, outpoint)
	return args.Bool(0)
}

// **** Oracle ****

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) ParentChain() domain.ParentChain {
	args := m.Called()
	return args.Get(0).(domain.ParentChain)
}

func (m *mockOracle) GetBlockCount(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockOracle) ObserveTransaction(
	ctx context.Context, txid domain.SwapTxID, address string,
) (*domain.L1Observation, error) {
	args := m.Called(ctx, txid, address)

	var res *domain.L1Observation
	if a := args.Get(0); a != nil {
		res = a.(*domain.L1Observation)
	}
	return res, args.Error(1)
}

// **** PubSub ****

type mockPubSub struct {
	mock.Mock
}

func (m *mockPubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	args := m.Called(topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) Unsubscribe(topic, id string) error {
	args := m.Called(topic, id)
	return args.Error(0)
}

func (m *mockPubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	args := m.Called(topic)

	var res []ports.Subscription
	if a := args.Get(0); a != nil {
		res = a.([]ports.Subscription)
	}
	return res
}

func (m *mockPubSub) Publish(topic string, message string) error {
	args := m.Called(topic, message)
	return args.Error(0)
}

func (m *mockPubSub) Close() {
	m.Called()
}
