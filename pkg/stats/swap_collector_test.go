package stats_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/coinshift-network/swapd/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type swapLister struct {
	swaps []domain.Swap
	err   error
}

func (l swapLister) ListSwaps(_ context.Context) ([]domain.Swap, error) {
	return l.swaps, l.err
}

func TestSwapCollector(t *testing.T) {
	lister := swapLister{swaps: []domain.Swap{
		{ParentChain: domain.ParentChainBTC, State: domain.SwapStatePending, L2Amount: 100},
		{ParentChain: domain.ParentChainBTC, State: domain.SwapStatePending, L2Amount: 200},
		{ParentChain: domain.ParentChainLTC, State: domain.SwapStateClaimed, L2Amount: 50},
	}}

	collector := stats.NewSwapCollector(lister)
	require.Equal(t, 5, testutil.CollectAndCount(collector))

	expected := `
# HELP swapd_swaps Number of swaps by state and parent chain.
# TYPE swapd_swaps gauge
swapd_swaps{parent_chain="BTC",state="Pending"} 2
swapd_swaps{parent_chain="LTC",state="Claimed"} 1
`
	err := testutil.CollectAndCompare(
		collector, strings.NewReader(expected), "swapd_swaps",
	)
	require.NoError(t, err)

	expected = `
# HELP swapd_swaps_l2_amount Total sidechain amount of swaps by state and parent chain.
# TYPE swapd_swaps_l2_amount gauge
swapd_swaps_l2_amount{parent_chain="BTC",state="Pending"} 300
swapd_swaps_l2_amount{parent_chain="LTC",state="Claimed"} 50
`
	err = testutil.CollectAndCompare(
		collector, strings.NewReader(expected), "swapd_swaps_l2_amount",
	)
	require.NoError(t, err)
}

func TestFailingSwapCollector(t *testing.T) {
	collector := stats.NewSwapCollector(swapLister{err: fmt.Errorf("db closed")})

	expected := `
# HELP swapd_swaps_collector_up Whether the last read of the swap store succeeded.
# TYPE swapd_swaps_collector_up gauge
swapd_swaps_collector_up 0
`
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected))
	require.NoError(t, err)
}

func TestDumpMetrics(t *testing.T) {
	datadir := t.TempDir()

	registry := prometheus.NewRegistry()
	registry.MustRegister(stats.NewSwapCollector(swapLister{}))

	err := stats.DumpMetrics(registry, datadir)
	require.NoError(t, err)

	buf, err := os.ReadFile(filepath.Join(datadir, "stats"))
	require.NoError(t, err)
	require.Contains(t, string(buf), "swapd_swaps_collector_up")
}
