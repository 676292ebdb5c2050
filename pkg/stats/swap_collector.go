package stats

import (
	"context"
	"time"

	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	namespace      = "swapd"
	collectTimeout = 5 * time.Second
)

// SwapLister is satisfied by the swap service.
type SwapLister interface {
	ListSwaps(ctx context.Context) ([]domain.Swap, error)
}

// SwapCollector exposes the number of swaps and their locked sidechain value
// by state and parent chain. Swaps are read from the store at every scrape.
type SwapCollector struct {
	lister SwapLister

	swapsDesc  *prometheus.Desc
	amountDesc *prometheus.Desc
	upDesc     *prometheus.Desc
}

func NewSwapCollector(lister SwapLister) *SwapCollector {
	labels := []string{"state", "parent_chain"}
	return &SwapCollector{
		lister: lister,
		swapsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "swaps"),
			"Number of swaps by state and parent chain.",
			labels, nil,
		),
		amountDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "swaps_l2_amount"),
			"Total sidechain amount of swaps by state and parent chain.",
			labels, nil,
		),
		upDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "swaps_collector_up"),
			"Whether the last read of the swap store succeeded.",
			nil, nil,
		),
	}
}

func (c *SwapCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.swapsDesc
	ch <- c.amountDesc
	ch <- c.upDesc
}

func (c *SwapCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	swaps, err := c.lister.ListSwaps(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to collect swap metrics")
		ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, 1)

	type key struct {
		state string
		chain string
	}
	counts := make(map[key]float64)
	amounts := make(map[key]float64)
	for _, s := range swaps {
		k := key{s.State.String(), s.ParentChain.String()}
		counts[k]++
		amounts[k] += float64(s.L2Amount)
	}

	for k, count := range counts {
		ch <- prometheus.MustNewConstMetric(
			c.swapsDesc, prometheus.GaugeValue, count, k.state, k.chain,
		)
		ch <- prometheus.MustNewConstMetric(
			c.amountDesc, prometheus.GaugeValue, amounts[k], k.state, k.chain,
		)
	}
}
