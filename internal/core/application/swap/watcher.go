package swap

import (
	"context"
	"sync"
	"time"

	"github.com/coinshift-network/swapd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// Watcher periodically asks the parent chain oracle about the l1 transactions
// of Pending swaps and feeds the observations to the swap service.
//
// A probe goroutine checks the connection with the oracle and sends every
// status change over a bounded channel to the poller, which skips polling
// while the oracle is unreachable.
type Watcher struct {
	svc          *Service
	oracle       ports.ParentChainOracle
	pollInterval time.Duration

	statusCh chan bool
	quitCh   chan struct{}
	wg       *sync.WaitGroup
}

func NewWatcher(
	svc *Service, oracle ports.ParentChainOracle, pollInterval time.Duration,
) *Watcher {
	return &Watcher{
		svc:          svc,
		oracle:       oracle,
		pollInterval: pollInterval,
		statusCh:     make(chan bool, 1),
		quitCh:       make(chan struct{}),
		wg:           &sync.WaitGroup{},
	}
}

func (w *Watcher) Start() {
	log.Infof(
		"start watching %s swaps every %s", w.oracle.ParentChain(), w.pollInterval,
	)

	w.wg.Add(2)
	go w.probe()
	go w.poll()
}

func (w *Watcher) Stop() {
	close(w.quitCh)
	w.wg.Wait()
	log.Infof("stopped watching %s swaps", w.oracle.ParentChain())
}

// CheckPendingSwaps observes the l1 transaction of every Pending swap of the
// oracle's parent chain for which one is known. It returns the number of
// swaps that were updated.
func (w *Watcher) CheckPendingSwaps(ctx context.Context) (int, error) {
	swaps, err := w.svc.ListPendingSwaps(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	for _, swap := range swaps {
		if swap.ParentChain != w.oracle.ParentChain() || swap.L1TxID == nil {
			continue
		}

		obs, err := w.oracle.ObserveTransaction(
			ctx, *swap.L1TxID, swap.L1RecipientAddress,
		)
		if err != nil {
			log.WithError(err).Warnf(
				"failed to observe l1 tx %s of swap %s", swap.L1TxID, swap.ID,
			)
			continue
		}
		if obs == nil || obs.Confirmations <= swap.Confirmations {
			continue
		}

		if _, err := w.svc.ObserveL1(ctx, swap.ID, *obs); err != nil {
			log.WithError(err).Warnf("failed to update swap %s", swap.ID)
			continue
		}
		count++
	}
	return count, nil
}

func (w *Watcher) probe() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var lastStatus *bool
	for {
		ctx, cancel := context.WithTimeout(context.Background(), w.pollInterval)
		_, err := w.oracle.GetBlockCount(ctx)
		cancel()

		connected := err == nil
		if lastStatus == nil || *lastStatus != connected {
			if !connected {
				log.WithError(err).Warnf(
					"%s oracle is unreachable", w.oracle.ParentChain(),
				)
			}
			select {
			case w.statusCh <- connected:
				lastStatus = &connected
			case <-w.quitCh:
				return
			}
		}

		select {
		case <-ticker.C:
		case <-w.quitCh:
			return
		}
	}
}

func (w *Watcher) poll() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var connected bool
	for {
		select {
		case status := <-w.statusCh:
			if status != connected {
				log.Infof(
					"%s oracle connection status: connected=%t",
					w.oracle.ParentChain(), status,
				)
			}
			connected = status
		case <-ticker.C:
			if !connected {
				log.Debugf("%s oracle not connected, skip polling", w.oracle.ParentChain())
				continue
			}
			count, err := w.CheckPendingSwaps(context.Background())
			if err != nil {
				log.WithError(err).Warn("failed to check pending swaps")
				continue
			}
			log.Debugf("updated %d pending swaps", count)
		case <-w.quitCh:
			return
		}
	}
}

