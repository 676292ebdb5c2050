package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coinshift-network/swapd/internal/config"
	"github.com/coinshift-network/swapd/internal/core/application/pubsub"
	"github.com/coinshift-network/swapd/internal/core/application/swap"
	"github.com/coinshift-network/swapd/internal/infrastructure/oracle/bitcoind"
	webhookpubsub "github.com/coinshift-network/swapd/internal/infrastructure/pubsub/webhook"
	dbbadger "github.com/coinshift-network/swapd/internal/infrastructure/storage/db/badger"
	"github.com/coinshift-network/swapd/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to initialize config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	datadir := config.GetDatadir()
	dbDir := config.GetDbDir()

	repoManager, err := dbbadger.NewRepoManager(dbDir, log.StandardLogger())
	if err != nil {
		log.WithError(err).Fatal("failed to open swaps db")
	}
	defer repoManager.Close()

	webhookPubSub, err := webhookpubsub.NewWebhookPubSubService(
		dbDir, log.StandardLogger(),
		config.GetDuration(config.WebhookTimeoutKey), pubsub.Events...,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to open webhooks db")
	}
	pubsubSvc := pubsub.NewService(webhookPubSub)
	defer pubsubSvc.Close()

	swapSvc, err := swap.NewService(
		repoManager, pubsubSvc, config.GetNetwork(), config.GetString(config.L2AssetKey),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize swap service")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.IsOracleEnabled() {
		oracle, err := bitcoind.NewOracle(bitcoind.Config{
			Host:              config.GetString(config.OracleRPCHostKey),
			User:              config.GetString(config.OracleRPCUserKey),
			Password:          config.GetString(config.OracleRPCPasswordKey),
			ParentChain:       config.GetParentChain(),
			RequestsPerSecond: config.GetInt(config.OracleRequestsPerSecondKey),
		})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize parent chain oracle")
		}
		defer oracle.Close()

		watcher := swap.NewWatcher(
			swapSvc, oracle, config.GetDuration(config.OraclePollIntervalKey),
		)
		watcher.Start()
		defer watcher.Stop()
	} else {
		log.Info("oracle not configured, pending swaps won't be observed")
	}

	if config.GetBool(config.EnableMetricsKey) {
		server := startMetricsServer(ctx, swapSvc, datadir)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("error while stopping metrics server")
			}
		}()
	}

	logWebhooks(pubsubSvc)
	log.Info("swapd started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down swapd")
}

func startMetricsServer(
	ctx context.Context, swapSvc *swap.Service, datadir string,
) *http.Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		stats.NewSwapCollector(swapSvc),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	stats.EnableMemoryStatistics(
		ctx, config.GetDuration(config.StatsIntervalKey), registry, datadir,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              config.GetString(config.MetricsAddrKey),
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		log.Infof("metrics endpoint listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics server stopped")
		}
	}()
	return server
}

func logWebhooks(pubsubSvc *pubsub.Service) {
	for _, event := range pubsub.Events {
		hooks, err := pubsubSvc.ListWebhooks(context.Background(), event)
		if err != nil {
			continue
		}
		log.Debugf("%d webhook(s) registered for event %s", len(hooks), event)
	}
}
