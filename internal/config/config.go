package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/coinshift-network/swapd/internal/core/domain"
	"github.com/spf13/viper"
	"github.com/vulpemventures/go-elements/network"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the network of the sidechain addresses, one of mainnet,
	// testnet or regtest
	NetworkKey = "NETWORK"
	// L2AssetKey is the hex id of the native asset of the sidechain
	L2AssetKey = "L2_ASSET"
	// OracleRPCHostKey is the host:port of the parent chain node's RPC server.
	// The oracle watcher is started only if defined.
	OracleRPCHostKey = "ORACLE_RPC_HOST"
	// OracleRPCUserKey is the user for the parent chain node's RPC server
	OracleRPCUserKey = "ORACLE_RPC_USER"
	// OracleRPCPasswordKey is the password for the parent chain node's RPC server
	OracleRPCPasswordKey = "ORACLE_RPC_PASSWORD"
	// OracleParentChainKey is the parent chain observed by the oracle
	OracleParentChainKey = "ORACLE_PARENT_CHAIN"
	// OraclePollIntervalKey is the interval in seconds between two checks of
	// the pending swaps
	OraclePollIntervalKey = "ORACLE_POLL_INTERVAL"
	// OracleRequestsPerSecondKey caps the rate of requests to the node
	OracleRequestsPerSecondKey = "ORACLE_REQUESTS_PER_SECOND"
	// EnableMetricsKey enables the prometheus endpoint
	EnableMetricsKey = "ENABLE_METRICS"
	// MetricsAddrKey is the address the prometheus endpoint listens on
	MetricsAddrKey = "METRICS_ADDR"
	// StatsIntervalKey defines interval in seconds for logging memory statistics
	StatsIntervalKey = "STATS_INTERVAL"
	// WebhookTimeoutKey is the timeout in seconds of every webhook request
	WebhookTimeoutKey = "WEBHOOK_TIMEOUT"

	DbLocation = "db"

	networkMainnet = "mainnet"
	networkTestnet = "testnet"
	networkRegtest = "regtest"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("swapd", false)

var networks = map[string]*network.Network{
	networkMainnet: &network.Liquid,
	networkTestnet: &network.Testnet,
	networkRegtest: &network.Regtest,
}

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("SWAPD")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, networkRegtest)
	vip.SetDefault(L2AssetKey, network.Regtest.AssetID)
	vip.SetDefault(OracleParentChainKey, domain.ParentChainRegtest.String())
	vip.SetDefault(OraclePollIntervalKey, 10)
	vip.SetDefault(OracleRequestsPerSecondKey, 10)
	vip.SetDefault(EnableMetricsKey, false)
	vip.SetDefault(MetricsAddrKey, ":9090")
	vip.SetDefault(StatsIntervalKey, 600)
	vip.SetDefault(WebhookTimeoutKey, 15)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetDuration returns the value of key, expressed in seconds, as a duration.
func GetDuration(key string) time.Duration {
	return time.Duration(vip.GetInt(key)) * time.Second
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

func GetNetwork() *network.Network {
	return networks[GetString(NetworkKey)]
}

func GetParentChain() domain.ParentChain {
	chain, _ := domain.ParseParentChain(GetString(OracleParentChainKey))
	return chain
}

func IsOracleEnabled() bool {
	return len(GetString(OracleRPCHostKey)) > 0
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, ok := networks[GetString(NetworkKey)]; !ok {
		return fmt.Errorf(
			"%s must be one of %s, %s, %s",
			NetworkKey, networkMainnet, networkTestnet, networkRegtest,
		)
	}

	if buf, err := hex.DecodeString(GetString(L2AssetKey)); err != nil || len(buf) != 32 {
		return fmt.Errorf("%s must be a 32-byte hex string", L2AssetKey)
	}

	if IsOracleEnabled() {
		if _, err := domain.ParseParentChain(GetString(OracleParentChainKey)); err != nil {
			return fmt.Errorf("%s: %s", OracleParentChainKey, err)
		}
		if GetInt(OraclePollIntervalKey) <= 0 {
			return fmt.Errorf("%s must be a positive number of seconds", OraclePollIntervalKey)
		}
		if GetInt(OracleRequestsPerSecondKey) <= 0 {
			return fmt.Errorf("%s must be positive", OracleRequestsPerSecondKey)
		}
	}

	if GetInt(WebhookTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be a positive number of seconds", WebhookTimeoutKey)
	}

	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(GetDbDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
