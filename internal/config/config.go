package config

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of the daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// ListenAddrKey is the host:port where the web interface will listen on
	ListenAddrKey = "LISTEN_ADDR"
	// ExplorerEndpointKey is the base URL of the esplora-style chain data provider
	ExplorerEndpointKey = "EXPLORER_ENDPOINT"
	// NetworkKey selects the bitcoin network (mainnet, testnet, signet, regtest)
	NetworkKey = "NETWORK"
	// WalletNameKey is the name of the single hot wallet managed by the daemon
	WalletNameKey = "WALLET_NAME"
	// SyncParallelismKey is the number of concurrent requests per sync cycle against the chain data provider
	SyncParallelismKey = "SYNC_PARALLELISM"

	// DbLocation is the subdirectory of the datadir holding the stores
	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("hotwalletd", false)

// InitConfig sets defaults and binds the HOTWALLET-prefixed environment.
func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("HOTWALLET")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(ListenAddrKey, "localhost:3000")
	vip.SetDefault(ExplorerEndpointKey, "https://mutinynet.com/api")
	vip.SetDefault(NetworkKey, wallet.NetworkSignet)
	vip.SetDefault(WalletNameKey, "primary")
	vip.SetDefault(SyncParallelismKey, 5)

	return validate()
}

func validate() error {
	if _, err := wallet.ChainParams(GetString(NetworkKey)); err != nil {
		return fmt.Errorf("invalid %s %q: %w", NetworkKey, GetString(NetworkKey), err)
	}
	if GetInt(SyncParallelismKey) < 1 {
		return fmt.Errorf("%s must be at least 1", SyncParallelismKey)
	}
	if len(GetString(ExplorerEndpointKey)) <= 0 {
		return fmt.Errorf("%s must not be empty", ExplorerEndpointKey)
	}
	if len(GetString(WalletNameKey)) <= 0 {
		return fmt.Errorf("%s must not be empty", WalletNameKey)
	}
	return nil
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}
