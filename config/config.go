// Package config handles application configuration.
//
// Precedence, lowest to highest: built-in defaults, the on-disk config
// file, then command-line flags. Each layer only overrides the keys it
// actually sets.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds a node's runtime configuration.
type Config struct {
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	P2P    P2PConfig
	Wallet WalletConfig
	Mining MiningConfig
	Log    LogConfig
}

// P2PConfig holds peer-to-peer network settings.
type P2PConfig struct {
	Enabled    bool     `conf:"p2p.enabled"`
	ListenAddr string   `conf:"p2p.listen"`
	Port       int      `conf:"p2p.port"`
	Seeds      []string `conf:"p2p.seeds"`
	MaxPeers   int      `conf:"p2p.maxpeers"`
	NoDiscover bool     `conf:"p2p.nodiscover"`
	DHTServer  bool     `conf:"p2p.dhtserver"` // Run the Kademlia DHT in server mode (for seed nodes).
}

// WalletConfig holds wallet settings.
type WalletConfig struct {
	Enabled  bool   `conf:"wallet.enabled"`
	FilePath string `conf:"wallet.file"`
}

// MiningConfig holds block-production settings. There is no difficulty,
// thread count, or payee address here — mining this chain means minting
// one coinbase paying the node's own wallet key and cutting a block from
// the mempool, not searching for a nonce or crediting an external address.
type MiningConfig struct {
	Enabled bool `conf:"mining.enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.p2pchain
//	macOS:   ~/Library/Application Support/P2PChain
//	Windows: %APPDATA%\P2PChain
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".p2pchain"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "P2PChain")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "P2PChain")
		}
		return filepath.Join(home, "AppData", "Roaming", "P2PChain")
	default:
		return filepath.Join(home, ".p2pchain")
	}
}

// ChainDataDir returns the chain-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// SnapshotDir returns the directory the badger-backed chain/UTXO
// snapshot store is opened in.
func (c *Config) SnapshotDir() string {
	return filepath.Join(c.ChainDataDir(), "snapshot")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "p2pchain.conf")
}
