package config

import "fmt"

// Validate checks a Config for internally consistent values. It does not
// touch the filesystem or network.
func Validate(cfg *Config) error {
	switch cfg.Network {
	case Mainnet, Testnet:
	default:
		return fmt.Errorf("unknown network %q", cfg.Network)
	}

	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	if cfg.P2P.Enabled {
		if cfg.P2P.Port <= 0 || cfg.P2P.Port > 65535 {
			return fmt.Errorf("p2p.port %d out of range", cfg.P2P.Port)
		}
		if cfg.P2P.MaxPeers < 0 {
			return fmt.Errorf("p2p.maxpeers must not be negative")
		}
	}

	if cfg.Wallet.Enabled && cfg.Wallet.FilePath == "" {
		return fmt.Errorf("wallet.file must be set when wallet is enabled")
	}

	return nil
}
