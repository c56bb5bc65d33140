// Command chainnode runs a single p2pchain node: it loads or creates a
// wallet key, restores a chain snapshot if one exists, optionally joins
// the libp2p network, optionally mines, and periodically snapshots its
// chain back to disk.
//
// Usage:
//
//	chainnode [--mine]   Run a node
//	chainnode --help     Show help
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainlab/p2pchain/config"
	klog "github.com/chainlab/p2pchain/internal/log"
	"github.com/chainlab/p2pchain/internal/node"
	"github.com/chainlab/p2pchain/internal/p2p"
	"github.com/chainlab/p2pchain/internal/storage"
	"github.com/chainlab/p2pchain/internal/wallet"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	snapshotInterval = 30 * time.Second
	mineInterval     = 10 * time.Second
	defaultWalletKey = "default"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("main")
	logger.Info().Str("network", string(cfg.Network)).Str("datadir", cfg.DataDir).Msg("starting chainnode")

	priv, pub, err := unlockWallet(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("wallet unlock failed")
	}
	logger.Info().Str("address", hex.EncodeToString(pub)).Msg("wallet unlocked")

	store, err := storage.Open(cfg.SnapshotDir())
	if err != nil {
		logger.Fatal().Err(err).Msg("open snapshot store")
	}
	defer store.Close()

	var n *node.Node
	if restored, ok, err := store.LoadSnapshot(); err != nil {
		logger.Fatal().Err(err).Msg("load snapshot")
	} else if ok {
		n = node.NewWithChain(pub, priv, restored)
		logger.Info().Int("height", restored.Height()).Msg("restored chain from snapshot")
	} else {
		n = node.New(pub, priv)
		logger.Info().Msg("starting from an empty chain")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var host *p2p.Host
	if cfg.P2P.Enabled {
		host, err = p2p.NewHost(p2p.HostConfig{
			ListenAddr: cfg.P2P.ListenAddr,
			Port:       cfg.P2P.Port,
			Seeds:      cfg.P2P.Seeds,
			NoDiscover: cfg.P2P.NoDiscover,
			DHTServer:  cfg.P2P.DHTServer,
			DataDir:    cfg.ChainDataDir(),
		}, n)
		if err != nil {
			logger.Fatal().Err(err).Msg("starting p2p host")
		}
		defer host.Close()
		for _, addr := range host.Addrs() {
			logger.Info().Str("addr", addr).Msg("listening")
		}
	}

	if cfg.Mining.Enabled {
		// MineBlock always pays the node's own wallet key — there is no
		// separate payee to configure, unlike a miner paying an address
		// it doesn't hold the key for.
		go mineLoop(ctx, n, host, logger)
	}

	go snapshotLoop(ctx, n, store, logger)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	cancel()
	if err := store.SaveSnapshot(n.GetBlockchain()); err != nil {
		logger.Error().Err(err).Msg("final snapshot save failed")
	}
}

// unlockWallet loads the default wallet if one exists, prompting for its
// passphrase, or creates one from a freshly generated mnemonic otherwise.
func unlockWallet(cfg *config.Config) (priv ed25519.PrivateKey, pub ed25519.PublicKey, err error) {
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open keystore: %w", err)
	}

	names, err := ks.List()
	if err != nil {
		return nil, nil, fmt.Errorf("list wallets: %w", err)
	}

	if len(names) == 0 {
		return createWallet(ks)
	}
	return unlockExistingWallet(ks)
}

func createWallet(ks *wallet.Keystore) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		return nil, nil, fmt.Errorf("generate mnemonic: %w", err)
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, nil, fmt.Errorf("derive seed: %w", err)
	}

	fmt.Fprintln(os.Stderr, "No wallet found. Generated a new one — write this mnemonic down, it is shown only once:")
	fmt.Fprintln(os.Stderr, mnemonic)

	password, err := readPassword("Set a passphrase to encrypt the keystore: ")
	if err != nil {
		return nil, nil, fmt.Errorf("read passphrase: %w", err)
	}

	if err := ks.Create(defaultWalletKey, seed, password, wallet.DefaultParams()); err != nil {
		return nil, nil, fmt.Errorf("create keystore: %w", err)
	}
	return wallet.DeriveKey(seed)
}

func unlockExistingWallet(ks *wallet.Keystore) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	password, err := readPassword("Keystore passphrase: ")
	if err != nil {
		return nil, nil, fmt.Errorf("read passphrase: %w", err)
	}
	return ks.LoadKey(defaultWalletKey, password)
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return password, nil
}

// mineLoop mints a block on a timer for as long as ctx is alive.
func mineLoop(ctx context.Context, n *node.Node, host *p2p.Host, logger zerolog.Logger) {
	ticker := time.NewTicker(mineInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h, err := n.MineBlock()
			if err != nil {
				logger.Debug().Err(err).Msg("mine skipped")
				continue
			}
			logger.Info().Str("hash", h.String()[:8]).Msg("mined block")
			if host != nil {
				host.AnnounceBlock(h)
			}
		}
	}
}

// snapshotLoop persists the chain to store on a timer for as long as ctx
// is alive.
func snapshotLoop(ctx context.Context, n *node.Node, store *storage.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.SaveSnapshot(n.GetBlockchain()); err != nil {
				logger.Error().Err(err).Msg("periodic snapshot save failed")
			}
		}
	}
}
