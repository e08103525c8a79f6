package main

// Package main is the node's command-line entrypoint: it wires the
// configuration loader, structured logger, embedded chain storage, and
// mining workflow collaborators into a running process, then blocks until
// an operator-requested shutdown.

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/prix-uniris/archethic-node/core"
	"github.com/prix-uniris/archethic-node/pkg/config"
)

var envFlag string

func main() {
	root := &cobra.Command{
		Use:   "archethic",
		Short: "Archethic permissioned-chain mining and storage node",
	}
	root.PersistentFlags().StringVar(&envFlag, "env", "", "environment overlay to merge onto the default config")
	root.AddCommand(newStartCommand())
	root.AddCommand(newDevnetCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the node's mining worker and storage subsystems",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context())
		},
	}
}

func runNode(ctx context.Context) error {
	cfg, err := config.Load(envFlag)
	if err != nil {
		return fmt.Errorf("archethic: load config: %w", err)
	}

	logger := logrus.New()
	if level, parseErr := logrus.ParseLevel(cfg.Logging.Level); parseErr == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.File != "" {
		f, openErr := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if openErr != nil {
			return fmt.Errorf("archethic: open log file: %w", openErr)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	index, err := core.NewChainIndex(core.ChainIndexConfig{
		DBPath:      cfg.Storage.DBPath,
		SubsetCount: cfg.Storage.SubsetCount,
		BloomFPP:    cfg.Storage.BloomFPP,
	}, logger)
	if err != nil {
		return fmt.Errorf("archethic: open chain index: %w", err)
	}
	defer index.Close()

	writer, err := core.NewChainWriter(core.ChainWriterConfig{
		DBPath:   cfg.Storage.DBPath,
		PoolSize: cfg.Mining.WriterPoolSize,
	}, index, logger)
	if err != nil {
		return fmt.Errorf("archethic: start chain writer: %w", err)
	}
	defer writer.Close()

	authorized := make([]core.NodeID, 0, len(cfg.Network.AuthorizedNodes))
	for _, n := range cfg.Network.AuthorizedNodes {
		authorized = append(authorized, core.NodeID(n))
	}
	transport, err := core.NewLibP2PTransport(core.LibP2PConfig{
		ListenAddr:      cfg.Network.ListenAddr,
		BootstrapPeers:  cfg.Network.BootstrapPeers,
		DiscoveryTag:    cfg.Network.DiscoveryTag,
		AuthorizedNodes: authorized,
	}, logger)
	if err != nil {
		return fmt.Errorf("archethic: start p2p transport: %w", err)
	}
	defer transport.Close()

	crypto := core.NewDefaultCrypto()
	election := core.NewDefaultElection(crypto)
	pendingValidation := core.NewDefaultPendingValidation(crypto)
	malicious := core.NewLoggingMaliciousDetection(logger)
	fetcher := core.NewTransactionContextFetcher(transport, cfg.Mining.PeerRPCTimeout)
	registry := core.NewWorkflowRegistry()

	selfPriv, selfPub, err := crypto.DeriveKeypair(make([]byte, 32), parseCurve(cfg.Mining.Curve))
	if err != nil {
		return fmt.Errorf("archethic: derive node keypair: %w", err)
	}

	newWorker := func() *core.MiningWorker {
		return core.NewMiningWorker(core.MiningWorkerConfig{
			Self:              core.NodeID(cfg.Network.ID),
			SelfPublicKey:     selfPub,
			SelfPrivateKey:    selfPriv,
			Curve:             parseCurve(cfg.Mining.Curve),
			HashAlgo:          parseHashAlgo(cfg.Mining.HashAlgo),
			Crypto:            crypto,
			Election:          election,
			PendingValidation: pendingValidation,
			Malicious:         malicious,
			P2P:               transport,
			Fetcher:           fetcher,
			Writer:            writer,
			Index:             index,
			Logger:            logger,
			GlobalTimeout:     cfg.Mining.GlobalTimeout,
		})
	}
	dispatcher := core.NewDispatcher(registry, newWorker, logger)
	transport.SetHandler(dispatcher.Handle)

	logger.WithFields(logrus.Fields{
		"network_id":  cfg.Network.ID,
		"listen_addr": cfg.Network.ListenAddr,
		"db_path":     cfg.Storage.DBPath,
	}).Info("node started")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info("shutting down")
	return nil
}

func parseCurve(name string) core.CurveID {
	switch name {
	case "secp256k1":
		return core.CurveSecp256k1
	case "secp256r1":
		return core.CurveSecp256r1
	default:
		return core.CurveEd25519
	}
}

func parseHashAlgo(name string) core.HashAlgo {
	switch name {
	case "sha512":
		return core.HashSHA512
	case "sha3_256":
		return core.HashSHA3_256
	case "sha3_512":
		return core.HashSHA3_512
	case "blake2b":
		return core.HashBlake2b
	case "blake3":
		return core.HashBlake3
	default:
		return core.HashSHA256
	}
}
