package main

// devnet and testnet commands spin up several mining workers wired
// together over an in-process P2P fabric instead of real libp2p hosts,
// each node with its own chain store in a temporary directory, for
// exercising the mining/replication workflow locally.

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prix-uniris/archethic-node/core"
)

// devnetManifest describes a fixed set of nodes to bootstrap together,
// read from a YAML file by the testnet command.
type devnetManifest struct {
	Nodes []devnetNodeSpec `yaml:"nodes"`
}

type devnetNodeSpec struct {
	ID       string `yaml:"id"`
	Curve    string `yaml:"curve"`
	HashAlgo string `yaml:"hash_algo"`
}

func newDevnetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devnet",
		Short: "Run an in-memory developer network of mining workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "start [node-count]",
		Short: "Launch N default-configured in-memory nodes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 3
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed <= 0 {
					return fmt.Errorf("invalid node count: %s", args[0])
				}
				n = parsed
			}
			specs := make([]devnetNodeSpec, n)
			for i := range specs {
				specs[i] = devnetNodeSpec{ID: fmt.Sprintf("node-%d", i+1)}
			}
			return runDevnet(cmd, specs)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "testnet-start [manifest.yaml]",
		Short: "Launch an in-memory network described by a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var manifest devnetManifest
			if err := yaml.Unmarshal(b, &manifest); err != nil {
				return fmt.Errorf("archethic: parse manifest: %w", err)
			}
			if len(manifest.Nodes) == 0 {
				return fmt.Errorf("archethic: manifest lists no nodes")
			}
			return runDevnet(cmd, manifest.Nodes)
		},
	})
	return cmd
}

// runDevnet wires one MiningWorker/Dispatcher pair per node definition onto
// a shared InMemoryP2P fabric, each backed by its own temporary chain
// store, and blocks until the operator requests shutdown.
func runDevnet(cmd *cobra.Command, specs []devnetNodeSpec) error {
	logger := logrus.New()
	fabric := core.NewInMemoryP2P(nil)

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	for _, spec := range specs {
		dbPath, err := os.MkdirTemp("", "archethic_devnet_"+spec.ID)
		if err != nil {
			return fmt.Errorf("archethic: create devnet storage for %s: %w", spec.ID, err)
		}
		closers = append(closers, func() error { return os.RemoveAll(dbPath) })

		index, err := core.NewChainIndex(core.ChainIndexConfig{DBPath: dbPath}, logger)
		if err != nil {
			return fmt.Errorf("archethic: open devnet chain index for %s: %w", spec.ID, err)
		}
		closers = append(closers, index.Close)

		writer, err := core.NewChainWriter(core.ChainWriterConfig{DBPath: dbPath}, index, logger)
		if err != nil {
			return fmt.Errorf("archethic: start devnet chain writer for %s: %w", spec.ID, err)
		}
		closers = append(closers, writer.Close)

		crypto := core.NewDefaultCrypto()
		election := core.NewDefaultElection(crypto)
		curve := parseCurve(spec.Curve)
		hashAlgo := parseHashAlgo(spec.HashAlgo)
		selfPriv, selfPub, err := crypto.DeriveKeypair(make([]byte, 32), curve)
		if err != nil {
			return fmt.Errorf("archethic: derive devnet keypair for %s: %w", spec.ID, err)
		}

		nodeID := core.NodeID(spec.ID)
		registry := core.NewWorkflowRegistry()
		newWorker := func() *core.MiningWorker {
			return core.NewMiningWorker(core.MiningWorkerConfig{
				Self:              nodeID,
				SelfPublicKey:     selfPub,
				SelfPrivateKey:    selfPriv,
				Curve:             curve,
				HashAlgo:          hashAlgo,
				Crypto:            crypto,
				Election:          election,
				PendingValidation: core.NewDefaultPendingValidation(crypto),
				Malicious:         core.NewLoggingMaliciousDetection(logger),
				P2P:               fabric,
				Fetcher:           core.NewTransactionContextFetcher(fabric, 0),
				Writer:            writer,
				Index:             index,
				Logger:            logger,
			})
		}
		dispatcher := core.NewDispatcher(registry, newWorker, logger)
		fabric.Register(nodeID, dispatcher.Handle)
	}

	logger.WithField("node_count", len(specs)).Info("devnet started")

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info("devnet shutting down")
	return nil
}
