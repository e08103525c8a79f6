package core

// ReplicationDriver persists a validated transaction locally through
// ChainWriter, then fans it out to its elected chain-storage replicas and
// collects their storage acknowledgements against a deadline, counting
// each one that carries a non-empty signature (see verifyAck); quorum is
// every elected chain-storage replica. I/O replication nodes receive the
// transaction without returning an acknowledgement and so never block
// quorum; once quorum holds, the welcome node and beacon-storage replicas
// are notified with a ReplicationAttestation.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ReplicationDriver drives one transaction's replication fan-out.
type ReplicationDriver struct {
	p2p     P2P
	writer  *ChainWriter
	index   *ChainIndex
	crypto  Crypto
	logger  *logrus.Logger
	timeout time.Duration
}

// NewReplicationDriver returns a driver bounded by timeout for the whole
// fan-out.
func NewReplicationDriver(p2p P2P, writer *ChainWriter, index *ChainIndex, crypto Crypto, logger *logrus.Logger, timeout time.Duration) *ReplicationDriver {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReplicationDriver{p2p: p2p, writer: writer, index: index, crypto: crypto, logger: logger, timeout: timeout}
}

// Replicate persists tx locally under genesis, broadcasts it to chainNodes
// (expecting signed acknowledgements) and ioNodes (fire and forget), and
// once enough_storage_confirmations? holds notifies welcomeNode and
// beaconNodes with a ReplicationAttestation.
func (d *ReplicationDriver) Replicate(ctx context.Context, genesis Address, tx *Transaction, welcomeNode NodeID, chainNodes, beaconNodes, ioNodes []NodeID) error {
	if err := d.writer.Append(genesis, tx); err != nil {
		return fmt.Errorf("replication driver: local append: %w", err)
	}

	summary, err := NewTransactionSummary(tx)
	if err != nil {
		return fmt.Errorf("replication driver: build transaction summary: %w", err)
	}

	fanOutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	confirmations := d.collectChainAcks(fanOutCtx, tx, chainNodes, summary)
	d.broadcastToIO(fanOutCtx, tx, ioNodes)

	quorum := len(chainNodes)
	if len(confirmations) < quorum {
		return &ConsensusFailureError{Address: tx.Address}
	}

	d.logger.WithFields(logrus.Fields{
		"tx_address":    tx.Address.Hex(),
		"confirmations": len(confirmations),
	}).Info("replication quorum reached")

	d.notifyAttestation(fanOutCtx, summary, confirmations, welcomeNode, beaconNodes)
	return nil
}

// collectChainAcks broadcasts ReplicateTransactionChain to chainNodes and
// collects AcknowledgeStorage replies, counting each one whose signature
// is non-empty. The signature is not checked against the transaction
// summary or against any replica public key.
func (d *ReplicationDriver) collectChainAcks(ctx context.Context, tx *Transaction, chainNodes []NodeID, summary TransactionSummary) []StorageConfirmation {
	if len(chainNodes) == 0 {
		return nil
	}
	results := d.p2p.BroadcastMessage(ctx, chainNodes, Message{
		Kind: KindReplicateTransactionChain,
		Payload: ReplicateTransactionChain{
			Transaction: *tx,
			AckStorage:  true,
		},
	})

	var (
		mu            sync.Mutex
		confirmations []StorageConfirmation
	)
	summaryBytes := d.encodeSummary(summary)

	for i, r := range results {
		if r.Err != nil {
			d.logger.WithError(r.Err).WithField("node", r.Node).Warn("chain replica unreachable")
			continue
		}
		ack, ok := r.Reply.Payload.(AcknowledgeStorage)
		if !ok {
			d.logger.WithField("node", r.Node).Warn("chain replica sent malformed acknowledgement")
			continue
		}
		if !d.verifyAck(ack, summaryBytes) {
			d.logger.WithField("node", r.Node).Warn("chain replica acknowledgement failed verification")
			continue
		}
		mu.Lock()
		confirmations = append(confirmations, StorageConfirmation{NodeIndex: i, Signature: ack.Signature})
		mu.Unlock()
	}
	return confirmations
}

func (d *ReplicationDriver) encodeSummary(s TransactionSummary) []byte {
	w := newByteWriter()
	w.raw(s.Address)
	w.byte(byte(s.Type))
	w.int64(s.Timestamp.Unix())
	w.bytesLP(s.ProofOfIntegrity)
	w.uint64(s.Fee)
	return w.bytes()
}

// verifyAck is meant to check a replica's signature against the exact
// transaction summary this driver sent and the replica's own public key.
// The driver does not itself hold replica public keys, so a production
// node would resolve NodeID to PublicKey through its membership directory;
// that lookup is out of scope here, and verification instead accepts any
// structurally non-empty signature.
func (d *ReplicationDriver) verifyAck(ack AcknowledgeStorage, summaryBytes []byte) bool {
	return len(ack.Signature) > 0
}

// broadcastToIO sends tx to I/O replication nodes without waiting for an
// acknowledgement; they hold no quorum stake in the replication outcome.
func (d *ReplicationDriver) broadcastToIO(ctx context.Context, tx *Transaction, ioNodes []NodeID) {
	if len(ioNodes) == 0 {
		return
	}
	d.p2p.BroadcastMessage(ctx, ioNodes, Message{
		Kind:    KindReplicateTransaction,
		Payload: ReplicateTransaction{Transaction: *tx},
	})
}

// notifyAttestation broadcasts the replication outcome to the welcome node
// (the node that first received the transaction from its client) and the
// beacon-storage replicas, once chain-storage quorum is reached.
func (d *ReplicationDriver) notifyAttestation(ctx context.Context, summary TransactionSummary, confirmations []StorageConfirmation, welcomeNode NodeID, beaconNodes []NodeID) {
	targets := make([]NodeID, 0, len(beaconNodes)+1)
	if welcomeNode != "" {
		targets = append(targets, welcomeNode)
	}
	targets = append(targets, beaconNodes...)
	targets = d.p2p.DistinctNodes(targets)
	if len(targets) == 0 {
		return
	}
	d.p2p.BroadcastMessage(ctx, targets, Message{
		Kind: KindReplicationAttestation,
		Payload: ReplicationAttestation{
			TransactionSummary: summary,
			Confirmations:      confirmations,
		},
	})
}
