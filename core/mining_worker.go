package core

// MiningWorker drives one transaction through the full validation and
// replication workflow as a finite-state machine:
// idle -> coordinator|cross_validator -> wait_cross_validation_stamps ->
// replication -> stop, with a consensus_not_reached branch when atomic
// commitment fails. Each instance owns a single
// mailbox goroutine; the Start methods also update the context from the
// caller's goroutine, so state and context are guarded by the worker's
// mutex, and ValidationContext itself needs no lock.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WorkerState names the MiningWorker's current phase.
type WorkerState string

const (
	StateIdle                      WorkerState = "idle"
	StateCoordinator               WorkerState = "coordinator"
	StateCrossValidator            WorkerState = "cross_validator"
	StateWaitCrossValidationStamps WorkerState = "wait_cross_validation_stamps"
	StateReplication               WorkerState = "replication"
	StateConsensusNotReached       WorkerState = "consensus_not_reached"
	StateStop                      WorkerState = "stop"
)

// MiningWorkerConfig bundles the collaborators and timing parameters a
// MiningWorker needs.
type MiningWorkerConfig struct {
	Self           NodeID
	SelfPublicKey  PublicKey
	SelfPrivateKey []byte
	Curve          CurveID
	HashAlgo       HashAlgo

	Crypto             Crypto
	Election           Election
	PendingValidation  PendingTransactionValidation
	Malicious          MaliciousDetection
	P2P                P2P
	Fetcher            *TransactionContextFetcher
	Writer             *ChainWriter
	Index              *ChainIndex
	Logger             *logrus.Logger

	GlobalTimeout time.Duration // caps idle..replication, default below
}

const defaultGlobalMiningTimeout = 30 * time.Second

func (c MiningWorkerConfig) withDefaults() MiningWorkerConfig {
	if c.GlobalTimeout <= 0 {
		c.GlobalTimeout = defaultGlobalMiningTimeout
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
	return c
}

// MiningWorker is the per-transaction state machine.
type MiningWorker struct {
	cfg MiningWorkerConfig

	mu          sync.Mutex
	state       WorkerState
	vctx        *ValidationContext
	replication *ReplicationDriver
	postponed   []Message

	mailbox           chan Message
	waitConfirmations <-chan time.Time
	replicationResult chan error
	done              chan struct{}
	result            chan error
}

// NewMiningWorker constructs a MiningWorker, idle, not yet started.
func NewMiningWorker(cfg MiningWorkerConfig) *MiningWorker {
	cfg = cfg.withDefaults()
	return &MiningWorker{
		cfg:               cfg,
		state:             StateIdle,
		mailbox:           make(chan Message, 64),
		replicationResult: make(chan error, 1),
		done:              make(chan struct{}),
		result:            make(chan error, 1),
	}
}

// State returns the worker's current phase.
func (w *MiningWorker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Deliver enqueues an inbound message for the worker's mailbox goroutine.
// It does not block on processing.
func (w *MiningWorker) Deliver(msg Message) {
	select {
	case w.mailbox <- msg:
	case <-w.done:
	}
}

// Wait blocks until the worker reaches a terminal state and returns the
// workflow's outcome error, nil on successful replication.
func (w *MiningWorker) Wait() error {
	return <-w.result
}

// StartAsCoordinator admits tx for mining with this node acting as
// coordinator: it runs structural validation, elects the validation
// committee, gathers its own chain context, and broadcasts AddMiningContext
// to the elected cross validators, then begins the mailbox loop. If every
// validator confirms synchronously, the validation stamp is built right
// away; otherwise a wait_confirmations timer is armed and, once it fires,
// run builds the stamp from the validators that answered the broadcast
// (or stops if none did). Confirmations are counted only from that
// broadcast round; later messages do not add to them.
func (w *MiningWorker) StartAsCoordinator(ctx context.Context, tx *Transaction, candidateNodes []NodeID, now time.Time) error {
	if err := w.cfg.PendingValidation.Validate(tx); err != nil {
		return err
	}

	validationNodes := w.cfg.Election.ValidationNodesElectionSeedSorting(tx, now, candidateNodes)
	w.mu.Lock()
	w.vctx = NewValidationContext(tx, w.cfg.SelfPublicKey, validationNodes, now)
	w.state = StateCoordinator
	w.mu.Unlock()
	w.redeliverPostponed(ctx)

	chainView, beaconView, previousKeys, unspentOutputs, previousTx, retrievalDuration := w.buildTransactionContext(ctx, tx, candidateNodes)
	w.mu.Lock()
	w.vctx = w.vctx.
		WithStorageNodes(toNodeIDs(chainView), toNodeIDs(beaconView), previousKeys).
		WithChainContext(unspentOutputs, previousTx)
	w.mu.Unlock()

	broadcastCtx, cancel := context.WithTimeout(ctx, w.cfg.GlobalTimeout)
	defer cancel()
	results := w.cfg.P2P.BroadcastMessage(broadcastCtx, validationNodes, Message{
		Kind: KindAddMiningContext,
		From: w.cfg.Self,
		Payload: AddMiningContext{
			TxAddress:                      tx.Address,
			ValidatorPublicKey:             w.cfg.SelfPublicKey,
			ChainStorageNodesView:          chainView,
			BeaconStorageNodesView:         beaconView,
			PreviousStorageNodesPublicKeys: previousKeys,
		},
	})

	for i, r := range results {
		if r.Err != nil {
			w.cfg.Logger.WithError(r.Err).WithField("node", r.Node).Warn("cross validator unreachable")
			continue
		}
		w.mu.Lock()
		w.vctx = w.vctx.WithConfirmedValidator(i)
		w.mu.Unlock()
	}

	w.mu.Lock()
	vctx := w.vctx
	alreadyAdvanced := w.state != StateCoordinator
	w.mu.Unlock()

	if alreadyAdvanced {
		go w.run(ctx)
		return nil
	}

	if vctx.EnoughConfirmations() {
		if err := w.buildAndBroadcastValidationStamp(ctx, vctx); err != nil {
			w.cfg.Logger.WithError(err).Warn("mining worker failed to build validation stamp")
			close(w.done)
			return nil
		}
		go w.run(ctx)
		return nil
	}

	timer := time.NewTimer(waitConfirmationsDuration(retrievalDuration, len(validationNodes)))
	w.waitConfirmations = timer.C
	go w.run(ctx)
	return nil
}

// waitConfirmationsDuration bounds how long the coordinator waits for
// cross-validator confirmations: the time this node's own context
// retrieval took plus 500ms, multiplied by the number of validators.
func waitConfirmationsDuration(contextRetrievalDuration time.Duration, numValidators int) time.Duration {
	if numValidators < 1 {
		numValidators = 1
	}
	return (contextRetrievalDuration + 500*time.Millisecond) * time.Duration(numValidators)
}

// buildTransactionContext queries tx's elected previous-chain storage nodes
// for their view of unspent outputs, the last chained transaction, and
// chain/beacon storage availability, folding the replies into bitstrings
// indexed against candidateNodes. It also reports how long the round trip
// took, since the coordinator's wait_confirmations deadline scales with it.
func (w *MiningWorker) buildTransactionContext(ctx context.Context, tx *Transaction, candidateNodes []NodeID) (chainView, beaconView Bitstring, previousKeys []PublicKey, unspentOutputs []UnspentOutput, previousTx *Transaction, elapsed time.Duration) {
	chainView = NewBitstring(len(candidateNodes))
	beaconView = NewBitstring(len(candidateNodes))
	if w.cfg.Fetcher == nil || len(candidateNodes) == 0 {
		return chainView, beaconView, nil, nil, nil, 0
	}

	previousStorageNodes := w.cfg.Election.ChainStorageNodesWithType(tx.Address, tx.Type, candidateNodes)
	start := time.Now()
	contexts := w.cfg.Fetcher.Fetch(ctx, tx.Address, previousStorageNodes)
	elapsed = time.Since(start)

	index := make(map[NodeID]int, len(candidateNodes))
	for i, n := range candidateNodes {
		index[n] = i
	}
	seenKeys := make(map[string]struct{})
	for _, c := range Successful(contexts) {
		if i, ok := index[c.Node]; ok {
			chainView.Set(i)
			beaconView.Set(i)
		}
		for _, k := range c.PreviousStorageNodesPublicKeys {
			sk := string(k)
			if _, dup := seenKeys[sk]; dup {
				continue
			}
			seenKeys[sk] = struct{}{}
			previousKeys = append(previousKeys, k)
		}
		unspentOutputs = append(unspentOutputs, c.UnspentOutputs...)
		if previousTx == nil && c.PreviousTransaction != nil {
			previousTx = c.PreviousTransaction
		}
	}
	return chainView, beaconView, previousKeys, unspentOutputs, previousTx, elapsed
}

// StartAsCrossValidator admits this node into an in-flight mining round as
// a cross validator, seeded with the transaction, coordinator key and
// validation nodes carried by the coordinator's CrossValidate, after
// gathering its own view of chain context the same way the coordinator
// does.
func (w *MiningWorker) StartAsCrossValidator(ctx context.Context, tx *Transaction, coordinator PublicKey, validationNodes []NodeID, now time.Time) {
	w.mu.Lock()
	w.vctx = NewValidationContext(tx, coordinator, validationNodes, now)
	w.state = StateCrossValidator
	w.mu.Unlock()
	w.redeliverPostponed(ctx)

	chainView, beaconView, previousKeys, unspentOutputs, previousTx, _ := w.buildTransactionContext(ctx, tx, validationNodes)
	w.mu.Lock()
	w.vctx = w.vctx.
		WithStorageNodes(toNodeIDs(chainView), toNodeIDs(beaconView), previousKeys).
		WithChainContext(unspentOutputs, previousTx)
	w.mu.Unlock()

	go w.run(ctx)
}

func (w *MiningWorker) run(ctx context.Context) {
	timer := time.NewTimer(w.cfg.GlobalTimeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-w.mailbox:
			if err := w.handle(ctx, msg); err != nil {
				w.cfg.Logger.WithError(err).Warn("mining worker message handling failed")
			}
			if w.terminal() {
				close(w.done)
				return
			}
		case <-w.waitConfirmations:
			w.mu.Lock()
			vctx := w.vctx
			w.mu.Unlock()
			if err := w.buildAndBroadcastValidationStamp(ctx, vctx); err != nil {
				w.cfg.Logger.WithError(err).Warn("mining worker failed to build validation stamp")
			}
			if w.terminal() {
				close(w.done)
				return
			}
		case err := <-w.replicationResult:
			w.mu.Lock()
			w.state = StateStop
			w.mu.Unlock()
			w.result <- err
			close(w.done)
			return
		case <-timer.C:
			w.fail(fmt.Errorf("mining worker: global timeout exceeded"))
			close(w.done)
			return
		case <-ctx.Done():
			w.fail(ctx.Err())
			close(w.done)
			return
		}
	}
}

func (w *MiningWorker) terminal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == StateConsensusNotReached || w.state == StateStop
}

// postpone queues msg for redelivery once the worker's state moves on from
// the one that could not yet handle it.
func (w *MiningWorker) postpone(msg Message) {
	w.mu.Lock()
	w.postponed = append(w.postponed, msg)
	w.mu.Unlock()
}

// redeliverPostponed re-runs every message postponed while the worker was
// in a state that could not yet handle it. Called right after a state
// transition that might unblock them.
func (w *MiningWorker) redeliverPostponed(ctx context.Context) {
	w.mu.Lock()
	pending := w.postponed
	w.postponed = nil
	w.mu.Unlock()

	for _, msg := range pending {
		if err := w.handle(ctx, msg); err != nil {
			w.cfg.Logger.WithError(err).Warn("mining worker message handling failed")
		}
	}
}

func (w *MiningWorker) fail(err error) {
	w.mu.Lock()
	w.state = StateStop
	w.mu.Unlock()
	w.result <- err
}

func (w *MiningWorker) handle(ctx context.Context, msg Message) error {
	switch msg.Kind {
	case KindAddMiningContext:
		return w.onAddMiningContext(ctx, msg)
	case KindCrossValidate:
		return w.onCrossValidate(ctx, msg)
	case KindCrossValidationDone:
		return w.onCrossValidationDone(ctx, msg)
	case KindAcknowledgeStorage:
		return w.onAcknowledgeStorage(msg)
	default:
		return &ProtocolViolationError{Reason: "unexpected message kind for mining worker"}
	}
}

// onAddMiningContext is handled by the coordinator: a cross validator has
// reported its view of chain/beacon storage node availability. A message
// arriving before this node has started coordinating is postponed rather
// than dropped. The message updates the storage-node views but is not
// counted as a confirmation; if the broadcast round already confirmed every
// validation node, the coordinator computes the validation stamp and moves
// to wait_cross_validation_stamps.
func (w *MiningWorker) onAddMiningContext(ctx context.Context, msg Message) error {
	payload, ok := msg.Payload.(AddMiningContext)
	if !ok {
		return &ProtocolViolationError{Reason: "malformed AddMiningContext payload"}
	}

	w.mu.Lock()
	state := w.state
	w.mu.Unlock()
	if state == StateIdle {
		w.postpone(msg)
		return nil
	}
	if state != StateCoordinator {
		return nil
	}

	w.mu.Lock()
	w.vctx = w.vctx.WithStorageNodes(
		toNodeIDs(payload.ChainStorageNodesView),
		toNodeIDs(payload.BeaconStorageNodesView),
		payload.PreviousStorageNodesPublicKeys,
	)
	enough := w.vctx.EnoughConfirmations()
	vctx := w.vctx
	w.mu.Unlock()

	if !enough {
		return nil
	}
	return w.buildAndBroadcastValidationStamp(ctx, vctx)
}

// buildAndBroadcastValidationStamp computes the coordinator's validation
// stamp and three-way replication tree, then broadcasts CrossValidate to
// confirmed cross validators. If no cross validator ever confirmed, mining
// stops here rather than building a stamp nobody can cross-validate.
// The stamp's proof of integrity is the hash of the transaction address
// alone, its proof of election repeats that hash, and its proof of work is
// this coordinator's own public key; no origin-signature check or
// election-seed computation is done, and no ledger operations are set.
func (w *MiningWorker) buildAndBroadcastValidationStamp(ctx context.Context, vctx *ValidationContext) error {
	if vctx.ConfirmedValidators.Count() == 0 {
		w.mu.Lock()
		w.state = StateStop
		w.mu.Unlock()
		err := fmt.Errorf("mining worker: no cross validator confirmed, stopping")
		w.result <- err
		return err
	}

	integrity := w.cfg.Crypto.Hash(w.cfg.HashAlgo, vctx.Tx.Address)
	sigInput := append(append([]byte{}, vctx.Tx.Address...), integrity...)
	signature, err := w.cfg.Crypto.Sign(w.cfg.SelfPrivateKey, w.cfg.Curve, sigInput)
	if err != nil {
		return fmt.Errorf("mining worker: sign validation stamp: %w", err)
	}

	stamp := ValidationStamp{
		Timestamp:        vctx.StartedAt,
		ProofOfWork:      w.cfg.SelfPublicKey,
		ProofOfIntegrity: integrity,
		ProofOfElection:  integrity,
		Signature:        signature,
	}

	ioNodes := differenceNodeIDs(vctx.ValidationNodes, append(append([]NodeID{}, vctx.ChainStorageNodes...), vctx.BeaconStorageNodes...))
	tree := buildReplicationTree(len(vctx.ValidationNodes), vctx.ChainStorageNodes, vctx.BeaconStorageNodes, ioNodes)

	w.mu.Lock()
	w.vctx = w.vctx.WithValidationStamp(stamp, tree, ioNodes)
	w.state = StateWaitCrossValidationStamps
	var confirmedNodes []NodeID
	for i, n := range w.vctx.ValidationNodes {
		if w.vctx.ConfirmedValidators.Get(i) {
			confirmedNodes = append(confirmedNodes, n)
		}
	}
	w.mu.Unlock()

	broadcastCtx, cancel := context.WithTimeout(ctx, w.cfg.GlobalTimeout)
	defer cancel()
	w.cfg.P2P.BroadcastMessage(broadcastCtx, confirmedNodes, Message{
		Kind: KindCrossValidate,
		From: w.cfg.Self,
		Payload: CrossValidate{
			TxAddress:            vctx.TxAddress,
			Transaction:          *vctx.Tx,
			CoordinatorPublicKey: w.cfg.SelfPublicKey,
			CoordinatorNodeID:    w.cfg.Self,
			ValidationNodes:      vctx.ValidationNodes,
			ChainStorageNodes:    vctx.ChainStorageNodes,
			BeaconStorageNodes:   vctx.BeaconStorageNodes,
			IOStorageNodes:       ioNodes,
			ValidationStamp:      stamp,
			ReplicationTree:      tree,
		},
	})
	return nil
}

// differenceNodeIDs returns the nodes in all that are not present in
// exclude.
func differenceNodeIDs(all, exclude []NodeID) []NodeID {
	excluded := make(map[NodeID]struct{}, len(exclude))
	for _, n := range exclude {
		excluded[n] = struct{}{}
	}
	var out []NodeID
	for _, n := range all {
		if _, ok := excluded[n]; ok {
			continue
		}
		out = append(out, n)
	}
	return out
}

// buildReplicationTree partitions the chain, beacon, and io replica lists
// into per-validator bitstring shards, round-robin assigned so forwarding
// load spreads evenly across the numValidators validators responsible for
// replication.
func buildReplicationTree(numValidators int, chain, beacon, io []NodeID) ReplicationTree {
	if numValidators < 1 {
		numValidators = 1
	}
	return ReplicationTree{
		Chain:  shardNodesIntoBitstrings(numValidators, chain),
		Beacon: shardNodesIntoBitstrings(numValidators, beacon),
		IO:     shardNodesIntoBitstrings(numValidators, io),
	}
}

func shardNodesIntoBitstrings(numValidators int, nodes []NodeID) []Bitstring {
	shards := make([]Bitstring, numValidators)
	for v := range shards {
		shards[v] = NewBitstring(len(nodes))
	}
	for i := range nodes {
		shards[i%numValidators].Set(i)
	}
	return shards
}

// onCrossValidate is handled by a cross validator: it recomputes the
// stamp's checks, signs its cross-validation stamp (affirmative or
// flagging inconsistencies), and replies to the coordinator. A message
// arriving before this node has been started as a cross validator is
// postponed. When this is the sole cross validator and its own stamp is
// affirmative, atomic commitment already holds and the worker moves
// straight to replication, skipping the wait_cross_validation_stamps
// round trip.
func (w *MiningWorker) onCrossValidate(ctx context.Context, msg Message) error {
	payload, ok := msg.Payload.(CrossValidate)
	if !ok {
		return &ProtocolViolationError{Reason: "malformed CrossValidate payload"}
	}

	w.mu.Lock()
	state := w.state
	w.mu.Unlock()
	if state == StateIdle {
		w.postpone(msg)
		return nil
	}
	if state != StateCrossValidator {
		return nil
	}

	w.mu.Lock()
	w.vctx = w.vctx.
		WithStorageNodes(payload.ChainStorageNodes, payload.BeaconStorageNodes, w.vctx.PreviousStorageNodesPublicKeys).
		WithValidationStamp(payload.ValidationStamp, payload.ReplicationTree, payload.IOStorageNodes)
	vctx := w.vctx
	w.mu.Unlock()

	inconsistencies := w.recomputeInconsistencies(vctx)
	sigInput := append(append([]byte{}, vctx.TxAddress...), payload.ValidationStamp.ProofOfIntegrity...)
	signature, err := w.cfg.Crypto.Sign(w.cfg.SelfPrivateKey, w.cfg.Curve, sigInput)
	if err != nil {
		return fmt.Errorf("mining worker: sign cross validation stamp: %w", err)
	}

	stamp := CrossValidationStamp{
		SignerPublicKey: w.cfg.SelfPublicKey,
		Signature:       signature,
		Inconsistencies: inconsistencies,
	}

	w.mu.Lock()
	w.vctx = w.vctx.WithCrossValidationStamp(stamp)
	vctx = w.vctx
	w.mu.Unlock()

	replyCtx, cancel := context.WithTimeout(ctx, w.cfg.GlobalTimeout)
	defer cancel()
	w.cfg.P2P.SendMessage(replyCtx, payload.CoordinatorNodeID, Message{
		Kind: KindCrossValidationDone,
		From: w.cfg.Self,
		Payload: CrossValidationDone{
			TxAddress:            vctx.TxAddress,
			CrossValidationStamp: stamp,
		},
	})

	if len(vctx.ValidationNodes) == 1 && vctx.AtomicCommitment() {
		w.beginReplication(ctx, vctx)
		return nil
	}

	w.mu.Lock()
	w.state = StateWaitCrossValidationStamps
	w.mu.Unlock()
	w.redeliverPostponed(ctx)
	return nil
}

// recomputeInconsistencies independently recomputes the proof of
// integrity and compares it against the coordinator's claim. Business-rule recomputation of ledger movements is out of scope
// here; only structural checks are run.
func (w *MiningWorker) recomputeInconsistencies(vctx *ValidationContext) []Inconsistency {
	var out []Inconsistency
	expected := w.cfg.Crypto.Hash(w.cfg.HashAlgo, vctx.Tx.Address)
	if vctx.ValidationStamp == nil || string(expected) != string(vctx.ValidationStamp.ProofOfIntegrity) {
		out = append(out, InconsistencyProofOfIntegrity)
	}
	return out
}

// onCrossValidationDone is handled by the coordinator and by cross
// validators once they have sent their own stamp: a peer has replied with
// its stamp. A message arriving before this cross validator has sent its
// own stamp is postponed, since atomic commitment cannot yet be judged.
// Once every confirmed validator has replied, atomic commitment is
// checked; on success the worker moves to replication, on failure it
// notifies MaliciousDetection and stops.
func (w *MiningWorker) onCrossValidationDone(ctx context.Context, msg Message) error {
	payload, ok := msg.Payload.(CrossValidationDone)
	if !ok {
		return &ProtocolViolationError{Reason: "malformed CrossValidationDone payload"}
	}

	w.mu.Lock()
	state := w.state
	w.mu.Unlock()
	if state == StateCrossValidator {
		w.postpone(msg)
		return nil
	}

	w.mu.Lock()
	w.vctx = w.vctx.WithCrossValidationStamp(payload.CrossValidationStamp)
	vctx := w.vctx
	state = w.state
	w.mu.Unlock()

	if state != StateWaitCrossValidationStamps && state != StateCoordinator {
		return nil
	}
	if !vctx.EnoughCrossValidationStamps() {
		return nil
	}

	if !vctx.AtomicCommitment() {
		w.cfg.Malicious.Notify(vctx, &ConsensusFailureError{Address: vctx.TxAddress})
		w.mu.Lock()
		w.state = StateConsensusNotReached
		w.mu.Unlock()
		w.result <- &ConsensusFailureError{Address: vctx.TxAddress}
		return nil
	}

	w.beginReplication(ctx, vctx)
	return nil
}

// beginReplication moves the worker into replication and starts the
// driver's fan-out in the background. The worker's mailbox loop stays
// alive to service add_ack_storage messages until the driver reports its
// outcome on replicationResult.
func (w *MiningWorker) beginReplication(ctx context.Context, vctx *ValidationContext) {
	w.mu.Lock()
	w.state = StateReplication
	w.replication = NewReplicationDriver(w.cfg.P2P, w.cfg.Writer, w.cfg.Index, w.cfg.Crypto, w.cfg.Logger, w.cfg.GlobalTimeout)
	w.mu.Unlock()

	tx := *vctx.Tx
	if vctx.ValidationStamp != nil {
		tx.ValidationStamp = vctx.ValidationStamp
	}
	genesis := tx.Address

	go func() {
		w.replicationResult <- w.replication.Replicate(ctx, genesis, &tx, w.cfg.Self, vctx.ChainStorageNodes, vctx.BeaconStorageNodes, vctx.IOStorageNodes)
	}()
}

// onAcknowledgeStorage records a replica's signed storage confirmation;
// closing replication is ReplicationDriver's responsibility once its own
// quorum is met.
func (w *MiningWorker) onAcknowledgeStorage(msg Message) error {
	payload, ok := msg.Payload.(AcknowledgeStorage)
	if !ok {
		return &ProtocolViolationError{Reason: "malformed AcknowledgeStorage payload"}
	}
	w.mu.Lock()
	w.vctx = w.vctx.WithStorageConfirmation(StorageConfirmation{Signature: payload.Signature})
	w.mu.Unlock()
	return nil
}

func toNodeIDs(b Bitstring) []NodeID {
	out := make([]NodeID, 0, b.Count())
	for i := 0; i < b.Len(); i++ {
		if b.Get(i) {
			out = append(out, NodeID(fmt.Sprintf("%d", i)))
		}
	}
	return out
}
