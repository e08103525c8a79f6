package core

// Dispatcher routes inbound P2P messages to the MiningWorker responsible
// for their transaction address, starting a new cross-validator worker the
// first time this node sees a CrossValidate for a transaction it has not
// started mining itself.

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher is the node's inbound-message router.
type Dispatcher struct {
	registry   *WorkflowRegistry
	newWorker  func() *MiningWorker
	logger     *logrus.Logger
}

// NewDispatcher returns a Dispatcher that creates new MiningWorkers via
// newWorker when a message addresses a transaction with no running
// worker yet.
func NewDispatcher(registry *WorkflowRegistry, newWorker func() *MiningWorker, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{registry: registry, newWorker: newWorker, logger: logger}
}

// Handle implements the HandlerFunc shape P2P transports invoke for every
// inbound message.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) Message {
	addr, ok := addressOf(msg)
	if !ok {
		return Message{Kind: KindError, Payload: ErrorMessage{Reason: "message carries no routable transaction address"}}
	}

	if cv, ok := msg.Payload.(CrossValidate); ok {
		worker := d.registry.GetOrStart(addr, func() *MiningWorker {
			w := d.newWorker()
			w.StartAsCrossValidator(ctx, &cv.Transaction, cv.CoordinatorPublicKey, cv.ValidationNodes, time.Now())
			return w
		})
		worker.Deliver(msg)
		return Message{Kind: KindAcknowledgeStorage, Payload: AcknowledgeStorage{}}
	}

	worker, ok := d.registry.Get(addr)
	if !ok {
		return Message{Kind: KindError, Payload: ErrorMessage{Reason: "no mining worker for transaction"}}
	}
	worker.Deliver(msg)
	return Message{Kind: KindAcknowledgeStorage, Payload: AcknowledgeStorage{}}
}

func addressOf(msg Message) (Address, bool) {
	switch p := msg.Payload.(type) {
	case AddMiningContext:
		return p.TxAddress, true
	case CrossValidate:
		return p.TxAddress, true
	case CrossValidationDone:
		return p.TxAddress, true
	case ReplicateTransactionChain:
		return p.Transaction.Address, true
	case ReplicateTransaction:
		return p.Transaction.Address, true
	default:
		return nil, false
	}
}
