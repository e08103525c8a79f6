package core

import (
	"testing"

	"github.com/prix-uniris/archethic-node/internal/testutil"
)

func newTestChainWriter(t *testing.T, dbPath string) (*ChainWriter, *ChainIndex) {
	t.Helper()
	ci, err := NewChainIndex(ChainIndexConfig{DBPath: dbPath}, nil)
	if err != nil {
		t.Fatalf("NewChainIndex failed: %v", err)
	}
	cw, err := NewChainWriter(ChainWriterConfig{DBPath: dbPath, PoolSize: 2}, ci, nil)
	if err != nil {
		t.Fatalf("NewChainWriter failed: %v", err)
	}
	t.Cleanup(func() {
		cw.Close()
		ci.Close()
	})
	return cw, ci
}

func TestChainWriterAppendAndReplay(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	cw, ci := newTestChainWriter(t, sb.Root)
	genesis := sampleAddress(1)

	txs := []*Transaction{
		{Address: sampleAddress(2), PreviousPublicKey: samplePublicKey(), Type: TxTransfer, Data: TransactionData{Content: []byte("one")}},
		{Address: sampleAddress(3), PreviousPublicKey: samplePublicKey(), Type: TxTransfer, Data: TransactionData{Content: []byte("two")}},
		{Address: sampleAddress(4), PreviousPublicKey: samplePublicKey(), Type: TxTransfer, Data: TransactionData{Content: []byte("three")}},
	}
	for _, tx := range txs {
		if err := cw.Append(genesis, tx); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	replayed, err := ReplayChainFile(cw.ChainFilePath(genesis))
	if err != nil {
		t.Fatalf("ReplayChainFile failed: %v", err)
	}
	if len(replayed) != len(txs) {
		t.Fatalf("expected %d replayed transactions, got %d", len(txs), len(replayed))
	}
	for i, tx := range replayed {
		if string(tx.Data.Content) != string(txs[i].Data.Content) {
			t.Fatalf("replay order mismatch at index %d", i)
		}
	}
	if ci.ChainSize(genesis) != uint64(len(txs)) {
		t.Fatalf("expected chain size %d, got %d", len(txs), ci.ChainSize(genesis))
	}
}

func TestChainWriterWriteBeaconSummaryIsExclusive(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	cw, _ := newTestChainWriter(t, sb.Root)
	summaryAddr := sampleAddress(5)

	if err := cw.WriteBeaconSummary(summaryAddr, []byte("summary-one")); err != nil {
		t.Fatalf("WriteBeaconSummary failed: %v", err)
	}
	if err := cw.WriteBeaconSummary(summaryAddr, []byte("summary-two")); err != ErrSummaryExists {
		t.Fatalf("expected ErrSummaryExists on rewrite, got %v", err)
	}
}

func TestChainWriterDifferentGenesesAreIndependent(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	cw, ci := newTestChainWriter(t, sb.Root)
	genesisA := sampleAddress(1)
	genesisB := sampleAddress(2)

	txA := &Transaction{Address: sampleAddress(3), PreviousPublicKey: samplePublicKey(), Type: TxTransfer}
	txB := &Transaction{Address: sampleAddress(4), PreviousPublicKey: samplePublicKey(), Type: TxTransfer}

	if err := cw.Append(genesisA, txA); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := cw.Append(genesisB, txB); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if ci.ChainSize(genesisA) != 1 || ci.ChainSize(genesisB) != 1 {
		t.Fatalf("expected each genesis chain to track its own size independently")
	}
}
