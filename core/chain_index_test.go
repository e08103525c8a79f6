package core

import (
	"testing"

	"github.com/prix-uniris/archethic-node/internal/testutil"
)

func newTestChainIndex(t *testing.T, dbPath string) *ChainIndex {
	t.Helper()
	ci, err := NewChainIndex(ChainIndexConfig{DBPath: dbPath}, nil)
	if err != nil {
		t.Fatalf("NewChainIndex failed: %v", err)
	}
	t.Cleanup(func() { ci.Close() })
	return ci
}

func TestChainIndexAddTxAndLookup(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	ci := newTestChainIndex(t, sb.Root)
	genesis := sampleAddress(1)
	addr := sampleAddress(2)

	if ci.TransactionExists(addr) {
		t.Fatalf("expected unknown address to not exist yet")
	}
	if err := ci.AddTx(addr, genesis, 64); err != nil {
		t.Fatalf("AddTx failed: %v", err)
	}
	if !ci.TransactionExists(addr) {
		t.Fatalf("expected address to exist after AddTx")
	}

	entry, err := ci.GetTxEntry(addr)
	if err != nil {
		t.Fatalf("GetTxEntry failed: %v", err)
	}
	if !entry.GenesisAddress.Equal(genesis) || entry.Size != 64 {
		t.Fatalf("unexpected index entry: %+v", entry)
	}
	if ci.ChainSize(genesis) != 1 {
		t.Fatalf("expected chain size 1, got %d", ci.ChainSize(genesis))
	}
}

func TestChainIndexGetTxEntryNotFound(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	ci := newTestChainIndex(t, sb.Root)
	if _, err := ci.GetTxEntry(sampleAddress(9)); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChainIndexLastChainAddress(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	ci := newTestChainIndex(t, sb.Root)
	genesis := sampleAddress(1)
	first := sampleAddress(2)
	second := sampleAddress(3)

	if err := ci.SetLastChainAddress(genesis, first, 100); err != nil {
		t.Fatalf("SetLastChainAddress failed: %v", err)
	}
	if err := ci.SetLastChainAddress(genesis, second, 200); err != nil {
		t.Fatalf("SetLastChainAddress failed: %v", err)
	}

	last, err := ci.GetLastChainAddress(genesis, nil)
	if err != nil {
		t.Fatalf("GetLastChainAddress failed: %v", err)
	}
	if !last.Equal(second) {
		t.Fatalf("expected last address to be the most recent write")
	}

	until := uint32(100)
	atFirst, err := ci.GetLastChainAddress(genesis, &until)
	if err != nil {
		t.Fatalf("GetLastChainAddress with until failed: %v", err)
	}
	if !atFirst.Equal(first) {
		t.Fatalf("expected exact timestamp match to return the first address")
	}
}

func TestChainIndexPublicKeyHistory(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	ci := newTestChainIndex(t, sb.Root)
	genesis := sampleAddress(1)
	firstKey := samplePublicKey()
	rotatedKey := append(PublicKey{byte(CurveEd25519), byte(OriginOnChainSoftware)}, make([]byte, 32)...)
	rotatedKey[2] = 0xFF

	if err := ci.SetPublicKey(genesis, firstKey, 100); err != nil {
		t.Fatalf("SetPublicKey failed: %v", err)
	}
	if err := ci.SetPublicKey(genesis, rotatedKey, 200); err != nil {
		t.Fatalf("SetPublicKey failed: %v", err)
	}

	got, err := ci.GetFirstPublicKey(rotatedKey)
	if err != nil {
		t.Fatalf("GetFirstPublicKey failed: %v", err)
	}
	if string(got) != string(firstKey) {
		t.Fatalf("expected the earliest key recorded for the chain")
	}
}

func TestChainIndexTypeIndex(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	ci := newTestChainIndex(t, sb.Root)
	a, b := sampleAddress(1), sampleAddress(2)

	if err := ci.RecordType(TxTransfer, a); err != nil {
		t.Fatalf("RecordType failed: %v", err)
	}
	if err := ci.RecordType(TxTransfer, b); err != nil {
		t.Fatalf("RecordType failed: %v", err)
	}
	if got := ci.CountTransactionsByType(TxTransfer); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}

	var seen []Address
	for addr := range ci.ListAddressesByType(TxTransfer) {
		seen = append(seen, addr)
	}
	if len(seen) != 2 || !seen[0].Equal(a) || !seen[1].Equal(b) {
		t.Fatalf("unexpected addresses from ListAddressesByType: %v", seen)
	}
}

func TestChainIndexRecoversAfterRestart(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	genesis := sampleAddress(1)
	addr := sampleAddress(2)

	first, err := NewChainIndex(ChainIndexConfig{DBPath: sb.Root}, nil)
	if err != nil {
		t.Fatalf("NewChainIndex failed: %v", err)
	}
	if err := first.AddTx(addr, genesis, 32); err != nil {
		t.Fatalf("AddTx failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := NewChainIndex(ChainIndexConfig{DBPath: sb.Root}, nil)
	if err != nil {
		t.Fatalf("reopening NewChainIndex failed: %v", err)
	}
	defer second.Close()

	if !second.TransactionExists(addr) {
		t.Fatalf("expected recovery to rebuild the tx index from disk")
	}
	if second.ChainSize(genesis) != 1 {
		t.Fatalf("expected recovered chain size 1, got %d", second.ChainSize(genesis))
	}
}
