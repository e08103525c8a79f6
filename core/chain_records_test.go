package core

import (
	"io"
	"testing"
)

func TestChainRecordRoundTrip(t *testing.T) {
	payload := []byte("encoded-transaction-bytes")
	framed := EncodeChainRecord(payload)

	got, rest, err := ReadChainRecord(framed)
	if err != nil {
		t.Fatalf("ReadChainRecord failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch after round trip")
	}
	if len(rest) != 0 {
		t.Fatalf("expected no remainder, got %d bytes", len(rest))
	}
}

func TestChainRecordTruncatedTail(t *testing.T) {
	framed := EncodeChainRecord([]byte("full-record"))
	if _, _, err := ReadChainRecord(framed[:len(framed)-3]); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestSubsetIndexRecordRoundTrip(t *testing.T) {
	rec := SubsetIndexRecord{
		CurrentAddress: sampleAddress(1),
		GenesisAddress: sampleAddress(2),
		Size:           128,
		Offset:         256,
	}
	encoded := EncodeSubsetIndexRecord(rec)
	decoded, rest, err := ReadSubsetIndexRecord(encoded)
	if err != nil {
		t.Fatalf("ReadSubsetIndexRecord failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no remainder")
	}
	if !decoded.CurrentAddress.Equal(rec.CurrentAddress) || !decoded.GenesisAddress.Equal(rec.GenesisAddress) {
		t.Fatalf("address mismatch after round trip")
	}
	if decoded.Size != rec.Size || decoded.Offset != rec.Offset {
		t.Fatalf("size/offset mismatch after round trip")
	}
}

func TestChainAddressRecordRoundTrip(t *testing.T) {
	rec := ChainAddressRecord{Timestamp: 1700000000, Address: sampleAddress(3)}
	encoded := EncodeChainAddressRecord(rec)
	decoded, rest, err := ReadChainAddressRecord(encoded)
	if err != nil {
		t.Fatalf("ReadChainAddressRecord failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no remainder")
	}
	if decoded.Timestamp != rec.Timestamp || !decoded.Address.Equal(rec.Address) {
		t.Fatalf("record mismatch after round trip")
	}
}

func TestChainKeyRecordRoundTrip(t *testing.T) {
	rec := ChainKeyRecord{Timestamp: 1700000001, PublicKey: samplePublicKey()}
	encoded := EncodeChainKeyRecord(rec)
	decoded, rest, err := ReadChainKeyRecord(encoded)
	if err != nil {
		t.Fatalf("ReadChainKeyRecord failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no remainder")
	}
	if decoded.Timestamp != rec.Timestamp || string(decoded.PublicKey) != string(rec.PublicKey) {
		t.Fatalf("record mismatch after round trip")
	}
}

func TestReadTypeIndexRecordMultiple(t *testing.T) {
	a, b := sampleAddress(1), sampleAddress(2)
	buf := append(append([]byte{}, a...), b...)

	first, rest, err := ReadTypeIndexRecord(buf)
	if err != nil {
		t.Fatalf("ReadTypeIndexRecord failed: %v", err)
	}
	if !first.Equal(a) {
		t.Fatalf("expected first address to match")
	}
	second, rest, err := ReadTypeIndexRecord(rest)
	if err != nil {
		t.Fatalf("ReadTypeIndexRecord failed on second record: %v", err)
	}
	if !second.Equal(b) {
		t.Fatalf("expected second address to match")
	}
	if len(rest) != 0 {
		t.Fatalf("expected no remainder")
	}
}
