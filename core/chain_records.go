package core

// On-disk record formats for the chain file, subset index, chain-addresses
// file, chain-keys file, and per-type index file. Every record is
// self-describing so a recovery scan can stop cleanly at a truncated tail
// instead of guessing at record boundaries.

import (
	"encoding/binary"
	"io"
)

// EncodeChainRecord frames an already-encoded transaction with a uint32
// length prefix so appenders and readers agree on record boundaries
// without needing to decode the transaction itself just to skip it.
func EncodeChainRecord(txBytes []byte) []byte {
	w := newByteWriter()
	w.bytesLP(txBytes)
	return w.bytes()
}

// ReadChainRecord reads one length-prefixed transaction record from buf,
// returning the raw (still encoded) transaction bytes and the unconsumed
// remainder. It returns io.ErrUnexpectedEOF on a truncated trailing record,
// which callers treat as "end of valid data" rather than a fatal error.
func ReadChainRecord(buf []byte) (txBytes []byte, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, buf, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(buf[:4])
	total := 4 + int(n)
	if len(buf) < total {
		return nil, buf, io.ErrUnexpectedEOF
	}
	return buf[4:total], buf[total:], nil
}

// SubsetIndexRecord is `<current_address><genesis_address><size:u32><offset:u32>`.
type SubsetIndexRecord struct {
	CurrentAddress Address
	GenesisAddress Address
	Size           uint32
	Offset         uint32
}

func EncodeSubsetIndexRecord(rec SubsetIndexRecord) []byte {
	w := newByteWriter()
	w.raw(rec.CurrentAddress)
	w.raw(rec.GenesisAddress)
	w.uint32(rec.Size)
	w.uint32(rec.Offset)
	return w.bytes()
}

// ReadSubsetIndexRecord reads one record from buf, returning it and the
// unconsumed remainder of buf. A truncated tail yields io.ErrUnexpectedEOF.
func ReadSubsetIndexRecord(buf []byte) (SubsetIndexRecord, []byte, error) {
	r := newByteReader(buf)
	cur, err := r.address()
	if err != nil {
		return SubsetIndexRecord{}, buf, err
	}
	gen, err := r.address()
	if err != nil {
		return SubsetIndexRecord{}, buf, err
	}
	size, err := r.uint32()
	if err != nil {
		return SubsetIndexRecord{}, buf, err
	}
	offset, err := r.uint32()
	if err != nil {
		return SubsetIndexRecord{}, buf, err
	}
	return SubsetIndexRecord{CurrentAddress: cur, GenesisAddress: gen, Size: size, Offset: offset}, r.buf[r.pos:], nil
}

// ChainAddressRecord is `<unix_ts:u32><address>`.
type ChainAddressRecord struct {
	Timestamp uint32
	Address   Address
}

func EncodeChainAddressRecord(rec ChainAddressRecord) []byte {
	w := newByteWriter()
	w.uint32(rec.Timestamp)
	w.raw(rec.Address)
	return w.bytes()
}

func ReadChainAddressRecord(buf []byte) (ChainAddressRecord, []byte, error) {
	r := newByteReader(buf)
	ts, err := r.uint32()
	if err != nil {
		return ChainAddressRecord{}, buf, err
	}
	addr, err := r.address()
	if err != nil {
		return ChainAddressRecord{}, buf, err
	}
	return ChainAddressRecord{Timestamp: ts, Address: addr}, r.buf[r.pos:], nil
}

// ChainKeyRecord is `<unix_ts:u32><public_key>`.
type ChainKeyRecord struct {
	Timestamp uint32
	PublicKey PublicKey
}

func EncodeChainKeyRecord(rec ChainKeyRecord) []byte {
	w := newByteWriter()
	w.uint32(rec.Timestamp)
	w.raw(rec.PublicKey)
	return w.bytes()
}

func ReadChainKeyRecord(buf []byte) (ChainKeyRecord, []byte, error) {
	r := newByteReader(buf)
	ts, err := r.uint32()
	if err != nil {
		return ChainKeyRecord{}, buf, err
	}
	pk, err := r.publicKey()
	if err != nil {
		return ChainKeyRecord{}, buf, err
	}
	return ChainKeyRecord{Timestamp: ts, PublicKey: pk}, r.buf[r.pos:], nil
}

// ReadTypeIndexRecord reads a bare `<address>` record from a per-type index
// file.
func ReadTypeIndexRecord(buf []byte) (Address, []byte, error) {
	return ReadAddress(buf)
}
