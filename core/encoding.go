package core

// Low-level binary helpers shared by the transaction codec and the on-disk
// index record formats. All multi-byte integers are big-endian throughout.

import (
	"bytes"
	"encoding/binary"
	"io"
)

// byteWriter accumulates a self-describing binary record.
type byteWriter struct {
	buf bytes.Buffer
}

func newByteWriter() *byteWriter { return &byteWriter{} }

func (w *byteWriter) byte(b byte) { w.buf.WriteByte(b) }

func (w *byteWriter) uint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *byteWriter) uint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *byteWriter) int64(v int64) { w.uint64(uint64(v)) }

// bytesLP writes a uint32-length-prefixed byte slice.
func (w *byteWriter) bytesLP(b []byte) {
	w.uint32(uint32(len(b)))
	w.buf.Write(b)
}

// shortBytesLP writes a single-byte-length-prefixed byte slice, used for
// short values such as inconsistency names.
func (w *byteWriter) shortBytesLP(b []byte) {
	w.byte(byte(len(b)))
	w.buf.Write(b)
}

func (w *byteWriter) raw(b []byte) { w.buf.Write(b) }

func (w *byteWriter) bytes() []byte { return w.buf.Bytes() }

// byteReader consumes a self-describing binary record produced by
// byteWriter. All read methods return io.ErrUnexpectedEOF on truncation so
// callers can distinguish "ran out of bytes" from a structurally invalid
// record.
type byteReader struct {
	buf []byte
	pos int
}

func newByteReader(b []byte) *byteReader { return &byteReader{buf: b} }

func (r *byteReader) remaining() int { return len(r.buf) - r.pos }

func (r *byteReader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *byteReader) int64() (int64, error) {
	v, err := r.uint64()
	return int64(v), err
}

func (r *byteReader) bytesLP() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if r.remaining() < int(n) {
		return nil, io.ErrUnexpectedEOF
	}
	out := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

func (r *byteReader) shortBytesLP() ([]byte, error) {
	n, err := r.byte()
	if err != nil {
		return nil, err
	}
	if r.remaining() < int(n) {
		return nil, io.ErrUnexpectedEOF
	}
	out := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

func (r *byteReader) address() (Address, error) {
	a, rest, err := ReadAddress(r.buf[r.pos:])
	if err != nil {
		return nil, err
	}
	r.pos = len(r.buf) - len(rest)
	return a, nil
}

func (r *byteReader) publicKey() (PublicKey, error) {
	pk, rest, err := ReadPublicKey(r.buf[r.pos:])
	if err != nil {
		return nil, err
	}
	r.pos = len(r.buf) - len(rest)
	return pk, nil
}
