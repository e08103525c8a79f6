package core

// Address and PublicKey encode the self-describing byte layouts used
// throughout the mining workflow and embedded chain storage: every value
// carries its own curve/hash-algorithm header so a reader can recover its
// length without an external schema.

import (
	"encoding/hex"
	"errors"
	"strings"
)

// CurveID identifies the elliptic curve (or signature scheme) a PublicKey
// was derived with.
type CurveID byte

const (
	CurveEd25519   CurveID = 0
	CurveSecp256k1 CurveID = 1
	CurveSecp256r1 CurveID = 2
)

// HashAlgo identifies the digest algorithm an Address's hash was produced
// with.
type HashAlgo byte

const (
	HashSHA256   HashAlgo = 0
	HashSHA512   HashAlgo = 1
	HashSHA3_256 HashAlgo = 2
	HashSHA3_512 HashAlgo = 3
	HashBlake2b  HashAlgo = 4
	HashBlake3   HashAlgo = 5
)

// OriginID identifies the software/hardware origin that produced the
// origin_signature carried alongside a PublicKey in transactions.
type OriginID byte

const (
	OriginOnChainSoftware OriginID = 0
	OriginTPM             OriginID = 1
	OriginUSB             OriginID = 2
)

var hashSizes = map[HashAlgo]int{
	HashSHA256:   32,
	HashSHA512:   64,
	HashSHA3_256: 32,
	HashSHA3_512: 64,
	HashBlake2b:  32,
	HashBlake3:   32,
}

var keySizes = map[CurveID]int{
	CurveEd25519:   32,
	CurveSecp256k1: 33, // compressed point
	CurveSecp256r1: 33, // compressed point
}

// ErrUnknownHashAlgo / ErrUnknownCurve are returned when a header byte does
// not resolve to a known algorithm or curve.
var (
	ErrUnknownHashAlgo = errors.New("core: unknown hash algorithm id")
	ErrUnknownCurve    = errors.New("core: unknown curve id")
	ErrShortBuffer     = errors.New("core: buffer too short for self-describing header")
)

// HashSize returns the digest length in bytes for a given hash algorithm id.
func HashSize(id HashAlgo) (int, error) {
	n, ok := hashSizes[id]
	if !ok {
		return 0, ErrUnknownHashAlgo
	}
	return n, nil
}

// KeySize returns the key length in bytes for a given curve id.
func KeySize(id CurveID) (int, error) {
	n, ok := keySizes[id]
	if !ok {
		return 0, ErrUnknownCurve
	}
	return n, nil
}

// Address is `<curve_id:1><hash_algo_id:1><digest:N>`.
type Address []byte

// PublicKey is `<curve_id:1><origin_id:1><key:K>`.
type PublicKey []byte

// PeekAddressLength inspects the 2-byte header at the front of buf and
// returns the total length of the address encoded there, without requiring
// the full address to be present.
func PeekAddressLength(buf []byte) (int, error) {
	if len(buf) < 2 {
		return 0, ErrShortBuffer
	}
	n, err := HashSize(HashAlgo(buf[1]))
	if err != nil {
		return 0, err
	}
	return 2 + n, nil
}

// ReadAddress decodes one Address from the front of buf and returns it plus
// the unconsumed remainder.
func ReadAddress(buf []byte) (Address, []byte, error) {
	n, err := PeekAddressLength(buf)
	if err != nil {
		return nil, buf, err
	}
	if len(buf) < n {
		return nil, buf, ErrShortBuffer
	}
	out := make(Address, n)
	copy(out, buf[:n])
	return out, buf[n:], nil
}

// PeekPublicKeyLength inspects the 2-byte header at the front of buf and
// returns the total length of the public key encoded there.
func PeekPublicKeyLength(buf []byte) (int, error) {
	if len(buf) < 2 {
		return 0, ErrShortBuffer
	}
	k, err := KeySize(CurveID(buf[0]))
	if err != nil {
		return 0, err
	}
	return 2 + k, nil
}

// ReadPublicKey decodes one PublicKey from the front of buf and returns it
// plus the unconsumed remainder.
func ReadPublicKey(buf []byte) (PublicKey, []byte, error) {
	n, err := PeekPublicKeyLength(buf)
	if err != nil {
		return nil, buf, err
	}
	if len(buf) < n {
		return nil, buf, ErrShortBuffer
	}
	out := make(PublicKey, n)
	copy(out, buf[:n])
	return out, buf[n:], nil
}

// CurveID returns the curve identifier byte of the public key.
func (pk PublicKey) CurveID() CurveID {
	if len(pk) == 0 {
		return 0
	}
	return CurveID(pk[0])
}

// OriginID returns the origin identifier byte of the public key.
func (pk PublicKey) OriginID() OriginID {
	if len(pk) < 2 {
		return 0
	}
	return OriginID(pk[1])
}

// Key returns the raw key material, stripped of the 2-byte header.
func (pk PublicKey) Key() []byte {
	if len(pk) < 2 {
		return nil
	}
	return pk[2:]
}

// HashAlgo returns the hash-algorithm identifier byte of the address.
func (a Address) HashAlgo() HashAlgo {
	if len(a) < 2 {
		return 0
	}
	return HashAlgo(a[1])
}

// Digest returns the raw digest bytes, stripped of the 2-byte header.
func (a Address) Digest() []byte {
	if len(a) < 2 {
		return nil
	}
	return a[2:]
}

// Subset returns the partition byte (0-255) used to shard indices: the
// third byte of the address as a whole, i.e. the first byte of the digest,
// since the curve/hash header occupies the first two bytes.
func (a Address) Subset() (byte, error) {
	if len(a) < 3 {
		return 0, ErrShortBuffer
	}
	return a[2], nil
}

// Hex renders the address as an uppercase hex string, used for on-disk file
// names (e.g. chains/<HEX(genesis_address)>).
func (a Address) Hex() string {
	return strings.ToUpper(hex.EncodeToString(a))
}

// String implements fmt.Stringer for logging.
func (a Address) String() string { return a.Hex() }

// Equal reports whether two addresses encode the same bytes.
func (a Address) Equal(b Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Valid reports whether the address has a well-formed header and the
// correct total length for its declared hash algorithm.
func (a Address) Valid() bool {
	n, err := PeekAddressLength(a)
	return err == nil && n == len(a)
}
