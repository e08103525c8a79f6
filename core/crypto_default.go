package core

// DefaultCrypto implements the Crypto collaborator against real
// algorithms, each chosen to match Archethic's actual curve/hash-algorithm
// tables: ed25519 and NIST P-256 from the standard library, secp256k1 from
// github.com/btcsuite/btcd/btcec/v2, and sha3/blake2b/blake3 for the hash
// side, all dispatched through one package-level surface.

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

var (
	ErrUnsupportedCurve = errors.New("core: unsupported curve for operation")
	ErrInvalidSeed      = errors.New("core: invalid key derivation seed")
)

// DefaultCrypto is the node's production Crypto implementation.
type DefaultCrypto struct{}

// NewDefaultCrypto returns the standard Crypto implementation.
func NewDefaultCrypto() *DefaultCrypto { return &DefaultCrypto{} }

func (DefaultCrypto) HashSize(id HashAlgo) (int, error) { return HashSize(id) }
func (DefaultCrypto) KeySize(id CurveID) (int, error)   { return KeySize(id) }

func (DefaultCrypto) Hash(algo HashAlgo, data []byte) []byte {
	switch algo {
	case HashSHA256:
		sum := sha256.Sum256(data)
		return sum[:]
	case HashSHA512:
		sum := sha512.Sum512(data)
		return sum[:]
	case HashSHA3_256:
		sum := sha3.Sum256(data)
		return sum[:]
	case HashSHA3_512:
		sum := sha3.Sum512(data)
		return sum[:]
	case HashBlake2b:
		sum := blake2b.Sum256(data)
		return sum[:]
	case HashBlake3:
		sum := blake3.Sum256(data)
		return sum[:]
	default:
		sum := sha256.Sum256(data)
		return sum[:]
	}
}

func (DefaultCrypto) DeriveKeypair(seed []byte, curve CurveID) ([]byte, PublicKey, error) {
	switch curve {
	case CurveEd25519:
		if len(seed) != ed25519.SeedSize {
			return nil, nil, ErrInvalidSeed
		}
		priv := ed25519.NewKeyFromSeed(seed)
		pub := append(PublicKey{byte(CurveEd25519), byte(OriginOnChainSoftware)}, priv.Public().(ed25519.PublicKey)...)
		return priv, pub, nil

	case CurveSecp256k1:
		scalar := scalarFromSeed(seed, btcec.S256().N)
		priv, pub := btcec.PrivKeyFromBytes(scalar.Bytes())
		out := append(PublicKey{byte(CurveSecp256k1), byte(OriginOnChainSoftware)}, pub.SerializeCompressed()...)
		return priv.Serialize(), out, nil

	case CurveSecp256r1:
		curveP256 := elliptic.P256()
		scalar := scalarFromSeed(seed, curveP256.Params().N)
		priv := new(ecdsa.PrivateKey)
		priv.PublicKey.Curve = curveP256
		priv.D = scalar
		priv.PublicKey.X, priv.PublicKey.Y = curveP256.ScalarBaseMult(scalar.Bytes())
		compressed := elliptic.MarshalCompressed(curveP256, priv.PublicKey.X, priv.PublicKey.Y)
		out := append(PublicKey{byte(CurveSecp256r1), byte(OriginOnChainSoftware)}, compressed...)
		return priv.D.Bytes(), out, nil

	default:
		return nil, nil, ErrUnknownCurve
	}
}

func scalarFromSeed(seed []byte, order *big.Int) *big.Int {
	digest := sha256.Sum256(seed)
	scalar := new(big.Int).SetBytes(digest[:])
	scalar.Mod(scalar, order)
	if scalar.Sign() == 0 {
		scalar.SetInt64(1)
	}
	return scalar
}

func (DefaultCrypto) Sign(priv []byte, curve CurveID, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	switch curve {
	case CurveEd25519:
		if len(priv) != ed25519.PrivateKeySize {
			return nil, ErrInvalidSeed
		}
		return ed25519.Sign(ed25519.PrivateKey(priv), data), nil

	case CurveSecp256k1:
		pk, _ := btcec.PrivKeyFromBytes(priv)
		sig := btcecdsa.Sign(pk, digest[:])
		return sig.Serialize(), nil

	case CurveSecp256r1:
		curveP256 := elliptic.P256()
		d := new(big.Int).SetBytes(priv)
		pk := &ecdsa.PrivateKey{D: d}
		pk.PublicKey.Curve = curveP256
		pk.PublicKey.X, pk.PublicKey.Y = curveP256.ScalarBaseMult(d.Bytes())
		r, s, err := ecdsa.Sign(rand.Reader, pk, digest[:])
		if err != nil {
			return nil, err
		}
		// Fixed-width r||s so Verify can split the signature in half.
		sig := make([]byte, 64)
		r.FillBytes(sig[:32])
		s.FillBytes(sig[32:])
		return sig, nil

	default:
		return nil, ErrUnsupportedCurve
	}
}

func (DefaultCrypto) Verify(pub PublicKey, sig, data []byte) bool {
	digest := sha256.Sum256(data)
	switch pub.CurveID() {
	case CurveEd25519:
		key := pub.Key()
		if len(key) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(key), data, sig)

	case CurveSecp256k1:
		parsedSig, err := btcecdsa.ParseDERSignature(sig)
		if err != nil {
			return false
		}
		pk, err := btcec.ParsePubKey(pub.Key())
		if err != nil {
			return false
		}
		return parsedSig.Verify(digest[:], pk)

	case CurveSecp256r1:
		curveP256 := elliptic.P256()
		x, y := elliptic.UnmarshalCompressed(curveP256, pub.Key())
		if x == nil {
			return false
		}
		if len(sig) < 2 {
			return false
		}
		half := len(sig) / 2
		r := new(big.Int).SetBytes(sig[:half])
		s := new(big.Int).SetBytes(sig[half:])
		pk := &ecdsa.PublicKey{Curve: curveP256, X: x, Y: y}
		return ecdsa.Verify(pk, digest[:], r, s)

	default:
		return false
	}
}

func (c DefaultCrypto) DeriveAddress(pub PublicKey, algo HashAlgo) Address {
	digest := c.Hash(algo, pub)
	out := make(Address, 2+len(digest))
	out[0] = byte(pub.CurveID())
	out[1] = byte(algo)
	copy(out[2:], digest)
	return out
}

func (DefaultCrypto) ValidAddress(a Address) bool {
	return a.Valid()
}
