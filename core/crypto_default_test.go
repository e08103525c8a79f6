package core

import "testing"

func TestDefaultCryptoEd25519SignVerifyRoundTrip(t *testing.T) {
	c := NewDefaultCrypto()
	seed := make([]byte, 32)
	seed[0] = 7

	priv, pub, err := c.DeriveKeypair(seed, CurveEd25519)
	if err != nil {
		t.Fatalf("DeriveKeypair failed: %v", err)
	}
	msg := []byte("mine this transaction")
	sig, err := c.Sign(priv, CurveEd25519, msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !c.Verify(pub, sig, msg) {
		t.Fatalf("expected a valid ed25519 signature to verify")
	}
	if c.Verify(pub, sig, []byte("tampered")) {
		t.Fatalf("expected verification to fail against a different message")
	}
}

func TestDefaultCryptoSecp256k1SignVerifyRoundTrip(t *testing.T) {
	c := NewDefaultCrypto()
	seed := make([]byte, 32)
	seed[1] = 9

	priv, pub, err := c.DeriveKeypair(seed, CurveSecp256k1)
	if err != nil {
		t.Fatalf("DeriveKeypair failed: %v", err)
	}
	msg := []byte("mine this transaction")
	sig, err := c.Sign(priv, CurveSecp256k1, msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !c.Verify(pub, sig, msg) {
		t.Fatalf("expected a valid secp256k1 signature to verify")
	}
}

func TestDefaultCryptoSecp256r1SignVerifyRoundTrip(t *testing.T) {
	c := NewDefaultCrypto()
	seed := make([]byte, 32)
	seed[2] = 3

	priv, pub, err := c.DeriveKeypair(seed, CurveSecp256r1)
	if err != nil {
		t.Fatalf("DeriveKeypair failed: %v", err)
	}
	msg := []byte("mine this transaction")
	sig, err := c.Sign(priv, CurveSecp256r1, msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !c.Verify(pub, sig, msg) {
		t.Fatalf("expected a valid secp256r1 signature to verify")
	}
}

func TestDefaultCryptoDeriveKeypairUnknownCurve(t *testing.T) {
	c := NewDefaultCrypto()
	if _, _, err := c.DeriveKeypair(make([]byte, 32), CurveID(99)); err != ErrUnknownCurve {
		t.Fatalf("expected ErrUnknownCurve, got %v", err)
	}
}

func TestDefaultCryptoHashIsDeterministicAndAlgoSpecific(t *testing.T) {
	c := NewDefaultCrypto()
	data := []byte("hash me")

	algos := []HashAlgo{HashSHA256, HashSHA512, HashSHA3_256, HashSHA3_512, HashBlake2b, HashBlake3}
	seen := make(map[string]bool)
	for _, algo := range algos {
		first := c.Hash(algo, data)
		second := c.Hash(algo, data)
		if string(first) != string(second) {
			t.Fatalf("expected hashing to be deterministic for algo %v", algo)
		}
		n, err := c.HashSize(algo)
		if err != nil {
			t.Fatalf("HashSize failed for algo %v: %v", algo, err)
		}
		if len(first) != n {
			t.Fatalf("expected digest length %d for algo %v, got %d", n, algo, len(first))
		}
		seen[string(first)] = true
	}
	if len(seen) != len(algos) {
		t.Fatalf("expected every hash algorithm to produce a distinct digest")
	}
}

func TestDefaultCryptoDeriveAddressIsValid(t *testing.T) {
	c := NewDefaultCrypto()
	_, pub, err := c.DeriveKeypair(make([]byte, 32), CurveEd25519)
	if err != nil {
		t.Fatalf("DeriveKeypair failed: %v", err)
	}
	addr := c.DeriveAddress(pub, HashSHA256)
	if !c.ValidAddress(addr) {
		t.Fatalf("expected a derived address to be well-formed")
	}
	if addr.HashAlgo() != HashSHA256 {
		t.Fatalf("expected the address to carry the requested hash algorithm")
	}
}
