package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secp256k1ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Ed25519Signer signs the message bytes directly (pure EdDSA).
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

func (s *Ed25519Signer) Scheme() Scheme { return SchemeEd25519 }

func (s *Ed25519Signer) PublicKey() []byte {
	out := make([]byte, len(s.pub))
	copy(out, s.pub)
	return out
}

func (s *Ed25519Signer) Sign(msg []byte) ([]byte, error) {
	if len(s.priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key")
	}
	return ed25519.Sign(s.priv, msg), nil
}

// Secp256k1Signer signs sha256(msg) and returns a 65-byte compact
// (recoverable) signature.
type Secp256k1Signer struct {
	priv *secp256k1.PrivateKey
	pub  *secp256k1.PublicKey
}

func newSecp256k1Signer(priv *secp256k1.PrivateKey) *Secp256k1Signer {
	return &Secp256k1Signer{priv: priv, pub: priv.PubKey()}
}

func (s *Secp256k1Signer) Scheme() Scheme { return SchemeSecp256k1 }

func (s *Secp256k1Signer) PublicKey() []byte { return s.pub.SerializeCompressed() }

func (s *Secp256k1Signer) Sign(msg []byte) ([]byte, error) {
	h := sha256.Sum256(msg)
	return signSecp256k1Compact(s.priv, h[:])
}

func signSecp256k1Compact(priv *secp256k1.PrivateKey, msgHash32 []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("nil private key")
	}
	if len(msgHash32) != 32 {
		return nil, fmt.Errorf("expected 32-byte message hash, got %d", len(msgHash32))
	}
	return secp256k1ecdsa.SignCompact(priv, msgHash32, true), nil
}

func verifySecp256k1Compact(pub *secp256k1.PublicKey, msgHash32 []byte, compactSig []byte) (bool, error) {
	if pub == nil {
		return false, fmt.Errorf("nil public key")
	}
	if len(msgHash32) != 32 {
		return false, fmt.Errorf("expected 32-byte message hash, got %d", len(msgHash32))
	}
	// RecoverCompact verifies the signature and returns the recovered public key.
	recovered, _, err := secp256k1ecdsa.RecoverCompact(compactSig, msgHash32)
	if err != nil {
		return false, nil
	}
	return recovered.IsEqual(pub), nil
}

// Verify reports whether sig is a valid signature of msg under pub.
// An error is returned only for malformed keys or unknown schemes; a
// well-formed but wrong signature yields (false, nil).
func Verify(scheme Scheme, pub, msg, sig []byte) (bool, error) {
	switch scheme {
	case SchemeEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return false, fmt.Errorf("unexpected ed25519 pubkey length %d", len(pub))
		}
		if len(sig) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(ed25519.PublicKey(pub), msg, sig), nil
	case SchemeSecp256k1:
		pk, err := secp256k1.ParsePubKey(pub)
		if err != nil {
			return false, fmt.Errorf("secp256k1 pubkey parse: %w", err)
		}
		h := sha256.Sum256(msg)
		return verifySecp256k1Compact(pk, h[:], sig)
	default:
		return false, fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}
