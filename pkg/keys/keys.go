package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

type Scheme string

const (
	SchemeEd25519   Scheme = "ed25519"
	SchemeSecp256k1 Scheme = "secp256k1"
)

const (
	ed25519InfoV1   = "proofspace/ed25519/v1"
	secp256k1InfoV1 = "proofspace/secp256k1/v1"
)

// Sui signature scheme flags, prepended to the public key before hashing it
// into an address.
const (
	suiFlagEd25519   = 0x00
	suiFlagSecp256k1 = 0x01
)

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeEd25519:
		return SchemeEd25519, nil
	case SchemeSecp256k1:
		return SchemeSecp256k1, nil
	default:
		return "", fmt.Errorf("unsupported signature scheme %q (expected ed25519|secp256k1)", s)
	}
}

// Signer is the process-wide signing identity. Implementations are immutable
// after construction and safe for concurrent use.
type Signer interface {
	Scheme() Scheme
	// PublicKey returns the raw public key bytes (32 bytes for ed25519,
	// 33 byte compressed point for secp256k1).
	PublicKey() []byte
	Sign(msg []byte) ([]byte, error)
}

// Generate creates a fresh ephemeral signer using entropy from rand.
func Generate(scheme Scheme, rand io.Reader) (Signer, error) {
	if rand == nil {
		return nil, fmt.Errorf("nil entropy source")
	}
	switch scheme {
	case SchemeEd25519:
		pub, priv, err := ed25519.GenerateKey(rand)
		if err != nil {
			return nil, fmt.Errorf("ed25519.GenerateKey: %w", err)
		}
		return &Ed25519Signer{priv: priv, pub: pub}, nil
	case SchemeSecp256k1:
		priv, err := secp256k1.GeneratePrivateKeyFromRand(rand)
		if err != nil {
			return nil, fmt.Errorf("secp256k1.GeneratePrivateKey: %w", err)
		}
		return newSecp256k1Signer(priv), nil
	default:
		return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}

// DeriveFromMnemonic deterministically derives a signer from a BIP-39
// mnemonic. It exists for local development and reproducible tests; enclave
// deployments use Generate.
func DeriveFromMnemonic(mnemonic string, scheme Scheme) (Signer, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("mnemonic is required")
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("mnemonic is not a valid BIP-39 mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")

	switch scheme {
	case SchemeEd25519:
		sk := hkdfExpand32(seed, []byte(ed25519InfoV1))
		priv := ed25519.NewKeyFromSeed(sk[:])
		return &Ed25519Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
	case SchemeSecp256k1:
		sk := hkdfExpand32(seed, []byte(secp256k1InfoV1))
		return newSecp256k1Signer(secp256k1.PrivKeyFromBytes(sk[:])), nil
	default:
		return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}

func hkdfExpand32(seed, info []byte) [32]byte {
	rd := hkdf.New(sha256.New, seed, nil, info) // salt=nil; domain separation via info
	var out [32]byte
	_, _ = rd.Read(out[:])
	return out
}

// Fingerprint returns a short, stable identifier for a public key:
// the Sui address for ed25519 and the EVM address for secp256k1.
// Both are lowercase hex and 0x-prefixed.
func Fingerprint(scheme Scheme, pub []byte) (string, error) {
	switch scheme {
	case SchemeEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return "", fmt.Errorf("unexpected ed25519 pubkey length %d", len(pub))
		}
		return suiAddress(suiFlagEd25519, pub), nil
	case SchemeSecp256k1:
		pk, err := secp256k1.ParsePubKey(pub)
		if err != nil {
			return "", fmt.Errorf("secp256k1 pubkey parse: %w", err)
		}
		return evmAddressFromSecp256k1Pub(pk)
	default:
		return "", fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}

func suiAddress(flag byte, pub []byte) string {
	h, _ := blake2b.New256(nil)
	_, _ = h.Write([]byte{flag})
	_, _ = h.Write(pub)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func evmAddressFromSecp256k1Pub(pub *secp256k1.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("nil secp256k1 public key")
	}
	// Ethereum address = last 20 bytes of keccak256(uncompressed_pubkey[1:])
	uncompressed := pub.SerializeUncompressed() // 65 bytes: 0x04 || X(32) || Y(32)
	if len(uncompressed) != 65 || uncompressed[0] != 0x04 {
		return "", fmt.Errorf("unexpected secp256k1 uncompressed pubkey encoding")
	}

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(uncompressed[1:])
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[len(sum)-20:]), nil
}
