package attestation

import (
	"fmt"
	"strings"
)

const (
	TypeNitro = "nitro"
	TypeNoop  = "noop"
)

// Provider produces a remote-attestation document that binds the enclave's
// ephemeral public key to the measured enclave image.
type Provider interface {
	Type() string
	Attest(publicKey []byte) ([]byte, error)
}

func ParseType(s string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(s)); t {
	case TypeNitro, TypeNoop:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported attestation mode %q (expected nitro|noop)", s)
	}
}
