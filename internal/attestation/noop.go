package attestation

import (
	"time"
)

// NoopProvider produces unsigned documents with the same layout as Nitro
// ones so that clients can be exercised outside an enclave. Its documents
// carry no trust.
type NoopProvider struct {
	now func() time.Time
}

func NewNoop() *NoopProvider {
	return &NoopProvider{now: time.Now}
}

func (p *NoopProvider) Type() string { return TypeNoop }

func (p *NoopProvider) Attest(publicKey []byte) ([]byte, error) {
	return encodeUnsigned(&Document{
		ModuleID:  TypeNoop,
		Timestamp: uint64(p.now().UnixMilli()),
		Digest:    "SHA384",
		PCRs:      map[uint][]byte{},
		CABundle:  [][]byte{},
		PublicKey: append([]byte(nil), publicKey...),
	})
}
