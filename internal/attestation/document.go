package attestation

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Document is the payload of an AWS Nitro Enclaves attestation document.
// Only the fields needed to bind a public key are interpreted; the
// certificate chain is carried but not validated here.
type Document struct {
	ModuleID    string          `cbor:"module_id" json:"module_id"`
	Timestamp   uint64          `cbor:"timestamp" json:"timestamp"`
	Digest      string          `cbor:"digest" json:"digest"`
	PCRs        map[uint][]byte `cbor:"pcrs" json:"pcrs"`
	Certificate []byte          `cbor:"certificate" json:"certificate"`
	CABundle    [][]byte        `cbor:"cabundle" json:"cabundle"`
	PublicKey   []byte          `cbor:"public_key" json:"public_key,omitempty"`
	UserData    []byte          `cbor:"user_data" json:"user_data,omitempty"`
	Nonce       []byte          `cbor:"nonce" json:"nonce,omitempty"`
}

// coseSign1 is the COSE_Sign1 structure wrapping the document.
type coseSign1 struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected cbor.RawMessage
	Payload     []byte
	Signature   []byte
}

// ParseDocument decodes a COSE_Sign1 attestation document and returns its
// payload. The COSE signature is not checked.
func ParseDocument(raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty attestation document")
	}
	var msg coseSign1
	if err := cbor.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("cose_sign1 decode: %w", err)
	}
	if len(msg.Payload) == 0 {
		return nil, fmt.Errorf("attestation document has no payload")
	}
	var doc Document
	if err := cbor.Unmarshal(msg.Payload, &doc); err != nil {
		return nil, fmt.Errorf("attestation payload decode: %w", err)
	}
	return &doc, nil
}

func encodeUnsigned(doc *Document) ([]byte, error) {
	payload, err := cbor.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("attestation payload encode: %w", err)
	}
	protected, err := cbor.Marshal(map[int]int{})
	if err != nil {
		return nil, err
	}
	unprotected, err := cbor.Marshal(map[int]int{})
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(coseSign1{
		Protected:   protected,
		Unprotected: unprotected,
		Payload:     payload,
		Signature:   []byte{},
	})
}
