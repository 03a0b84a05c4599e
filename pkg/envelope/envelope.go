// Package envelope seals computed payloads into signed, timestamped and
// intent-scoped responses, and verifies them.
package envelope

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/CaptainDiv/Proofspace/pkg/keys"
	"github.com/CaptainDiv/Proofspace/pkg/types"
)

var (
	ErrClock         = errors.New("clock error")
	ErrSerialization = errors.New("serialization error")
	ErrSigning       = errors.New("signing error")
)

// Clock supplies wall-clock time in milliseconds since the Unix epoch.
type Clock interface {
	NowMs() (uint64, error)
}

// ClockFunc adapts a time source to Clock.
type ClockFunc func() time.Time

// NowMs fails with ErrClock when the time source reports a time before the
// Unix epoch; it never clamps.
func (f ClockFunc) NowMs() (uint64, error) {
	now := f()
	ms := now.UnixMilli()
	if ms < 0 {
		return 0, fmt.Errorf("%w: wall clock %s is before the unix epoch", ErrClock, now.UTC().Format(time.RFC3339Nano))
	}
	return uint64(ms), nil
}

// SystemClock reads the host wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Seal stamps data with the current time and scope, signs the canonical
// encoding with signer and returns the complete envelope. On any error no
// envelope is returned.
func Seal[T any](signer keys.Signer, clock Clock, scope types.IntentScope, data T) (*types.SignedResponse[T], error) {
	if signer == nil {
		return nil, fmt.Errorf("%w: nil signer", ErrSigning)
	}
	if clock == nil {
		return nil, fmt.Errorf("%w: nil clock", ErrClock)
	}

	timestampMs, err := clock.NowMs()
	if err != nil {
		if !errors.Is(err, ErrClock) {
			err = fmt.Errorf("%w: %w", ErrClock, err)
		}
		return nil, err
	}

	msg, err := CanonicalMessage(scope, timestampMs, data)
	if err != nil {
		return nil, err
	}

	sig, err := signer.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrSigning)
	}

	return &types.SignedResponse[T]{
		Response: types.IntentMessage[T]{
			IntentScope: scope,
			TimestampMs: timestampMs,
			Data:        data,
		},
		Signature: hex.EncodeToString(sig),
		PublicKey: hex.EncodeToString(signer.PublicKey()),
		Scheme:    string(signer.Scheme()),
	}, nil
}

// VerifyWithKey verifies resp against a public key obtained out of band
// (for example from an attestation document).
func VerifyWithKey[T any](resp *types.SignedResponse[T], scheme keys.Scheme, pub []byte) (bool, error) {
	if resp == nil {
		return false, fmt.Errorf("nil signed response")
	}
	sig, err := hex.DecodeString(resp.Signature)
	if err != nil {
		return false, fmt.Errorf("signature hex: %w", err)
	}
	msg, err := CanonicalMessage(resp.Response.IntentScope, resp.Response.TimestampMs, resp.Response.Data)
	if err != nil {
		return false, err
	}
	return keys.Verify(scheme, pub, msg, sig)
}

// Verify checks resp against the public key and scheme it carries. This only
// proves integrity; callers must separately establish that the key belongs
// to an attested enclave.
func Verify[T any](resp *types.SignedResponse[T]) (bool, error) {
	if resp == nil {
		return false, fmt.Errorf("nil signed response")
	}
	scheme, err := keys.ParseScheme(resp.Scheme)
	if err != nil {
		return false, err
	}
	pub, err := hex.DecodeString(resp.PublicKey)
	if err != nil {
		return false, fmt.Errorf("public_key hex: %w", err)
	}
	return VerifyWithKey(resp, scheme, pub)
}
