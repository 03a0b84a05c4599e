package envelope

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/CaptainDiv/Proofspace/pkg/hasher"
	"github.com/CaptainDiv/Proofspace/pkg/keys"
	"github.com/CaptainDiv/Proofspace/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func fixedClock(ms int64) Clock {
	return ClockFunc(func() time.Time { return time.UnixMilli(ms) })
}

func testSigner(t *testing.T, scheme keys.Scheme) keys.Signer {
	t.Helper()
	s, err := keys.DeriveFromMnemonic(testMnemonic, scheme)
	if err != nil {
		t.Fatalf("DeriveFromMnemonic: %v", err)
	}
	return s
}

type failingSigner struct{ keys.Signer }

func (failingSigner) Sign([]byte) ([]byte, error) { return nil, errors.New("hsm unavailable") }

func TestCanonicalMessage_Layout(t *testing.T) {
	data := types.ContentResponse{ContentHash: hasher.ContentHash([]byte("hello lagos"))}
	msg, err := CanonicalMessage(types.IntentScopeProcessData, 1734739200123, data)
	if err != nil {
		t.Fatalf("CanonicalMessage: %v", err)
	}

	var want bytes.Buffer
	want.WriteByte(byte(types.IntentScopeProcessData))
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], 1734739200123)
	want.Write(ts[:])
	want.WriteByte(64) // ULEB128 length of the hex digest
	want.WriteString(data.ContentHash)

	if !bytes.Equal(msg, want.Bytes()) {
		t.Fatalf("canonical bytes mismatch:\n got %x\nwant %x", msg, want.Bytes())
	}

	again, _ := CanonicalMessage(types.IntentScopeProcessData, 1734739200123, data)
	if !bytes.Equal(msg, again) {
		t.Fatalf("canonical encoding is not deterministic")
	}
}

func TestSeal_SignAndVerify(t *testing.T) {
	for _, scheme := range []keys.Scheme{keys.SchemeEd25519, keys.SchemeSecp256k1} {
		t.Run(string(scheme), func(t *testing.T) {
			signer := testSigner(t, scheme)
			data := types.ContentResponse{ContentHash: hasher.ContentHash([]byte("hello lagos"))}

			env, err := Seal(signer, SystemClock, types.IntentScopeProcessData, data)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if env.Signature == "" {
				t.Fatalf("expected non-empty signature")
			}
			if env.Response.TimestampMs == 0 {
				t.Fatalf("expected positive timestamp")
			}
			if env.Response.Data.ContentHash != data.ContentHash {
				t.Fatalf("payload altered by Seal")
			}
			if env.PublicKey != hex.EncodeToString(signer.PublicKey()) {
				t.Fatalf("public key mismatch")
			}

			ok, err := VerifyWithKey(env, scheme, signer.PublicKey())
			if err != nil {
				t.Fatalf("VerifyWithKey: %v", err)
			}
			if !ok {
				t.Fatalf("expected envelope to verify")
			}

			ok, err = Verify(env)
			if err != nil || !ok {
				t.Fatalf("Verify = %v, %v", ok, err)
			}
		})
	}
}

func TestSeal_TamperDetection(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519)
	data := types.ContentResponse{ContentHash: hasher.ContentHash([]byte("hello lagos"))}
	env, err := Seal(signer, fixedClock(1734739200000), types.IntentScopeProcessData, data)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	sig, _ := hex.DecodeString(env.Signature)

	msg, err := CanonicalMessage(env.Response.IntentScope, env.Response.TimestampMs, env.Response.Data)
	if err != nil {
		t.Fatalf("CanonicalMessage: %v", err)
	}
	for i := range msg {
		mutated := append([]byte(nil), msg...)
		mutated[i] ^= 0x01
		ok, err := keys.Verify(keys.SchemeEd25519, signer.PublicKey(), mutated, sig)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if ok {
			t.Fatalf("verification succeeded after flipping byte %d", i)
		}
	}

	tampered := *env
	tampered.Response.TimestampMs++
	if ok, _ := VerifyWithKey(&tampered, keys.SchemeEd25519, signer.PublicKey()); ok {
		t.Fatalf("verification succeeded with altered timestamp")
	}

	tampered = *env
	tampered.Response.Data.ContentHash = hasher.ContentHash([]byte("hello lagos!"))
	if ok, _ := VerifyWithKey(&tampered, keys.SchemeEd25519, signer.PublicKey()); ok {
		t.Fatalf("verification succeeded with altered payload")
	}
}

func TestSeal_ScopeBinding(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519)
	data := types.ContentResponse{ContentHash: hasher.ContentHash(nil)}
	env, err := Seal(signer, fixedClock(1734739200000), types.IntentScopeProcessData, data)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	rescoped := *env
	rescoped.Response.IntentScope = types.IntentScope(42)
	ok, err := VerifyWithKey(&rescoped, keys.SchemeEd25519, signer.PublicKey())
	if err != nil {
		t.Fatalf("VerifyWithKey: %v", err)
	}
	if ok {
		t.Fatalf("signature for scope %d verified under scope 42", types.IntentScopeProcessData)
	}
}

func TestSeal_WrongKey(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519)
	other, err := keys.Generate(keys.SchemeEd25519, rand.Reader)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	env, err := Seal(signer, SystemClock, types.IntentScopeProcessData, types.ContentResponse{})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if ok, _ := VerifyWithKey(env, keys.SchemeEd25519, other.PublicKey()); ok {
		t.Fatalf("envelope verified under an unrelated key")
	}
}

func TestSeal_TimestampsNonDecreasing(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519)
	var last uint64
	for i := 0; i < 50; i++ {
		env, err := Seal(signer, SystemClock, types.IntentScopeProcessData, types.ContentResponse{})
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		if env.Response.TimestampMs < last {
			t.Fatalf("timestamp went backwards: %d < %d", env.Response.TimestampMs, last)
		}
		last = env.Response.TimestampMs
	}
}

func TestSeal_ClockBeforeEpoch(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519)
	env, err := Seal(signer, fixedClock(-1), types.IntentScopeProcessData, types.ContentResponse{})
	if !errors.Is(err, ErrClock) {
		t.Fatalf("expected ErrClock, got %v", err)
	}
	if env != nil {
		t.Fatalf("expected no envelope on clock failure")
	}
}

func TestSeal_SigningFailure(t *testing.T) {
	signer := failingSigner{testSigner(t, keys.SchemeEd25519)}
	env, err := Seal[types.ContentResponse](signer, SystemClock, types.IntentScopeProcessData, types.ContentResponse{})
	if !errors.Is(err, ErrSigning) {
		t.Fatalf("expected ErrSigning, got %v", err)
	}
	if env != nil {
		t.Fatalf("expected no envelope on signing failure")
	}
}

func TestSeal_UnencodablePayload(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519)

	type withMap struct{ M map[string]string }
	type withInt struct{ N int }
	type withChannel struct {
		Hash string
		C    chan int
	}
	type withNestedFunc struct {
		Inner []struct{ F func() }
	}

	cases := map[string]func() error{
		"map": func() error {
			_, err := Seal(signer, SystemClock, types.IntentScopeProcessData, withMap{M: map[string]string{"a": "b"}})
			return err
		},
		"int": func() error {
			_, err := Seal(signer, SystemClock, types.IntentScopeProcessData, withInt{N: 1})
			return err
		},
		"chan": func() error {
			_, err := Seal(signer, SystemClock, types.IntentScopeProcessData, withChannel{Hash: "x", C: make(chan int)})
			return err
		},
		"nested func": func() error {
			_, err := Seal(signer, SystemClock, types.IntentScopeProcessData, withNestedFunc{})
			return err
		},
	}
	for name, seal := range cases {
		if err := seal(); !errors.Is(err, ErrSerialization) {
			t.Fatalf("%s: expected ErrSerialization, got %v", name, err)
		}
	}
}

func TestCanonicalMessage_RejectsDroppedFields(t *testing.T) {
	type withChannel struct {
		Hash string
		C    chan int
	}
	// Without the check, nil and non-nil channels encode to identical bytes.
	if _, err := CanonicalMessage(types.IntentScopeProcessData, 1, withChannel{Hash: "x"}); !errors.Is(err, ErrSerialization) {
		t.Fatalf("expected ErrSerialization for nil chan field, got %v", err)
	}
	if _, err := CanonicalMessage(types.IntentScopeProcessData, 1, types.ContentResponse{ContentHash: "x"}); err != nil {
		t.Fatalf("CanonicalMessage(ContentResponse): %v", err)
	}
}

func TestVerify_MalformedEnvelope(t *testing.T) {
	env := &types.SignedResponse[types.ContentResponse]{Signature: "zz", PublicKey: "00", Scheme: "ed25519"}
	if _, err := Verify(env); err == nil {
		t.Fatalf("expected error for non-hex signature")
	}
	env.Signature = "00"
	env.Scheme = "rsa"
	if _, err := Verify(env); err == nil {
		t.Fatalf("expected error for unknown scheme")
	}
}
