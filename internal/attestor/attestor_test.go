package attestor

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/CaptainDiv/Proofspace/pkg/envelope"
	"github.com/CaptainDiv/Proofspace/pkg/hasher"
	"github.com/CaptainDiv/Proofspace/pkg/keys"
	"github.com/CaptainDiv/Proofspace/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var lowerHex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestProcessContent_HelloLagos(t *testing.T) {
	signer, err := keys.DeriveFromMnemonic(testMnemonic, keys.SchemeEd25519)
	if err != nil {
		t.Fatalf("DeriveFromMnemonic: %v", err)
	}

	resp, err := ProcessContent(signer, envelope.SystemClock, types.ContentRequest{Content: "hello lagos"})
	if err != nil {
		t.Fatalf("ProcessContent: %v", err)
	}
	got := resp.Response.Data.ContentHash
	if !lowerHex64.MatchString(got) {
		t.Fatalf("content_hash is not 64 lowercase hex chars: %q", got)
	}
	if want := hasher.ContentHash([]byte("hello lagos")); got != want {
		t.Fatalf("content_hash = %s, want %s", got, want)
	}
	if resp.Signature == "" {
		t.Fatalf("expected non-empty signature")
	}
	if resp.Response.TimestampMs == 0 {
		t.Fatalf("expected positive timestamp")
	}
	if resp.Response.IntentScope != types.IntentScopeProcessData {
		t.Fatalf("intent scope = %d", resp.Response.IntentScope)
	}
	ok, err := envelope.VerifyWithKey(resp, keys.SchemeEd25519, signer.PublicKey())
	if err != nil || !ok {
		t.Fatalf("VerifyWithKey = %v, %v", ok, err)
	}
}

func TestProcessContent_Empty(t *testing.T) {
	signer, _ := keys.DeriveFromMnemonic(testMnemonic, keys.SchemeSecp256k1)
	resp, err := ProcessContent(signer, envelope.SystemClock, types.ContentRequest{})
	if err != nil {
		t.Fatalf("ProcessContent: %v", err)
	}
	if want := hasher.ContentHash(nil); resp.Response.Data.ContentHash != want {
		t.Fatalf("content_hash = %s, want %s", resp.Response.Data.ContentHash, want)
	}
	if ok, err := envelope.Verify(resp); err != nil || !ok {
		t.Fatalf("Verify = %v, %v", ok, err)
	}
}

func TestProcessContent_ClockFailure(t *testing.T) {
	signer, _ := keys.DeriveFromMnemonic(testMnemonic, keys.SchemeEd25519)
	broken := envelope.ClockFunc(func() time.Time { return time.Unix(-10, 0) })
	resp, err := ProcessContent(signer, broken, types.ContentRequest{Content: "x"})
	if !errors.Is(err, envelope.ErrClock) {
		t.Fatalf("expected ErrClock, got %v", err)
	}
	if resp != nil {
		t.Fatalf("expected nil response")
	}
}
