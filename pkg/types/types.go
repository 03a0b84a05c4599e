package types

// IntentScope is the domain-separation tag that prefixes every signed message.
// Verifiers (including on-chain ones) hard-code the same values, so existing
// constants must never be renumbered.
type IntentScope uint8

const (
	// IntentScopeProcessData binds a signature to the /process_data endpoint.
	IntentScopeProcessData IntentScope = 0
)

func (s IntentScope) String() string {
	switch s {
	case IntentScopeProcessData:
		return "process_data"
	default:
		return "unknown"
	}
}

// IntentMessage is the structure whose canonical encoding is signed.
// Field order is part of the wire contract.
type IntentMessage[T any] struct {
	IntentScope IntentScope `json:"intent_scope"`
	TimestampMs uint64      `json:"timestamp_ms"`
	Data        T           `json:"data"`
}

// SignedResponse is the on-wire response envelope returned by the enclave.
// Signature and PublicKey are lowercase hex.
type SignedResponse[T any] struct {
	Response  IntentMessage[T] `json:"response"`
	Signature string           `json:"signature"`
	PublicKey string           `json:"public_key"`
	Scheme    string           `json:"scheme"`
}

// ProcessDataRequest is the request body for the /process_data endpoint.
type ProcessDataRequest[T any] struct {
	Payload T `json:"payload"`
}

// ContentRequest is the caller-submitted payload for content attestation.
type ContentRequest struct {
	Content string `json:"content"`
}

// ContentResponse is the payload contained in SignedResponse.Response.Data for /process_data.
type ContentResponse struct {
	ContentHash string `json:"content_hash"`
}

// HealthCheckResponse describes the enclave's signing identity.
type HealthCheckResponse struct {
	PublicKey   string `json:"pk"`
	Scheme      string `json:"scheme"`
	Fingerprint string `json:"fingerprint"`
	Attestation string `json:"attestation_mode"`
}

// AttestationResponse carries the hex encoded attestation document.
type AttestationResponse struct {
	Attestation string `json:"attestation"`
}

// StatusResponse is returned by the content_attestor liveness endpoint.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
