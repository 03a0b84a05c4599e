// Package attestor implements the content attestation computation exposed by
// the enclave.
package attestor

import (
	"fmt"

	"github.com/CaptainDiv/Proofspace/pkg/envelope"
	"github.com/CaptainDiv/Proofspace/pkg/hasher"
	"github.com/CaptainDiv/Proofspace/pkg/keys"
	"github.com/CaptainDiv/Proofspace/pkg/types"
)

// ProcessContent hashes req.Content and seals the result under
// IntentScopeProcessData. It is a single pass; failures are not retried.
func ProcessContent(signer keys.Signer, clock envelope.Clock, req types.ContentRequest) (*types.SignedResponse[types.ContentResponse], error) {
	resp := types.ContentResponse{ContentHash: hasher.ContentHash([]byte(req.Content))}
	signed, err := envelope.Seal(signer, clock, types.IntentScopeProcessData, resp)
	if err != nil {
		return nil, fmt.Errorf("seal content response: %w", err)
	}
	return signed, nil
}
