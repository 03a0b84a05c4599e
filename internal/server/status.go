package server

import (
	"encoding/hex"
	"net/http"

	"github.com/CaptainDiv/Proofspace/pkg/types"
)

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Pong!"))
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthCheckResponse{
		PublicKey:   hex.EncodeToString(s.signer.PublicKey()),
		Scheme:      string(s.signer.Scheme()),
		Fingerprint: s.fingerprint,
		Attestation: s.attester.Type(),
	})
}

func (s *Server) handleGetAttestation(w http.ResponseWriter, r *http.Request) {
	doc, err := s.attester.Attest(s.signer.PublicKey())
	if err != nil {
		s.requestLogger(r).Errorw("failed to get attestation", "error", err)
		writeError(w, http.StatusInternalServerError, "attestation_failed", "failed to get attestation")
		return
	}
	writeJSON(w, http.StatusOK, types.AttestationResponse{Attestation: hex.EncodeToString(doc)})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.StatusResponse{
		Status:  "ok",
		Message: "content_attestor enclave is running",
	})
}
