package server

import (
	"encoding/json"
	"net/http"

	"github.com/CaptainDiv/Proofspace/internal/attestor"
	"github.com/CaptainDiv/Proofspace/pkg/types"
)

func (s *Server) handleProcessData(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	body, err := readBodyLimited(r.Body, s.maxBodyBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	var req types.ProcessDataRequest[types.ContentRequest]
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON request")
		return
	}

	resp, err := attestor.ProcessContent(s.signer, s.clock, req.Payload)
	if err != nil {
		// Clock, serialization and signing failures are all opaque to the caller.
		log.Errorw("failed to process data", "error", err)
		writeError(w, http.StatusInternalServerError, "processing_failed", "failed to process data")
		return
	}

	log.Debugw("processed data",
		"content_hash", resp.Response.Data.ContentHash,
		"timestamp_ms", resp.Response.TimestampMs,
	)
	writeJSON(w, http.StatusOK, resp)
}
