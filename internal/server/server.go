package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/CaptainDiv/Proofspace/internal/attestation"
	"github.com/CaptainDiv/Proofspace/pkg/envelope"
	"github.com/CaptainDiv/Proofspace/pkg/keys"
)

const (
	defaultMaxBodyBytes = 1 << 20 // 1 MiB
	shutdownTimeout     = 10 * time.Second
)

type Config struct {
	Logger   *zap.Logger
	Signer   keys.Signer
	Attester attestation.Provider
	// Clock defaults to envelope.SystemClock.
	Clock envelope.Clock
	// APIKey, if non-empty, is required as a bearer token on /process_data.
	APIKey       string
	MaxBodyBytes int64
}

// Server exposes the enclave endpoints. All fields are read-only after New,
// so handlers run concurrently without locking.
type Server struct {
	logger       *zap.Logger
	signer       keys.Signer
	attester     attestation.Provider
	clock        envelope.Clock
	apiKey       string
	maxBodyBytes int64
	fingerprint  string
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer cannot be nil")
	}
	if cfg.Attester == nil {
		return nil, fmt.Errorf("attester cannot be nil")
	}
	fp, err := keys.Fingerprint(cfg.Signer.Scheme(), cfg.Signer.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("fingerprint signer: %w", err)
	}
	s := &Server{
		logger:       cfg.Logger,
		signer:       cfg.Signer,
		attester:     cfg.Attester,
		clock:        cfg.Clock,
		apiKey:       cfg.APIKey,
		maxBodyBytes: cfg.MaxBodyBytes,
		fingerprint:  fp,
	}
	if s.clock == nil {
		s.clock = envelope.SystemClock
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultMaxBodyBytes
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withRequestID)

	r.Get("/", s.handlePing)
	r.Get("/health_check", s.handleHealthCheck)
	r.Get("/get_attestation", s.handleGetAttestation)
	r.Get("/content_attestor", s.handleStatus)
	r.With(s.requireAPIKey).Post("/process_data", s.handleProcessData)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Sugar().Infow("proofspace enclave listening",
			"addr", addr,
			"scheme", s.signer.Scheme(),
			"fingerprint", s.fingerprint,
			"attestation", s.attester.Type(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Sugar().Infow("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
