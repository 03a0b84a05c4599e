package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/CaptainDiv/Proofspace/internal/attestation"
	"github.com/CaptainDiv/Proofspace/pkg/envelope"
	"github.com/CaptainDiv/Proofspace/pkg/hasher"
	"github.com/CaptainDiv/Proofspace/pkg/keys"
	"github.com/CaptainDiv/Proofspace/pkg/types"
)

const (
	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
	multiplier      = 1.5
	maxElapsedTime  = 2 * time.Minute
	requestTimeout  = 30 * time.Second

	maxResponseBytes = 8 << 20
)

var (
	ErrHashMismatch        = errors.New("content hash mismatch")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrKeyMismatch         = errors.New("envelope public key does not match enclave key")
	ErrAttestationMismatch = errors.New("attestation document does not bind enclave key")
	ErrResponseTooLarge    = errors.New("response too large")
)

// Client talks to a running enclave and verifies what it returns.
type Client struct {
	logger     *zap.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// MaxElapsedTime bounds retries; zero disables retrying.
	MaxElapsedTime time.Duration
}

func New(logger *zap.Logger, baseURL, apiKey string) *Client {
	return &Client{
		logger:         logger,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: requestTimeout},
		MaxElapsedTime: maxElapsedTime,
	}
}

// Verification is the outcome of VerifyContent.
type Verification struct {
	Envelope            *types.SignedResponse[types.ContentResponse]
	Fingerprint         string
	AttestationChecked  bool
	AttestationModuleID string
}

func (c *Client) ProcessData(ctx context.Context, content string) (*types.SignedResponse[types.ContentResponse], error) {
	reqBody, err := json.Marshal(types.ProcessDataRequest[types.ContentRequest]{
		Payload: types.ContentRequest{Content: content},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal process_data request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/process_data", reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to process data: %w", err)
	}
	var resp types.SignedResponse[types.ContentResponse]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal process_data response: %w", err)
	}
	return &resp, nil
}

func (c *Client) HealthCheck(ctx context.Context) (*types.HealthCheckResponse, error) {
	body, err := c.do(ctx, http.MethodGet, "/health_check", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get health check: %w", err)
	}
	var resp types.HealthCheckResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health check: %w", err)
	}
	return &resp, nil
}

// GetAttestation returns the raw attestation document.
func (c *Client) GetAttestation(ctx context.Context) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, "/get_attestation", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get attestation: %w", err)
	}
	var resp types.AttestationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attestation: %w", err)
	}
	doc, err := hex.DecodeString(resp.Attestation)
	if err != nil {
		return nil, fmt.Errorf("attestation hex: %w", err)
	}
	return doc, nil
}

// VerifyContent submits content, then checks that the returned envelope
// carries the locally computed hash, is scoped to process_data, and is signed
// by the key the enclave declares. With checkAttestation the declared key must
// also be the one bound in the attestation document.
func (c *Client) VerifyContent(ctx context.Context, content string, checkAttestation bool) (*Verification, error) {
	hc, err := c.HealthCheck(ctx)
	if err != nil {
		return nil, err
	}
	scheme, err := keys.ParseScheme(hc.Scheme)
	if err != nil {
		return nil, err
	}
	pub, err := hex.DecodeString(hc.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("enclave pk hex: %w", err)
	}

	v := &Verification{Fingerprint: hc.Fingerprint}
	if checkAttestation {
		raw, err := c.GetAttestation(ctx)
		if err != nil {
			return nil, err
		}
		doc, err := attestation.ParseDocument(raw)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(doc.PublicKey, pub) {
			return nil, ErrAttestationMismatch
		}
		v.AttestationChecked = true
		v.AttestationModuleID = doc.ModuleID
	}

	c.logger.Sugar().Debugw("Submitting content", "url", c.baseURL, "bytes", len(content))
	resp, err := c.ProcessData(ctx, content)
	if err != nil {
		return nil, err
	}
	v.Envelope = resp

	if want := hasher.ContentHash([]byte(content)); resp.Response.Data.ContentHash != want {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrHashMismatch, resp.Response.Data.ContentHash, want)
	}
	if resp.Response.IntentScope != types.IntentScopeProcessData {
		return nil, fmt.Errorf("unexpected intent scope %d", resp.Response.IntentScope)
	}
	if !strings.EqualFold(resp.PublicKey, hc.PublicKey) || resp.Scheme != hc.Scheme {
		return nil, ErrKeyMismatch
	}

	ok, err := envelope.VerifyWithKey(resp, scheme, pub)
	if err != nil {
		return nil, fmt.Errorf("signature verification error: %w", err)
	}
	if !ok {
		return nil, ErrInvalidSignature
	}
	return v, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody []byte) ([]byte, error) {
	url := c.baseURL + path

	operation := func() ([]byte, error) {
		var rd io.Reader
		if reqBody != nil {
			rd = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		responseBody, err := readResponseLimited(resp.Body, maxResponseBytes)
		if errors.Is(err, ErrResponseTooLarge) {
			return nil, backoff.Permanent(err)
		}
		if err != nil {
			return nil, err
		}

		// 502/503/504 are transient; any other 5xx is the enclave refusing the input.
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(responseBody))
		}
		if resp.StatusCode >= 500 {
			return nil, backoff.Permanent(fmt.Errorf("server error %d: %s", resp.StatusCode, string(responseBody)))
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("client error %d: %s", resp.StatusCode, string(responseBody)))
		}
		return responseBody, nil
	}

	return c.retry(ctx, method+" "+path, operation)
}

func readResponseLimited(r io.Reader, max int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrResponseTooLarge, max)
	}
	return b, nil
}

func (c *Client) retry(ctx context.Context, logMessage string, operation func() ([]byte, error)) ([]byte, error) {
	retries := 0
	wrappedOperation := func() ([]byte, error) {
		c.logger.Sugar().Debugw(logMessage, "retries", retries)
		retries++
		return operation()
	}

	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = initialInterval
	exponentialBackoff.MaxInterval = maxInterval
	exponentialBackoff.Multiplier = multiplier

	opts := []backoff.RetryOption{
		backoff.WithBackOff(exponentialBackoff),
		backoff.WithMaxElapsedTime(c.MaxElapsedTime),
	}
	if c.MaxElapsedTime <= 0 {
		opts = []backoff.RetryOption{backoff.WithBackOff(&backoff.StopBackOff{})}
	}
	return backoff.Retry(ctx, wrappedOperation, opts...)
}
