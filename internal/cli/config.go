package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/CaptainDiv/Proofspace/internal/attestation"
	"github.com/CaptainDiv/Proofspace/pkg/keys"
)

type ServeConfig struct {
	ListenAddr      string
	SignatureScheme keys.Scheme
	AttestationMode string
	APIKey          string
	DevMnemonic     string
	MaxBodyBytes    int64
	Debug           bool
}

type VerifyConfig struct {
	EnclaveURL       string
	APIKey           string
	Content          string
	CheckAttestation bool
	Debug            bool
}

// LoadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error. It must run
// before the CLI app parses flags so that EnvVars see the values.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func NewServeConfigFromCLI(c *cli.Context) (*ServeConfig, error) {
	scheme, err := keys.ParseScheme(c.String(SignatureSchemeFlag.Name))
	if err != nil {
		return nil, err
	}
	mode, err := attestation.ParseType(c.String(AttestationModeFlag.Name))
	if err != nil {
		return nil, err
	}
	cfg := &ServeConfig{
		ListenAddr:      strings.TrimSpace(c.String(ListenAddrFlag.Name)),
		SignatureScheme: scheme,
		AttestationMode: mode,
		APIKey:          strings.TrimSpace(c.String(APIKeyFlag.Name)),
		DevMnemonic:     strings.TrimSpace(c.String(DevMnemonicFlag.Name)),
		MaxBodyBytes:    c.Int64(MaxBodyBytesFlag.Name),
		Debug:           c.Bool(DebugFlag.Name),
	}
	return cfg, cfg.Validate()
}

func (cfg *ServeConfig) Validate() error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen-addr must not be empty")
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("max-body-bytes must be positive, got %d", cfg.MaxBodyBytes)
	}
	// A key known outside the enclave must never be bound to a real attestation.
	if cfg.DevMnemonic != "" && cfg.AttestationMode == attestation.TypeNitro {
		return fmt.Errorf("dev-mnemonic cannot be combined with nitro attestation")
	}
	return nil
}

func NewVerifyConfigFromCLI(c *cli.Context) *VerifyConfig {
	return &VerifyConfig{
		EnclaveURL:       strings.TrimRight(strings.TrimSpace(c.String(EnclaveURLFlag.Name)), "/"),
		APIKey:           strings.TrimSpace(c.String(APIKeyFlag.Name)),
		Content:          c.String(ContentFlag.Name),
		CheckAttestation: c.Bool(CheckAttestationFlag.Name),
		Debug:            c.Bool(DebugFlag.Name),
	}
}

func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Getenv returns the trimmed value of k, or def when unset.
func Getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
