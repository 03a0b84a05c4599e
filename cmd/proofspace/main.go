package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/CaptainDiv/Proofspace/internal/attestation"
	pscli "github.com/CaptainDiv/Proofspace/internal/cli"
	"github.com/CaptainDiv/Proofspace/internal/server"
	"github.com/CaptainDiv/Proofspace/pkg/client"
	"github.com/CaptainDiv/Proofspace/pkg/keys"
)

func main() {
	if err := pscli.LoadEnvFile(pscli.Getenv("ENV_FILE", ".env")); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "proofspace",
		Usage: "Content attestation enclave that returns signed, timestamped, intent-scoped responses",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Generate an ephemeral signing key and serve the enclave endpoints",
				Flags: []cli.Flag{
					pscli.ListenAddrFlag,
					pscli.SignatureSchemeFlag,
					pscli.AttestationModeFlag,
					pscli.APIKeyFlag,
					pscli.DevMnemonicFlag,
					pscli.MaxBodyBytesFlag,
					pscli.DebugFlag,
				},
				Action: runServe,
			},
			{
				Name:  "verify",
				Usage: "Submit content to an enclave and verify the signed response",
				Flags: []cli.Flag{
					pscli.EnclaveURLFlag,
					pscli.ContentFlag,
					pscli.CheckAttestationFlag,
					pscli.APIKeyFlag,
					pscli.DebugFlag,
				},
				Action: runVerify,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	cfg, err := pscli.NewServeConfigFromCLI(c)
	if err != nil {
		return err
	}
	logger, err := pscli.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var (
		attester attestation.Provider
		entropy  io.Reader = rand.Reader
	)
	switch cfg.AttestationMode {
	case attestation.TypeNitro:
		nitro, err := attestation.OpenNitro()
		if err != nil {
			return err
		}
		defer nitro.Close()
		attester = nitro
		entropy = nitro
	default:
		logger.Warn("running with noop attestation; responses are not bound to an attested enclave")
		attester = attestation.NewNoop()
	}

	signer, err := newSigner(cfg, entropy)
	if err != nil {
		return fmt.Errorf("failed to create signing key: %w", err)
	}

	srv, err := server.New(server.Config{
		Logger:       logger,
		Signer:       signer,
		Attester:     attester,
		APIKey:       cfg.APIKey,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.ListenAddr)
}

func newSigner(cfg *pscli.ServeConfig, entropy io.Reader) (keys.Signer, error) {
	if cfg.DevMnemonic != "" {
		return keys.DeriveFromMnemonic(cfg.DevMnemonic, cfg.SignatureScheme)
	}
	return keys.Generate(cfg.SignatureScheme, entropy)
}

func runVerify(c *cli.Context) error {
	ctx := context.Background()
	cfg := pscli.NewVerifyConfigFromCLI(c)

	logger, err := pscli.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	v, err := client.New(logger, cfg.EnclaveURL, cfg.APIKey).VerifyContent(ctx, cfg.Content, cfg.CheckAttestation)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	logger.Info("Envelope verified",
		zap.String("fingerprint", v.Fingerprint),
		zap.Bool("attestation_checked", v.AttestationChecked),
	)
	pretty, _ := json.MarshalIndent(v.Envelope, "", "  ")
	fmt.Printf("%s\n", string(pretty))
	return nil
}
