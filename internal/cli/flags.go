package cli

import "github.com/urfave/cli/v2"

var (
	DebugFlag = &cli.BoolFlag{
		Name:    "debug",
		Usage:   "Enable development logging",
		EnvVars: []string{"DEBUG"},
	}

	ListenAddrFlag = &cli.StringFlag{
		Name:    "listen-addr",
		Usage:   "Address the enclave HTTP server listens on",
		Value:   "0.0.0.0:3000",
		EnvVars: []string{"LISTEN_ADDR"},
	}

	SignatureSchemeFlag = &cli.StringFlag{
		Name:    "signature-scheme",
		Usage:   "Ephemeral key scheme (ed25519, secp256k1)",
		Value:   "ed25519",
		EnvVars: []string{"SIGNATURE_SCHEME"},
	}

	AttestationModeFlag = &cli.StringFlag{
		Name:    "attestation",
		Usage:   "Attestation provider (nitro, noop)",
		Value:   "nitro",
		EnvVars: []string{"ATTESTATION_MODE"},
	}

	APIKeyFlag = &cli.StringFlag{
		Name:    "api-key",
		Usage:   "If set, /process_data requires \"Authorization: Bearer <key>\"",
		EnvVars: []string{"API_KEY"},
	}

	DevMnemonicFlag = &cli.StringFlag{
		Name:    "dev-mnemonic",
		Usage:   "Derive the signing key from a BIP-39 mnemonic instead of generating one (noop attestation only)",
		EnvVars: []string{"MNEMONIC"},
	}

	MaxBodyBytesFlag = &cli.Int64Flag{
		Name:    "max-body-bytes",
		Usage:   "Maximum accepted request body size",
		Value:   1 << 20,
		EnvVars: []string{"MAX_BODY_BYTES"},
	}

	EnclaveURLFlag = &cli.StringFlag{
		Name:     "enclave-url",
		Usage:    "Enclave base URL (e.g. http://localhost:3000)",
		Required: true,
		EnvVars:  []string{"ENCLAVE_URL"},
	}

	ContentFlag = &cli.StringFlag{
		Name:  "content",
		Usage: "Content to submit for attestation",
	}

	CheckAttestationFlag = &cli.BoolFlag{
		Name:  "check-attestation",
		Usage: "Require the attestation document to bind the enclave public key",
	}
)
