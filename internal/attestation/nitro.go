package attestation

import (
	"errors"
	"fmt"

	"github.com/hf/nsm"
	"github.com/hf/nsm/request"
)

// NitroProvider requests attestation documents from the Nitro Secure Module.
// The session is also an entropy source (io.Reader) backed by the NSM.
type NitroProvider struct {
	sess *nsm.Session
}

func OpenNitro() (*NitroProvider, error) {
	sess, err := nsm.OpenDefaultSession()
	if err != nil {
		return nil, fmt.Errorf("open nsm session: %w", err)
	}
	return &NitroProvider{sess: sess}, nil
}

func (p *NitroProvider) Type() string { return TypeNitro }

func (p *NitroProvider) Attest(publicKey []byte) ([]byte, error) {
	res, err := p.sess.Send(&request.Attestation{PublicKey: publicKey})
	if err != nil {
		return nil, fmt.Errorf("nsm attestation request: %w", err)
	}
	if res.Error != "" {
		return nil, errors.New(string(res.Error))
	}
	if res.Attestation == nil || res.Attestation.Document == nil {
		return nil, errors.New("attestation response missing attestation document")
	}
	return res.Attestation.Document, nil
}

// Read fills p with random bytes from the NSM.
func (p *NitroProvider) Read(b []byte) (int, error) {
	return p.sess.Read(b)
}

func (p *NitroProvider) Close() error {
	return p.sess.Close()
}
