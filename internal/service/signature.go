package service

import (
	"context"
	"encoding/json"

	"github.com/fdwmarket/marketd"
)

// SignatureService is the secp256k1 backend behind trust elevation. Any
// conformant backend can substitute; fingerprints are deterministic per key
// and a tampered or unsigned message never verifies.
type SignatureService struct{}

func NewSignatureService() *SignatureService {
	return &SignatureService{}
}

// VerifyDetached parses a signed-message envelope and checks its detached
// signature. Returns the signer's fingerprint when valid.
func (s *SignatureService) VerifyDetached(ctx context.Context, signedMessage string) (string, bool) {
	_, span := tracer.Start(ctx, "Signature.Service.VerifyDetached")
	defer span.End()

	var sm marketd.SignedMessage
	if err := json.Unmarshal([]byte(signedMessage), &sm); err != nil {
		return "", false
	}
	if sm.Message == "" || sm.Proof.Signature == "" {
		return "", false
	}

	fingerprint, err := marketd.VerifyMessage(sm)
	if err != nil {
		span.RecordError(err)
		return "", false
	}
	return fingerprint, true
}

// ImportKey parses stored public key material and returns its fingerprint.
func (s *SignatureService) ImportKey(ctx context.Context, keyMaterial string) (string, bool) {
	_, span := tracer.Start(ctx, "Signature.Service.ImportKey")
	defer span.End()

	fingerprint, err := marketd.ImportPublicKey(keyMaterial)
	if err != nil {
		span.RecordError(err)
		return "", false
	}
	return fingerprint, true
}
