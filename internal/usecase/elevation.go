package usecase

import (
	"context"

	"github.com/fdwmarket/marketd/internal/domain"
)

// ElevationUsecase decides vendor-status elevation: a message signed with
// the key on file proves key ownership. One-shot and deterministic per call.
type ElevationUsecase struct {
	backend SignatureBackend
}

func NewElevationUsecase(backend SignatureBackend) *ElevationUsecase {
	return &ElevationUsecase{backend: backend}
}

// Elevate verifies the signed message, imports the account's stored key and
// compares fingerprints. The caller persists the role grant on success.
func (uc *ElevationUsecase) Elevate(ctx context.Context, storedKeyMaterial string, signedMessage string) domain.ElevationResult {
	ctx, span := tracer.Start(ctx, "Elevation.Usecase.Elevate")
	defer span.End()

	signerFp, valid := uc.backend.VerifyDetached(ctx, signedMessage)
	if !valid {
		return domain.ElevationRejected(domain.ElevationSignatureInvalid)
	}

	keyFp, ok := uc.backend.ImportKey(ctx, storedKeyMaterial)
	if !ok {
		return domain.ElevationRejected(domain.ElevationKeyInvalid)
	}

	if signerFp != keyFp {
		return domain.ElevationRejected(domain.ElevationFingerprintMismatch)
	}

	return domain.Granted()
}
