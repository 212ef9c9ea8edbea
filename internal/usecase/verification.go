package usecase

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/fdwmarket/marketd/credential"
	"github.com/fdwmarket/marketd/internal/domain"
)

var tracer = otel.Tracer("usecase")

// VerificationUsecase cross-checks a claimed FDW identity and credential
// against the remote authoritative record. Stateless; safe for concurrent
// use.
type VerificationUsecase struct {
	source IdentitySource
}

func NewVerificationUsecase(source IdentitySource) *VerificationUsecase {
	return &VerificationUsecase{source: source}
}

// Verify runs one verification attempt. Check order is observable behavior:
// malformed credential is rejected before any upstream traffic, the banned
// check precedes the credential comparison so a banned user with a correct
// credential is still rejected for the ban. Infrastructure failures come
// back as errors, never as rejections.
func (uc *VerificationUsecase) Verify(ctx context.Context, claimedIdentity string, rawCredential []byte, bannedIdentities map[string]struct{}) (domain.VerificationResult, error) {
	ctx, span := tracer.Start(ctx, "Verification.Usecase.Verify")
	defer span.End()

	digest, err := credential.Hash(rawCredential)
	if err != nil {
		return domain.Rejected(domain.RejectMalformedCredential), nil
	}

	record, err := uc.source.FetchIdentity(ctx, claimedIdentity)
	if err != nil {
		span.RecordError(errors.Wrap(err, "fdw lookup failed"))
		return domain.VerificationResult{}, err
	}

	if !strings.EqualFold(claimedIdentity, record.Identity) {
		return domain.Rejected(domain.RejectIdentityMismatch), nil
	}

	if _, banned := bannedIdentities[claimedIdentity]; banned {
		return domain.Rejected(domain.RejectBannedIdentity), nil
	}

	if !credential.Equal(digest, record.CredentialHash) {
		return domain.Rejected(domain.RejectCredentialMismatch), nil
	}

	return domain.Confirmed(record.ID), nil
}
