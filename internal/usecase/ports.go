package usecase

import (
	"context"

	"github.com/fdwmarket/marketd"
	"github.com/fdwmarket/marketd/internal/domain"
)

// IdentitySource fetches the authoritative record for a claimed identity.
// The zero-value record is the not-found sentinel; an unreachable source is
// a domain.UpstreamUnavailableError.
type IdentitySource interface {
	FetchIdentity(ctx context.Context, identity string) (domain.FDWRecord, error)
}

// SignatureBackend is the cryptographic capability behind trust elevation.
// Fingerprint extraction is deterministic for a given key; VerifyDetached
// never reports a tampered or unsigned message as valid.
type SignatureBackend interface {
	VerifyDetached(ctx context.Context, signedMessage string) (fingerprint string, valid bool)
	ImportKey(ctx context.Context, keyMaterial string) (fingerprint string, ok bool)
}

// AccountRepository defines persistence for accounts and role grants.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByUsername(ctx context.Context, username string) (domain.Account, error)
	UpdateProfile(ctx context.Context, username string, update domain.ProfileUpdate) (domain.Account, error)
	BannedIdentities(ctx context.Context) (map[string]struct{}, error)
	GrantRole(ctx context.Context, accountID uint, role string) error
	ListByRole(ctx context.Context, role string) ([]domain.Account, error)
}

// EventPublisher publishes account events for realtime subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event marketd.Event) error
}
