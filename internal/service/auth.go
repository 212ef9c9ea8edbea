package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/fdwmarket/marketd/internal/domain"
	"github.com/fdwmarket/marketd/jwt"
)

var tracer = otel.Tracer("service")

// AuthService validates session tokens issued at login.
type AuthService struct {
	config domain.Config
}

func NewAuthService(config domain.Config) *AuthService {
	return &AuthService{config: config}
}

type AuthResult struct {
	Username string
}

func (s *AuthService) AuthSession(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthSession")
	defer span.End()

	_, claims, err := jwt.Validate(token)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	if claims.Audience != s.config.FQDN {
		err := fmt.Errorf("jwt audience mismatch: expected %s, got %s", s.config.FQDN, claims.Audience)
		span.RecordError(err)
		return nil, err
	}

	if claims.Subject != "marketd-session" {
		err := fmt.Errorf("invalid subject")
		span.RecordError(err)
		return nil, err
	}

	// session tokens are signed by this node only
	if claims.Issuer != s.config.Fingerprint {
		err := fmt.Errorf("jwt issued by unknown signer")
		span.RecordError(err)
		return nil, err
	}

	if claims.Principal == "" {
		err := fmt.Errorf("jwt carries no principal")
		span.RecordError(err)
		return nil, err
	}

	return &AuthResult{Username: claims.Principal}, nil
}
