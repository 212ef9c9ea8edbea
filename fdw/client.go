// Package fdw queries the external FDW identity authority.
package fdw

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fdwmarket/marketd/internal/domain"
)

const defaultTimeout = 3 * time.Second

// Client looks identities up in the remote FDW store. Each lookup opens its
// own connection and releases it before returning; no state is retained
// across calls.
type Client struct {
	dsn     string
	timeout time.Duration
}

func New(dsn string) *Client {
	return &Client{
		dsn:     dsn,
		timeout: defaultTimeout,
	}
}

// FetchIdentity returns the authoritative record for an identity string, or
// the zero-value sentinel when no record matches. An unreachable store is a
// domain.UpstreamUnavailableError, never conflated with not-found.
func (c *Client) FetchIdentity(ctx context.Context, identity string) (domain.FDWRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, c.dsn)
	if err != nil {
		return domain.FDWRecord{}, domain.UpstreamUnavailableError{Cause: err}
	}
	defer conn.Close(ctx)

	var record domain.FDWRecord
	err = conn.QueryRow(ctx,
		"SELECT username, password, id FROM users WHERE username = $1",
		identity,
	).Scan(&record.Identity, &record.CredentialHash, &record.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FDWRecord{}, nil
	}
	if err != nil {
		return domain.FDWRecord{}, domain.UpstreamUnavailableError{Cause: err}
	}

	return record, nil
}
