package ports

import (
	"context"

	"github.com/cascadehq/cascade/pkg/domain"
)

// SuspensionStore persists suspension records keyed by resume token. This
// enables webhook-style resumes in multi-replica deployments: every replica
// sees the record, but Claim hands the token to exactly one caller.
type SuspensionStore interface {
	// Save persists the record under its token.
	Save(ctx context.Context, s *domain.Suspension) error

	// Load retrieves the record for a token without claiming it. Returns
	// domain.ErrSuspensionNotFound if the token does not exist.
	Load(ctx context.Context, token string) (*domain.Suspension, error)

	// Claim atomically retrieves and deletes the record, so that exactly
	// one caller wins a given token. Returns domain.ErrSuspensionNotFound
	// if the token does not exist or was already claimed.
	Claim(ctx context.Context, token string) (*domain.Suspension, error)

	// Delete removes the record, if present.
	Delete(ctx context.Context, token string) error
}
