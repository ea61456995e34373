package sendaccess

import (
	"context"
	"time"

	"github.com/sendvault/sendvault/internal/send"
)

// AccessTokenClaims is the claims set handed to the token minter on a
// successful grant. Opaque to this package beyond construction.
type AccessTokenClaims struct {
	SendID    send.ID
	Scope     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Minter is the external collaborator that turns claims into a bearer token.
type Minter interface {
	Issue(ctx context.Context, claims AccessTokenClaims) (string, error)
}

// claimsIssuer stamps claims for successful validations. The clock is a
// field so tests can pin issuance time.
type claimsIssuer struct {
	ttl time.Duration
	now func() time.Time
}

func (i claimsIssuer) claims(id send.ID) AccessTokenClaims {
	now := i.now()
	return AccessTokenClaims{
		SendID:    id,
		Scope:     ScopeSendAccess,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}
}
