package sendaccess

import (
	"context"

	"github.com/sendvault/sendvault/internal/send"
)

// OpenAccessValidator authorizes Sends that require no secret. It consults
// no secret input and succeeds immediately.
type OpenAccessValidator struct {
	issuer claimsIssuer
}

// Validate emits claims scoped to the Send.
func (v *OpenAccessValidator) Validate(_ context.Context, id send.ID, _ TokenRequest, _ send.AuthenticationMethod) (AccessTokenClaims, *GrantError) {
	return v.issuer.claims(id), nil
}
