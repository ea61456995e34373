package sendaccess

import (
	"context"

	"github.com/sendvault/sendvault/internal/password"
	"github.com/sendvault/sendvault/internal/send"
)

// ResourcePasswordValidator authorizes password-protected Sends. Clients
// pre-hash the password locally; only hashes are compared here.
type ResourcePasswordValidator struct {
	verifier password.Verifier
	issuer   claimsIssuer
}

// Validate checks the submitted pre-hash against the stored hash. Decoy
// methods carry a derived hash of the same format, so the comparison runs
// at the same cost whether or not the Send exists.
func (v *ResourcePasswordValidator) Validate(_ context.Context, id send.ID, req TokenRequest, method send.AuthenticationMethod) (AccessTokenClaims, *GrantError) {
	if req.ClientB64HashedPassword == "" {
		return AccessTokenClaims{}, invalidRequest(DescPasswordRequired)
	}

	if !v.verifier.Matches(method.StoredHash, req.ClientB64HashedPassword) {
		// A real mismatch is a credential failure. A decoy mismatch is
		// reported as invalid_request instead: observed upstream behavior,
		// pinned by TestDecoyPasswordMismatchErrorCode. Do not "fix"
		// without confirming intent.
		if method.Decoy {
			return AccessTokenClaims{}, invalidRequest(DescPasswordInvalid)
		}
		return AccessTokenClaims{}, invalidGrant(DescPasswordInvalid)
	}

	return v.issuer.claims(id), nil
}
