package sendaccess

import (
	"context"

	"github.com/sendvault/sendvault/internal/send"
)

// Validator implements one authentication strategy. It consumes the raw
// token request together with the resolved method and either emits claims
// or an OAuth2-shaped denial. Validators hold no per-request state.
type Validator interface {
	Validate(ctx context.Context, id send.ID, req TokenRequest, method send.AuthenticationMethod) (AccessTokenClaims, *GrantError)
}

// validatorTable selects the strategy for a method kind. Closed: every
// MethodKind has exactly one entry, populated in NewDispatcher.
type validatorTable map[send.MethodKind]Validator
