package sendaccess

import (
	"context"

	"github.com/sendvault/sendvault/internal/send"
)

// NeverAuthenticateValidator is the terminal path for permanently
// inaccessible Sends and for unknown identifiers whose decoy category is
// InvalidSendId. Its judgment is always negative and its body carries no
// information about whether the identifier ever existed.
type NeverAuthenticateValidator struct{}

// Validate denies the request.
func (*NeverAuthenticateValidator) Validate(_ context.Context, _ send.ID, _ TokenRequest, _ send.AuthenticationMethod) (AccessTokenClaims, *GrantError) {
	return AccessTokenClaims{}, invalidGrant(DescInvalidSendID)
}
