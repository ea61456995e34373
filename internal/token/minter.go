// Package token mints and verifies the bearer tokens issued by the
// send_access grant.
package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sendvault/sendvault/internal/send"
	"github.com/sendvault/sendvault/internal/sendaccess"
)

// ErrInvalidToken covers every verification failure.
var ErrInvalidToken = errors.New("invalid send access token")

// SendClaims is the JWT claims layout of a send access token.
type SendClaims struct {
	SendID string `json:"send_id"`
	Scope  string `json:"scope"`
	jwt.RegisteredClaims
}

// Minter signs and verifies HS256 send access tokens.
type Minter struct {
	secret []byte
	issuer string
}

// NewMinter builds a minter over the configured signing secret.
func NewMinter(secret, issuer string) *Minter {
	return &Minter{secret: []byte(secret), issuer: issuer}
}

// Issue signs a bearer token for the claims set.
func (m *Minter) Issue(_ context.Context, claims sendaccess.AccessTokenClaims) (string, error) {
	jc := SendClaims{
		SendID: claims.SendID.String(),
		Scope:  claims.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   claims.SendID.String(),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jc).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign send access token: %w", err)
	}
	return signed, nil
}

// Verify parses the token, checks the signature and expiry and returns the
// Send the token grants access to.
func (m *Minter) Verify(tokenStr string) (send.ID, SendClaims, error) {
	var claims SendClaims
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return send.ID{}, SendClaims{}, ErrInvalidToken
	}
	if claims.Scope != sendaccess.ScopeSendAccess {
		return send.ID{}, SendClaims{}, ErrInvalidToken
	}

	id, err := send.ParseID(claims.SendID)
	if err != nil {
		return send.ID{}, SendClaims{}, ErrInvalidToken
	}
	return id, claims, nil
}
