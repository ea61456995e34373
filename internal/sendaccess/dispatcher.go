package sendaccess

import (
	"context"
	"log/slog"
	"time"

	"github.com/sendvault/sendvault/internal/mail"
	"github.com/sendvault/sendvault/internal/otp"
	"github.com/sendvault/sendvault/internal/password"
	"github.com/sendvault/sendvault/internal/send"
)

// TokenResponse is the standard OAuth2 token body returned on success.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Dispatcher is the entry point of the send_access grant: it performs the
// base64url and shape pre-checks, resolves the method and routes to the
// matching validator. It holds no authentication logic of its own.
type Dispatcher struct {
	resolver   *Resolver
	validators validatorTable
	minter     Minter
	clientID   string
	logger     *slog.Logger
}

// Deps carries everything a dispatcher needs.
type Deps struct {
	Repo        send.Repository
	Selector    Selector
	OtpProvider *otp.Provider
	Mailer      mail.Mailer
	Verifier    password.Verifier
	Minter      Minter
	ClientID    string
	AccessTTL   time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// NewDispatcher wires the validator table and resolver.
func NewDispatcher(d Deps) *Dispatcher {
	if d.Now == nil {
		d.Now = time.Now
	}
	issuer := claimsIssuer{ttl: d.AccessTTL, now: d.Now}

	return &Dispatcher{
		resolver: NewResolver(d.Repo, d.Selector, d.Logger),
		validators: validatorTable{
			send.KindOpen:              &OpenAccessValidator{issuer: issuer},
			send.KindResourcePassword:  &ResourcePasswordValidator{verifier: d.Verifier, issuer: issuer},
			send.KindEmailOtp:          &EmailOtpValidator{provider: d.OtpProvider, mailer: d.Mailer, issuer: issuer, logger: d.Logger},
			send.KindNeverAuthenticate: &NeverAuthenticateValidator{},
		},
		minter:   d.Minter,
		clientID: d.ClientID,
		logger:   d.Logger,
	}
}

// Token handles one token request end to end.
func (d *Dispatcher) Token(ctx context.Context, req TokenRequest) (TokenResponse, *GrantError) {
	if gerr := validateShape(req); gerr != nil {
		return TokenResponse{}, gerr
	}
	if req.ClientID != d.clientID {
		return TokenResponse{}, invalidRequest(DescClientIDInvalid)
	}

	id, err := send.ParseID(req.SendID)
	if err != nil {
		return TokenResponse{}, invalidRequest(DescSendIDMalformed)
	}

	method := d.resolver.Resolve(ctx, id)
	validator := d.validators[method.Kind]

	claims, gerr := validator.Validate(ctx, id, req, method)
	if gerr != nil {
		d.logger.Info("send access denied",
			"method", method.Kind.String(),
			"error", gerr.Code,
		)
		return TokenResponse{}, gerr
	}

	token, err := d.minter.Issue(ctx, claims)
	if err != nil {
		d.logger.Error("token minting failed", "error", err)
		return TokenResponse{}, invalidRequest(DescTokenIssuanceFailed)
	}

	d.logger.Info("send access granted", "method", method.Kind.String())

	return TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(claims.ExpiresAt.Sub(claims.IssuedAt).Seconds()),
		Scope:       claims.Scope,
	}, nil
}
