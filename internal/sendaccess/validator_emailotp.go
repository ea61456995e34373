package sendaccess

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sendvault/sendvault/internal/mail"
	"github.com/sendvault/sendvault/internal/otp"
	"github.com/sendvault/sendvault/internal/send"
)

// EmailOtpValidator authorizes email-protected Sends in two phases over
// the same endpoint: phase A (email only) issues a challenge, phase B
// (email plus code) consumes it.
type EmailOtpValidator struct {
	provider *otp.Provider
	mailer   mail.Mailer
	issuer   claimsIssuer
	logger   *slog.Logger
}

// Validate runs the phase the request shape selects. Decoy methods carry
// an empty allowed set: every email fails membership exactly like a
// non-member on a real Send, and no challenge is ever issued for them.
func (v *EmailOtpValidator) Validate(ctx context.Context, id send.ID, req TokenRequest, method send.AuthenticationMethod) (AccessTokenClaims, *GrantError) {
	if req.Email == "" {
		return AccessTokenClaims{}, invalidRequest(DescEmailRequired)
	}
	if !wellFormedEmail(req.Email) || !emailAllowed(req.Email, method.AllowedEmails) {
		return AccessTokenClaims{}, invalidGrant(DescEmailInvalid)
	}

	if req.EmailOtp == "" {
		return AccessTokenClaims{}, v.requestOtp(ctx, id, req.Email)
	}
	return v.submitOtp(ctx, id, req)
}

// requestOtp is phase A. The success response is intentionally
// error-shaped: no token can be issued yet, and the description tells the
// client to resubmit with the code.
func (v *EmailOtpValidator) requestOtp(ctx context.Context, id send.ID, email string) *GrantError {
	code, err := v.provider.Generate(ctx, id, email)
	if err != nil {
		v.logger.Warn("otp generation failed", "error", err)
		return invalidRequest(DescEmailOtpSendFailed)
	}
	if err := v.mailer.SendOtpEmail(ctx, email, code); err != nil {
		v.logger.Warn("otp email dispatch failed", "error", err)
		return invalidRequest(DescEmailOtpSendFailed)
	}
	return invalidRequest(DescEmailOtpSent)
}

// submitOtp is phase B.
func (v *EmailOtpValidator) submitOtp(ctx context.Context, id send.ID, req TokenRequest) (AccessTokenClaims, *GrantError) {
	result, err := v.provider.Validate(ctx, id, req.Email, req.EmailOtp)
	if err != nil {
		v.logger.Warn("otp validation failed", "error", err)
		return AccessTokenClaims{}, invalidRequest(DescEmailOtpExpired)
	}

	switch result {
	case otp.ConsumeOK:
		return v.issuer.claims(id), nil
	case otp.ConsumeMismatch, otp.ConsumeConsumed:
		// Replays of a correct code land here too; the wire shape never
		// distinguishes them from a wrong code.
		v.logger.Info("otp rejected", "reason", result.String())
		return AccessTokenClaims{}, invalidGrant(DescEmailOtpInvalid)
	default:
		// Never issued, expired, or destroyed after too many attempts.
		v.logger.Info("otp rejected", "reason", result.String())
		return AccessTokenClaims{}, invalidRequest(DescEmailOtpExpired)
	}
}

func emailAllowed(email string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(email, candidate) {
			return true
		}
	}
	return false
}
