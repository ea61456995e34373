package send

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// ID is the 128-bit Send identifier. It travels as base64url (no padding)
// of the raw 16 bytes and never changes once assigned.
type ID uuid.UUID

// ParseID decodes the transport form of a Send identifier.
func ParseID(s string) (ID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("decode send id: %w", err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return ID{}, fmt.Errorf("decode send id: %w", err)
	}
	return ID(u), nil
}

// String returns the transport form.
func (id ID) String() string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// UUID returns the identifier in its storage form.
func (id ID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// MethodKind discriminates the closed set of authentication methods.
type MethodKind int

const (
	KindOpen MethodKind = iota
	KindResourcePassword
	KindEmailOtp
	KindNeverAuthenticate
)

func (k MethodKind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindResourcePassword:
		return "resource_password"
	case KindEmailOtp:
		return "email_otp"
	case KindNeverAuthenticate:
		return "never_authenticate"
	default:
		return "unknown"
	}
}

// AuthenticationMethod is a tagged union describing what a caller must
// supply to access a Send. Exactly one kind applies per identifier at
// resolution time; values are immutable for the duration of a request.
type AuthenticationMethod struct {
	Kind MethodKind

	// StoredHash is set for KindResourcePassword.
	StoredHash string

	// AllowedEmails is set for KindEmailOtp.
	AllowedEmails []string

	// Decoy marks a method synthesized for an identifier with no backing
	// record. Decoy methods run the same validator code path as real ones
	// and can never authenticate.
	Decoy bool
}

// OpenMethod requires no secret.
func OpenMethod() AuthenticationMethod {
	return AuthenticationMethod{Kind: KindOpen}
}

// PasswordMethod requires a client password pre-hash matching storedHash.
func PasswordMethod(storedHash string) AuthenticationMethod {
	return AuthenticationMethod{Kind: KindResourcePassword, StoredHash: storedHash}
}

// EmailOtpMethod requires a one-time code delivered to one of the allowed emails.
func EmailOtpMethod(allowedEmails []string) AuthenticationMethod {
	return AuthenticationMethod{Kind: KindEmailOtp, AllowedEmails: allowedEmails}
}

// NeverMethod never authenticates.
func NeverMethod() AuthenticationMethod {
	return AuthenticationMethod{Kind: KindNeverAuthenticate}
}
