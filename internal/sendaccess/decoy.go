package sendaccess

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/sendvault/sendvault/internal/send"
)

// DecoyCategory is the synthetic classification assigned to identifiers
// whose true classification must be withheld or does not exist.
type DecoyCategory int

const (
	DecoyInvalidSendID DecoyCategory = iota
	DecoyEmailRequired
	DecoyPasswordRequired

	decoyCategoryCount
)

func (c DecoyCategory) String() string {
	switch c {
	case DecoyInvalidSendID:
		return "invalid_send_id"
	case DecoyEmailRequired:
		return "email_required"
	case DecoyPasswordRequired:
		return "password_required"
	default:
		return "unknown"
	}
}

const decoyHashInfo = "send-access/decoy-password-hash/v1"

// Selector deterministically maps a send identifier to a decoy category.
// The mapping is keyed by a server-held salt: unpredictable without it,
// perfectly stable with it, and independent of wall clock, request history
// and whether a real Send with that id exists.
type Selector struct {
	salt []byte
}

// NewSelector builds a selector over the process-wide salt.
func NewSelector(salt []byte) Selector {
	return Selector{salt: salt}
}

// Category returns the decoy category for id.
func (s Selector) Category(id send.ID) DecoyCategory {
	mac := hmac.New(sha256.New, s.salt)
	mac.Write(id[:])
	sum := mac.Sum(nil)
	return DecoyCategory(binary.BigEndian.Uint64(sum[:8]) % uint64(decoyCategoryCount))
}

// Method synthesizes a full authentication method for an identifier with
// no backing record, so downstream validators run the same code path a
// real Send would.
func (s Selector) Method(id send.ID) send.AuthenticationMethod {
	var method send.AuthenticationMethod
	switch s.Category(id) {
	case DecoyEmailRequired:
		method = send.EmailOtpMethod(nil)
	case DecoyPasswordRequired:
		method = send.PasswordMethod(s.decoyHash(id))
	default:
		method = send.NeverMethod()
	}
	method.Decoy = true
	return method
}

// decoyHash derives a stable, real-looking stored hash for id. It has the
// same format and comparison cost as a genuine stored hash and is
// guaranteed never to verify because clients cannot derive it.
func (s Selector) decoyHash(id send.ID) string {
	r := hkdf.New(sha256.New, s.salt, id[:], []byte(decoyHashInfo))
	buf := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		// hkdf over sha256 cannot fail to produce one block
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf)
}
