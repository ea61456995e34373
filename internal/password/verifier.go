// Package password compares client-submitted password pre-hashes against
// stored hashes. The server never sees a plaintext Send password; clients
// derive the hash locally and submit it base64-encoded.
package password

import "crypto/subtle"

// Verifier checks a client pre-hash against the hash on record.
type Verifier interface {
	Matches(storedHash, clientHash string) bool
}

// ConstantTimeVerifier compares hashes with a fixed-time primitive so that
// a mismatch costs the same as a match, and a decoy hash costs the same as
// a real one.
type ConstantTimeVerifier struct{}

// NewVerifier returns the standard constant-time verifier.
func NewVerifier() ConstantTimeVerifier {
	return ConstantTimeVerifier{}
}

// Matches reports whether clientHash equals storedHash without early exit.
// Empty stored hashes never match anything.
func (ConstantTimeVerifier) Matches(storedHash, clientHash string) bool {
	if storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(clientHash)) == 1
}
