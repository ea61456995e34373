// Package otp issues and validates the single-use, time-bounded codes
// backing the email challenge flow of the send_access grant.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sendvault/sendvault/internal/send"
)

const digits = "0123456789"

// Provider generates challenges and validates submitted codes.
type Provider struct {
	store  *RedisStore
	ttl    time.Duration
	length int
}

// NewProvider builds a challenge provider on top of a RedisStore.
func NewProvider(store *RedisStore, ttl time.Duration, length int) *Provider {
	if length < 4 {
		length = 4
	}
	return &Provider{store: store, ttl: ttl, length: length}
}

// TTL returns the challenge lifetime.
func (p *Provider) TTL() time.Duration {
	return p.ttl
}

// Generate creates a fresh numeric code for (id, email), persists its hash
// and returns the plaintext code for delivery. Any pending challenge for
// the same pair is replaced.
func (p *Provider) Generate(ctx context.Context, id send.ID, email string) (string, error) {
	code, err := randomCode(p.length)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	if err := p.store.Save(ctx, id, email, code, p.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Validate consumes the pending challenge for (id, email) against code.
func (p *Provider) Validate(ctx context.Context, id send.ID, email, code string) (ConsumeResult, error) {
	return p.store.Consume(ctx, id, email, code)
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(digits)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = digits[n.Int64()]
	}
	return string(buf), nil
}
