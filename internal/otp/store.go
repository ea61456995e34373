package otp

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sendvault/sendvault/internal/send"
)

const (
	challengeKeyPrefix = "sendotp:v1"

	// consumeRetries bounds optimistic-transaction retries under contention.
	consumeRetries = 4
)

// ErrStoreUnavailable wraps redis transport failures. Callers downgrade it
// to a generic request error before it reaches a client.
var ErrStoreUnavailable = errors.New("otp store unavailable")

// ConsumeResult classifies the outcome of a consume attempt. The wire
// response collapses these, but they stay distinct for telemetry.
type ConsumeResult int

const (
	// ConsumeOK means the code matched and this caller won the
	// false->true consumption transition.
	ConsumeOK ConsumeResult = iota
	// ConsumeMismatch means the code did not match the pending challenge.
	ConsumeMismatch
	// ConsumeConsumed means the challenge was already used, correct code or not.
	ConsumeConsumed
	// ConsumeNotFound means no pending challenge exists (never issued,
	// expired, or destroyed after too many attempts).
	ConsumeNotFound
)

func (r ConsumeResult) String() string {
	switch r {
	case ConsumeOK:
		return "ok"
	case ConsumeMismatch:
		return "mismatch"
	case ConsumeConsumed:
		return "consumed"
	case ConsumeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

type challengeRecord struct {
	CodeHash  string `json:"code_hash"`
	ExpiresAt int64  `json:"expires_at"`
	Attempts  int    `json:"attempts"`
	Consumed  bool   `json:"consumed"`
}

// RedisStore persists pending OTP challenges keyed by (send id, email).
type RedisStore struct {
	redis       *redis.Client
	maxAttempts int
}

// NewRedisStore builds a challenge store. maxAttempts bounds failed code
// submissions before the challenge is destroyed.
func NewRedisStore(client *redis.Client, maxAttempts int) *RedisStore {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RedisStore{redis: client, maxAttempts: maxAttempts}
}

func (s *RedisStore) key(id send.ID, email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(email)))
	return challengeKeyPrefix + ":" + id.String() + ":" + hex.EncodeToString(sum[:16])
}

func codeHash(id send.ID, email, code string) string {
	sum := sha256.Sum256([]byte(id.String() + ":" + strings.ToLower(email) + ":" + code))
	return hex.EncodeToString(sum[:])
}

// Save stores a fresh challenge, replacing any pending one for the same
// (send id, email) pair.
func (s *RedisStore) Save(ctx context.Context, id send.ID, email, code string, ttl time.Duration) error {
	record := challengeRecord{
		CodeHash:  codeHash(id, email, code),
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(id, email), payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Consume validates code against the pending challenge. At most one caller
// observes ConsumeOK for a given challenge; the winning transition is
// serialized through a redis optimistic transaction, never check-then-act.
func (s *RedisStore) Consume(ctx context.Context, id send.ID, email, code string) (ConsumeResult, error) {
	key := s.key(id, email)
	provided := codeHash(id, email, code)

	for i := 0; i < consumeRetries; i++ {
		result := ConsumeNotFound

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			var record challengeRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return err
			}

			now := time.Now()
			if now.Unix() > record.ExpiresAt {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				result = ConsumeNotFound
				return nil
			}

			if record.Consumed {
				result = ConsumeConsumed
				return nil
			}

			if subtle.ConstantTimeCompare([]byte(record.CodeHash), []byte(provided)) != 1 {
				record.Attempts++
				if record.Attempts >= s.maxAttempts {
					_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					result = ConsumeMismatch
					return nil
				}

				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				updated, err := json.Marshal(record)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				result = ConsumeMismatch
				return nil
			}

			record.Consumed = true
			ttl := time.Until(time.Unix(record.ExpiresAt, 0))
			updated, err := json.Marshal(record)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			if err != nil {
				return err
			}
			result = ConsumeOK
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ConsumeNotFound, nil
			}
			return ConsumeNotFound, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		return result, nil
	}

	// Retries exhausted under contention; the winner has already flipped
	// the record, so report it as consumed.
	return ConsumeConsumed, nil
}
