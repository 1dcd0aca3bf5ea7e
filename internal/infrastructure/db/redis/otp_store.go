package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/webwaymark/identity-service/internal/core/domain"
)

const otpKeyPrefix = "otp:"

// OTPStore keeps the single live verification code per email address.
// Key format: otp:<email>. Redis expiry provides the TTL semantics: an
// expired key is gone, never returned stale.
type OTPStore struct {
	client *redis.Client
}

// NewOTPStore creates an OTPStore wrapping the given Redis client.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

// Put unconditionally overwrites any prior code and resets the TTL.
func (s *OTPStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// Get returns the live code, or domain.ErrCodeNotFound when the slot is
// empty or the TTL has elapsed.
func (s *OTPStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, s.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fetch otp: %w", err)
	}
	return code, nil
}

// Delete consumes the code. Deleting an absent key is not an error.
func (s *OTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func (s *OTPStore) key(email string) string {
	return otpKeyPrefix + email
}
