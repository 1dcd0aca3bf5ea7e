package ports

import (
	"context"
	"time"
)

// OTPStore holds the single live verification code per email address.
//
// Put unconditionally overwrites any prior code and resets its TTL
// (last-writer-wins). Get returns domain.ErrCodeNotFound once the TTL has
// elapsed, after deletion, or when no code was ever stored; the three cases
// are indistinguishable.
type OTPStore interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}
