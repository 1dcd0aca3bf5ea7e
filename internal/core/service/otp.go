package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// otpBound is exclusive: codes are uniform over [0, 999999].
var otpBound = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random zero-padded 6-digit decimal code,
// drawn from a cryptographically secure source.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpBound)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
