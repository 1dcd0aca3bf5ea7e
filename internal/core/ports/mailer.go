package ports

import "context"

// Mailer delivers one-time passcodes to an email address.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}
