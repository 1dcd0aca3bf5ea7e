package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/webwaymark/identity-service/internal/api/metrics"
	"github.com/webwaymark/identity-service/internal/core/domain"
	"github.com/webwaymark/identity-service/internal/core/ports"
)

const defaultOTPTTL = 120 * time.Second

// IdentityService implements the OTP-gated signup, login, and password
// reset flows. All flows are keyed by email; issuing a new code overwrites
// any outstanding one (last-writer-wins).
type IdentityService struct {
	users  ports.UserRepository
	otps   ports.OTPStore
	mailer ports.Mailer
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	audit  ports.AuditRecorder
	otpTTL time.Duration
	log    zerolog.Logger
}

func NewIdentityService(
	users ports.UserRepository,
	otps ports.OTPStore,
	mailer ports.Mailer,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	audit ports.AuditRecorder,
	otpTTL time.Duration,
	log zerolog.Logger,
) *IdentityService {
	if otpTTL <= 0 {
		otpTTL = defaultOTPTTL
	}
	return &IdentityService{
		users:  users,
		otps:   otps,
		mailer: mailer,
		hasher: hasher,
		tokens: tokens,
		audit:  audit,
		otpTTL: otpTTL,
		log:    log,
	}
}

// RequestSignup checks availability of the normalized username and the
// exact email, then generates, delivers, and stores an OTP. The code is
// only stored once delivery succeeded, so a delivery failure leaves no
// pending state behind.
func (s *IdentityService) RequestSignup(ctx context.Context, name, email string) error {
	if name == "" || email == "" {
		return domain.ErrFieldsRequired
	}

	conflict := &domain.SignupConflictError{}
	taken, err := s.usernameTaken(ctx, name)
	if err != nil {
		return err
	}
	conflict.NameTaken = taken

	taken, err = s.emailTaken(ctx, email)
	if err != nil {
		return err
	}
	conflict.EmailTaken = taken

	if conflict.Conflict() {
		return conflict
	}

	if err := s.issueOTP(ctx, email, metrics.FlowSignup); err != nil {
		return err
	}

	s.audit.Record(domain.AuthEvent{Email: email, Kind: domain.AuditOTPRequested, At: time.Now().UTC()})
	s.log.Info().Str("email", email).Msg("signup otp issued")
	return nil
}

// ConfirmSignup consumes a matching OTP and creates the account.
//
// A missing and a mismatched code report the same domain.ErrOTPExpired so a
// caller cannot tell which occurred. A name or email claimed since the
// request reports domain.ErrTaken and leaves the OTP untouched for a retry
// with a different name; the store's unique indexes remain the authoritative
// duplicate check underneath.
func (s *IdentityService) ConfirmSignup(ctx context.Context, name, email, password, otp string) error {
	if name == "" || email == "" || password == "" || otp == "" {
		return domain.ErrInvalidInput
	}

	if err := s.matchOTP(ctx, email, otp, metrics.FlowSignup); err != nil {
		return err
	}

	// Re-check availability: state may have changed since RequestSignup.
	nameTaken, err := s.usernameTaken(ctx, name)
	if err != nil {
		return err
	}
	emailTaken, err := s.emailTaken(ctx, email)
	if err != nil {
		return err
	}
	if nameTaken || emailTaken {
		return domain.ErrTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("confirm signup: %w", err)
	}

	user := &domain.User{
		Username:     domain.NormalizeUsername(name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		// The unique index caught a concurrent claim the fast-path
		// check missed; same outcome, OTP stays alive.
		if errors.Is(err, domain.ErrTaken) {
			return domain.ErrTaken
		}
		return fmt.Errorf("confirm signup: %w", err)
	}

	if err := s.otps.Delete(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to delete consumed otp")
	}

	metrics.SignupsCompletedTotal.Inc()
	s.audit.Record(domain.AuthEvent{Email: email, Kind: domain.AuditSignupCompleted, At: time.Now().UTC()})
	s.log.Info().Str("email", email).Str("username", created.Username).Msg("signup completed")
	return nil
}

// Login verifies credentials and returns a signed bearer token. Unknown
// email and wrong password both report domain.ErrInvalidCredentials.
func (s *IdentityService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordLoginFailure(email)
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.recordLoginFailure(email)
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("login: issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	s.audit.Record(domain.AuthEvent{Email: email, Kind: domain.AuditLoginSucceeded, At: time.Now().UTC()})
	s.log.Info().Str("email", email).Msg("login succeeded")
	return token, nil
}

// RequestReset generates, delivers, and stores an OTP for a known email.
func (s *IdentityService) RequestReset(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrInvalidInput
	}

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnknownEmail
		}
		return fmt.Errorf("request reset: %w", err)
	}

	if err := s.issueOTP(ctx, email, metrics.FlowReset); err != nil {
		return err
	}

	s.audit.Record(domain.AuthEvent{Email: email, Kind: domain.AuditResetRequested, At: time.Now().UTC()})
	s.log.Info().Str("email", email).Msg("reset otp issued")
	return nil
}

// VerifyResetOTP checks the code without consuming it: the same code must
// remain usable by ApplyNewPassword.
func (s *IdentityService) VerifyResetOTP(ctx context.Context, email, otp string) error {
	if email == "" || otp == "" {
		return domain.ErrInvalidInput
	}
	return s.matchOTP(ctx, email, otp, metrics.FlowReset)
}

// ApplyNewPassword re-validates the OTP (the separate verify step is
// advisory only), overwrites the stored hash, and consumes the code.
func (s *IdentityService) ApplyNewPassword(ctx context.Context, email, otp, password string) error {
	if email == "" || otp == "" || password == "" {
		return domain.ErrInvalidInput
	}

	if err := s.matchOTP(ctx, email, otp, metrics.FlowReset); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("apply new password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnknownEmail
		}
		return fmt.Errorf("apply new password: %w", err)
	}

	if err := s.otps.Delete(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to delete consumed otp")
	}

	metrics.PasswordsChangedTotal.Inc()
	s.audit.Record(domain.AuthEvent{Email: email, Kind: domain.AuditPasswordChanged, At: time.Now().UTC()})
	s.log.Info().Str("email", email).Msg("password changed")
	return nil
}

// issueOTP generates a code, delivers it, and only then stores it with the
// configured TTL. Storing after sending means a delivery failure leaves no
// half-open challenge.
func (s *IdentityService) issueOTP(ctx context.Context, email, flow string) error {
	code, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}

	start := time.Now()
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		metrics.OTPDeliveryDuration.WithLabelValues(metrics.ResultFailure).Observe(time.Since(start).Seconds())
		s.log.Error().Err(err).Str("email", email).Msg("otp delivery failed")
		return domain.ErrDeliveryFailed
	}
	metrics.OTPDeliveryDuration.WithLabelValues(metrics.ResultSuccess).Observe(time.Since(start).Seconds())

	if err := s.otps.Put(ctx, email, code, s.otpTTL); err != nil {
		return fmt.Errorf("issue otp: store code: %w", err)
	}

	metrics.OTPsIssuedTotal.WithLabelValues(flow).Inc()
	return nil
}

// matchOTP compares the supplied code with the live one. Absent and
// mismatched collapse to the same error.
func (s *IdentityService) matchOTP(ctx context.Context, email, otp, flow string) error {
	stored, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			metrics.OTPVerificationsTotal.WithLabelValues(flow, metrics.ResultMismatch).Inc()
			return domain.ErrOTPExpired
		}
		return fmt.Errorf("fetch otp: %w", err)
	}
	if stored != otp {
		metrics.OTPVerificationsTotal.WithLabelValues(flow, metrics.ResultMismatch).Inc()
		return domain.ErrOTPExpired
	}
	metrics.OTPVerificationsTotal.WithLabelValues(flow, metrics.ResultSuccess).Inc()
	return nil
}

func (s *IdentityService) usernameTaken(ctx context.Context, name string) (bool, error) {
	_, err := s.users.FindByUsername(ctx, domain.NormalizeUsername(name))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check username: %w", err)
	}
	return true, nil
}

func (s *IdentityService) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

func (s *IdentityService) recordLoginFailure(email string) {
	metrics.LoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
	s.audit.Record(domain.AuthEvent{Email: email, Kind: domain.AuditLoginFailed, At: time.Now().UTC()})
}
