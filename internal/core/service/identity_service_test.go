package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/webwaymark/identity-service/internal/core/domain"
)

type stubUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	nextID  int

	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User)}
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, domain.ErrTaken
	}
	for _, u := range r.byEmail {
		if u.Username == user.Username {
			return nil, domain.ErrTaken
		}
	}
	r.nextID++
	clone := *user
	clone.ID = fmt.Sprintf("user_%d", r.nextID)
	r.byEmail[clone.Email] = &clone
	copy := clone
	return &copy, nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, email, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type stubOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
	ttls  map[string]time.Duration
}

func newStubOTPStore() *stubOTPStore {
	return &stubOTPStore{codes: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (s *stubOTPStore) Put(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	s.ttls[email] = ttl
	return nil
}

func (s *stubOTPStore) Get(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	if !ok {
		return "", domain.ErrCodeNotFound
	}
	return code, nil
}

func (s *stubOTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

// expire simulates the TTL elapsing.
func (s *stubOTPStore) expire(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
}

type stubMailer struct {
	mu   sync.Mutex
	sent []struct{ email, code string }
	fail bool
}

func (m *stubMailer) SendOTP(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, struct{ email, code string }{email, code})
	return nil
}

func (m *stubMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].code
}

// fakeHasher avoids bcrypt cost in flow tests; the real hasher has its own
// tests in internal/auth.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Compare(hashed, plain string) bool { return hashed == "hashed:"+plain }

type stubTokens struct{}

func (stubTokens) Issue(subject string) (string, error)  { return "token-for-" + subject, nil }
func (stubTokens) Validate(token string) (string, error) { return "", errors.New("not implemented") }

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (a *stubAudit) Record(event domain.AuthEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *stubAudit) kinds() []domain.AuthEventKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	kinds := make([]domain.AuthEventKind, 0, len(a.events))
	for _, e := range a.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type fixture struct {
	svc    *IdentityService
	repo   *stubUserRepo
	store  *stubOTPStore
	mailer *stubMailer
	audit  *stubAudit
}

func newFixture() *fixture {
	repo := newStubUserRepo()
	store := newStubOTPStore()
	mailer := &stubMailer{}
	audit := &stubAudit{}
	svc := NewIdentityService(repo, store, mailer, fakeHasher{}, stubTokens{}, audit, 120*time.Second, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, store: store, mailer: mailer, audit: audit}
}

func (f *fixture) signup(t *testing.T, name, email, password string) {
	t.Helper()
	if err := f.svc.RequestSignup(context.Background(), name, email); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}
	if err := f.svc.ConfirmSignup(context.Background(), name, email, password, f.mailer.lastCode()); err != nil {
		t.Fatalf("ConfirmSignup: %v", err)
	}
}

func TestRequestSignup_FieldsRequired(t *testing.T) {
	f := newFixture()

	if err := f.svc.RequestSignup(context.Background(), "", "a@x.com"); !errors.Is(err, domain.ErrFieldsRequired) {
		t.Fatalf("expected ErrFieldsRequired, got %v", err)
	}
	if err := f.svc.RequestSignup(context.Background(), "alice", ""); !errors.Is(err, domain.ErrFieldsRequired) {
		t.Fatalf("expected ErrFieldsRequired, got %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no OTP should have been sent")
	}
}

func TestRequestSignup_ReportsBothConflicts(t *testing.T) {
	f := newFixture()
	f.signup(t, "alice", "a@x.com", "pass")

	// Same normalized name, different email.
	err := f.svc.RequestSignup(context.Background(), "Alice", "other@x.com")
	var conflict *domain.SignupConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SignupConflictError, got %v", err)
	}
	if !conflict.NameTaken || conflict.EmailTaken {
		t.Fatalf("expected only name taken, got %+v", conflict)
	}

	// Different name, same email.
	err = f.svc.RequestSignup(context.Background(), "bob", "a@x.com")
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SignupConflictError, got %v", err)
	}
	if conflict.NameTaken || !conflict.EmailTaken {
		t.Fatalf("expected only email taken, got %+v", conflict)
	}

	// Both.
	err = f.svc.RequestSignup(context.Background(), "alice", "a@x.com")
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SignupConflictError, got %v", err)
	}
	if !conflict.NameTaken || !conflict.EmailTaken {
		t.Fatalf("expected both taken, got %+v", conflict)
	}
}

func TestRequestSignup_DeliveryFailureStoresNothing(t *testing.T) {
	f := newFixture()
	f.mailer.fail = true

	if err := f.svc.RequestSignup(context.Background(), "alice", "a@x.com"); !errors.Is(err, domain.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if _, err := f.store.Get(context.Background(), "a@x.com"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("no OTP should be stored after a delivery failure, got %v", err)
	}
}

func TestRequestSignup_StoresDeliveredCode(t *testing.T) {
	f := newFixture()

	if err := f.svc.RequestSignup(context.Background(), "alice", "a@x.com"); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}

	stored, err := f.store.Get(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("stored code missing: %v", err)
	}
	if stored != f.mailer.lastCode() {
		t.Fatalf("stored code %q differs from delivered code %q", stored, f.mailer.lastCode())
	}
	if len(stored) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", stored)
	}
	if f.store.ttls["a@x.com"] != 120*time.Second {
		t.Fatalf("expected 120s TTL, got %v", f.store.ttls["a@x.com"])
	}
}

func TestRequestSignup_OverwritesPriorCode(t *testing.T) {
	f := newFixture()

	if err := f.svc.RequestSignup(context.Background(), "alice", "a@x.com"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	first := f.mailer.lastCode()

	if err := f.svc.RequestSignup(context.Background(), "alice", "a@x.com"); err != nil {
		t.Fatalf("second request: %v", err)
	}
	second := f.mailer.lastCode()

	stored, _ := f.store.Get(context.Background(), "a@x.com")
	if stored != second {
		t.Fatalf("expected latest code to win, stored %q", stored)
	}
	if first == second && len(f.mailer.sent) != 2 {
		t.Fatalf("expected two deliveries")
	}
}

// Mirrors the full signup walk-through: wrong code rejected without side
// effects, right code creates the account, replay of a consumed code fails.
func TestSignupFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.RequestSignup(ctx, "alice", "a@x.com"); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}
	code := f.mailer.lastCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := f.svc.ConfirmSignup(ctx, "alice", "a@x.com", "Asdf1111", wrong); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired for wrong code, got %v", err)
	}
	if _, err := f.repo.FindByEmail(ctx, "a@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("user must not exist after failed confirm")
	}

	if err := f.svc.ConfirmSignup(ctx, "alice", "a@x.com", "Asdf1111", code); err != nil {
		t.Fatalf("ConfirmSignup: %v", err)
	}
	user, err := f.repo.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected username alice, got %q", user.Username)
	}
	if user.PasswordHash != "hashed:Asdf1111" {
		t.Fatalf("password was not hashed: %q", user.PasswordHash)
	}

	// The consumed code is never accepted again.
	if err := f.svc.ConfirmSignup(ctx, "alice2", "a2@x.com", "pass", code); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired for consumed code, got %v", err)
	}
}

func TestConfirmSignup_NormalizesUsername(t *testing.T) {
	f := newFixture()
	f.signup(t, "Test  User", "t@x.com", "pass")

	user, err := f.repo.FindByEmail(context.Background(), "t@x.com")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Username != "test-user" {
		t.Fatalf("expected normalized username test-user, got %q", user.Username)
	}
}

func TestConfirmSignup_InvalidInput(t *testing.T) {
	f := newFixture()

	for _, args := range [][4]string{
		{"", "a@x.com", "pass", "123456"},
		{"alice", "", "pass", "123456"},
		{"alice", "a@x.com", "", "123456"},
		{"alice", "a@x.com", "pass", ""},
	} {
		err := f.svc.ConfirmSignup(context.Background(), args[0], args[1], args[2], args[3])
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %v, got %v", args, err)
		}
	}
}

func TestConfirmSignup_ExpiredCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.RequestSignup(ctx, "alice", "a@x.com"); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}
	code := f.mailer.lastCode()
	f.store.expire("a@x.com")

	if err := f.svc.ConfirmSignup(ctx, "alice", "a@x.com", "pass", code); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired after expiry, got %v", err)
	}
}

func TestConfirmSignup_TakenPreservesOTP(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.RequestSignup(ctx, "alice", "a@x.com"); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}
	code := f.mailer.lastCode()

	// Another signup claims the name while the OTP is outstanding.
	f.signup(t, "alice", "rival@x.com", "pass")

	if err := f.svc.ConfirmSignup(ctx, "alice", "a@x.com", "pass", code); !errors.Is(err, domain.ErrTaken) {
		t.Fatalf("expected ErrTaken, got %v", err)
	}

	// The OTP survives so the caller can retry with a different name.
	if err := f.svc.ConfirmSignup(ctx, "alice two", "a@x.com", "pass", code); err != nil {
		t.Fatalf("retry with new name failed: %v", err)
	}
	user, err := f.repo.FindByEmail(ctx, "a@x.com")
	if err != nil || user.Username != "alice-two" {
		t.Fatalf("expected alice-two created, got %v %v", user, err)
	}
}

func TestConfirmSignup_DuplicateInsertMapsToTaken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.RequestSignup(ctx, "alice", "a@x.com"); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}

	// Fast-path check passes but the unique index rejects the insert, as
	// with two racing confirms.
	f.repo.createErr = domain.ErrTaken
	err := f.svc.ConfirmSignup(ctx, "alice", "a@x.com", "pass", f.mailer.lastCode())
	if !errors.Is(err, domain.ErrTaken) {
		t.Fatalf("expected ErrTaken from store conflict, got %v", err)
	}

	// OTP preserved, so resolving the conflict allows a retry.
	f.repo.createErr = nil
	if err := f.svc.ConfirmSignup(ctx, "alice", "a@x.com", "pass", f.mailer.lastCode()); err != nil {
		t.Fatalf("retry after conflict failed: %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture()
	f.signup(t, "alice", "a@x.com", "Asdf1111")

	token, err := f.svc.Login(context.Background(), "a@x.com", "Asdf1111")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "token-for-user_1" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestLogin_IdenticalErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	f := newFixture()
	f.signup(t, "alice", "a@x.com", "Asdf1111")

	_, errUnknown := f.svc.Login(context.Background(), "ghost@x.com", "whatever")
	_, errWrongPass := f.svc.Login(context.Background(), "a@x.com", "wrong")

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPass)
	}
	if errUnknown.Error() != errWrongPass.Error() {
		t.Fatalf("error content must be identical: %q vs %q", errUnknown, errWrongPass)
	}
}

func TestLogin_EmptyFields(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Login(context.Background(), "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	f := newFixture()

	if err := f.svc.RequestReset(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrUnknownEmail) {
		t.Fatalf("expected ErrUnknownEmail, got %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no OTP should be sent for an unknown email")
	}
	if _, err := f.store.Get(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("no OTP should be stored for an unknown email")
	}
}

// Mirrors the full reset walk-through: verify does not consume, apply does,
// and a consumed code is never accepted again.
func TestPasswordResetFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.signup(t, "alice", "a@x.com", "OldPass1")

	if err := f.svc.RequestReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	code := f.mailer.lastCode()

	// Advisory verify leaves the code in place.
	if err := f.svc.VerifyResetOTP(ctx, "a@x.com", code); err != nil {
		t.Fatalf("VerifyResetOTP: %v", err)
	}
	if _, err := f.store.Get(ctx, "a@x.com"); err != nil {
		t.Fatalf("verify must not consume the code: %v", err)
	}

	if err := f.svc.ApplyNewPassword(ctx, "a@x.com", code, "NewPass1"); err != nil {
		t.Fatalf("ApplyNewPassword: %v", err)
	}
	user, _ := f.repo.FindByEmail(ctx, "a@x.com")
	if user.PasswordHash != "hashed:NewPass1" {
		t.Fatalf("password not updated: %q", user.PasswordHash)
	}

	// The code was consumed.
	if err := f.svc.ApplyNewPassword(ctx, "a@x.com", code, "Again1"); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired on replay, got %v", err)
	}

	// Old password no longer logs in, new one does.
	if _, err := f.svc.Login(ctx, "a@x.com", "OldPass1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must be rejected, got %v", err)
	}
	if _, err := f.svc.Login(ctx, "a@x.com", "NewPass1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestVerifyResetOTP_Mismatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.signup(t, "alice", "a@x.com", "pass")

	if err := f.svc.RequestReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	code := f.mailer.lastCode()

	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}
	if err := f.svc.VerifyResetOTP(ctx, "a@x.com", wrong); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	if err := f.svc.VerifyResetOTP(ctx, "other@x.com", code); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired for absent slot, got %v", err)
	}
}

func TestAuditTrail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.signup(t, "alice", "a@x.com", "pass")

	if _, err := f.svc.Login(ctx, "a@x.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected failed login, got %v", err)
	}
	if _, err := f.svc.Login(ctx, "a@x.com", "pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	want := []domain.AuthEventKind{
		domain.AuditOTPRequested,
		domain.AuditSignupCompleted,
		domain.AuditLoginFailed,
		domain.AuditLoginSucceeded,
	}
	got := f.audit.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %d audit events, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("audit event %d = %s, want %s", i, got[i], want[i])
		}
	}
}
