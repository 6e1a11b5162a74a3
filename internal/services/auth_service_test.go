package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/VKx64/Farely-Backend/internal/apperr"
	"github.com/VKx64/Farely-Backend/internal/models"
	"github.com/VKx64/Farely-Backend/internal/ratelimit"
	"github.com/VKx64/Farely-Backend/internal/repository"
	"github.com/VKx64/Farely-Backend/internal/utils"
)

type nopSender struct{}

func (nopSender) SendOTP(context.Context, models.ContactMethod, string, string) error {
	return nil
}

func newTestAuthService(repo repository.UserRepository, limiter ratelimit.Limiter) AuthService {
	if limiter == nil {
		limiter = ratelimit.NewFixedWindow(1000, time.Minute)
	}
	jwt := utils.NewJWTManager("test-secret", time.Hour)
	return NewAuthService(repo, jwt, nopSender{}, nil, limiter,
		10*time.Minute, bcrypt.MinCost, zap.NewNop())
}

func mustRegister(t *testing.T, svc AuthService, identifier string) string {
	t.Helper()
	result, err := svc.StartRegistration(context.Background(), RegisterInput{
		Identifier:      identifier,
		Password:        "Abc123",
		ConfirmPassword: "Abc123",
	})
	if err != nil {
		t.Fatalf("StartRegistration(%q): %v", identifier, err)
	}
	return result.UserID
}

func currentCode(t *testing.T, repo repository.UserRepository, method models.ContactMethod, identifier string) string {
	t.Helper()
	u, err := repo.FindByIdentifier(context.Background(), method, identifier)
	if err != nil {
		t.Fatalf("FindByIdentifier(%q): %v", identifier, err)
	}
	if u.OTPCode == "" {
		t.Fatalf("no pending challenge for %q", identifier)
	}
	return u.OTPCode
}

func wantStatus(t *testing.T, err error, status int) *apperr.Error {
	t.Helper()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	if ae.Status != status {
		t.Fatalf("status = %d (%q), want %d", ae.Status, ae.Message, status)
	}
	return ae
}

func testProfile() ProfileInput {
	return ProfileInput{
		FirstName: "Juan",
		LastName:  "Dela Cruz",
		Birthday:  time.Date(1995, 5, 20, 0, 0, 0, 0, time.UTC),
		Gender:    models.GenderMale,
		Address:   models.Address{Line1: "123 Mabini St", City: "Manila", Country: "PH"},
	}
}

func TestStartRegistrationClassifiesIdentifier(t *testing.T) {
	repo := repository.NewMemoryUserRepo()
	svc := newTestAuthService(repo, nil)
	ctx := context.Background()

	res, err := svc.StartRegistration(ctx, RegisterInput{
		Identifier: "a@b.com", Password: "Abc123", ConfirmPassword: "Abc123",
	})
	if err != nil {
		t.Fatalf("email registration: %v", err)
	}
	if res.ContactMethod != models.ContactEmail {
		t.Fatalf("contactMethod = %q, want email", res.ContactMethod)
	}

	res, err = svc.StartRegistration(ctx, RegisterInput{
		Identifier: "+63 917 123 4567", Password: "Abc123", ConfirmPassword: "Abc123",
	})
	if err != nil {
		t.Fatalf("phone registration: %v", err)
	}
	if res.ContactMethod != models.ContactPhone {
		t.Fatalf("contactMethod = %q, want phone", res.ContactMethod)
	}

	u, err := repo.FindByID(ctx, res.UserID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if u.Status != models.StatusPending {
		t.Fatalf("status = %q, want pending", u.Status)
	}
	if u.Role != models.RoleUser {
		t.Fatalf("role = %q, want user", u.Role)
	}
	if u.OTPCode == "" || u.OTPExpiresAt == nil {
		t.Fatal("new account must carry a pending challenge")
	}
}

func TestStartRegistrationPasswordMismatch(t *testing.T) {
	svc := newTestAuthService(repository.NewMemoryUserRepo(), nil)

	_, err := svc.StartRegistration(context.Background(), RegisterInput{
		Identifier: "a@b.com", Password: "Abc123", ConfirmPassword: "Abc124",
	})
	wantStatus(t, err, 400)
}

func TestStartRegistrationUnknownIdentifierFormat(t *testing.T) {
	svc := newTestAuthService(repository.NewMemoryUserRepo(), nil)

	_, err := svc.StartRegistration(context.Background(), RegisterInput{
		Identifier: "not-a-contact", Password: "Abc123", ConfirmPassword: "Abc123",
	})
	wantStatus(t, err, 400)
}

func TestStartRegistrationDuplicate(t *testing.T) {
	svc := newTestAuthService(repository.NewMemoryUserRepo(), nil)
	mustRegister(t, svc, "a@b.com")

	_, err := svc.StartRegistration(context.Background(), RegisterInput{
		Identifier: "a@b.com", Password: "Other99", ConfirmPassword: "Other99",
	})
	wantStatus(t, err, 409)
}

func TestStartRegistrationConcurrentSameIdentifier(t *testing.T) {
	svc := newTestAuthService(repository.NewMemoryUserRepo(), nil)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.StartRegistration(context.Background(), RegisterInput{
				Identifier: "race@b.com", Password: "Abc123", ConfirmPassword: "Abc123",
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			var ae *apperr.Error
			if errors.As(err, &ae) && ae.Status == 409 {
				conflicts++
			} else {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}
	if successes != 1 || conflicts != n-1 {
		t.Fatalf("got %d successes and %d conflicts, want 1 and %d", successes, conflicts, n-1)
	}
}

func TestVerifyChallenge(t *testing.T) {
	repo := repository.NewMemoryUserRepo()
	svc := newTestAuthService(repo, nil)
	ctx := context.Background()

	mustRegister(t, svc, "a@b.com")
	code := currentCode(t, repo, models.ContactEmail, "a@b.com")

	_, err := svc.VerifyChallenge(ctx, "missing@b.com", code)
	wantStatus(t, err, 404)

	_, err = svc.VerifyChallenge(ctx, "a@b.com", "000000")
	ae := wantStatus(t, err, 400)
	if ae.Message != "invalid code" {
		t.Fatalf("message = %q, want %q", ae.Message, "invalid code")
	}

	user, err := svc.VerifyChallenge(ctx, "a@b.com", code)
	if err != nil {
		t.Fatalf("VerifyChallenge: %v", err)
	}
	if !user.EmailVerified {
		t.Fatal("email channel should be verified")
	}
	if user.Status != models.StatusVerified {
		t.Fatalf("status = %q, want verified", user.Status)
	}
	if user.OTPCode != "" || user.OTPExpiresAt != nil {
		t.Fatal("challenge must be cleared on success")
	}

	// a consumed code can never be redeemed twice
	_, err = svc.VerifyChallenge(ctx, "a@b.com", code)
	wantStatus(t, err, 400)
}

func TestVerifyChallengeExpired(t *testing.T) {
	repo := repository.NewMemoryUserRepo()
	svc := newTestAuthService(repo, nil)
	ctx := context.Background()

	userID := mustRegister(t, svc, "a@b.com")
	if err := repo.SetChallenge(ctx, userID, "123456", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("SetChallenge: %v", err)
	}

	_, err := svc.VerifyChallenge(ctx, "a@b.com", "123456")
	ae := wantStatus(t, err, 400)
	if ae.Message != "expired" {
		t.Fatalf("message = %q, want %q", ae.Message, "expired")
	}
}

func TestResendChallengeInvalidatesPriorCode(t *testing.T) {
	repo := repository.NewMemoryUserRepo()
	svc := newTestAuthService(repo, nil)
	ctx := context.Background()

	mustRegister(t, svc, "a@b.com")
	oldCode := currentCode(t, repo, models.ContactEmail, "a@b.com")

	// resend until the regenerated code differs (1-in-900000 collision)
	newCode := oldCode
	for attempt := 0; attempt < 5 && newCode == oldCode; attempt++ {
		if err := svc.ResendChallenge(ctx, "a@b.com"); err != nil {
			t.Fatalf("ResendChallenge: %v", err)
		}
		newCode = currentCode(t, repo, models.ContactEmail, "a@b.com")
	}
	if newCode == oldCode {
		t.Fatal("regenerated code never changed")
	}

	_, err := svc.VerifyChallenge(ctx, "a@b.com", oldCode)
	wantStatus(t, err, 400)

	if _, err := svc.VerifyChallenge(ctx, "a@b.com", newCode); err != nil {
		t.Fatalf("latest code should verify: %v", err)
	}
}

func TestResendChallengeUnknownIdentifier(t *testing.T) {
	svc := newTestAuthService(repository.NewMemoryUserRepo(), nil)
	err := svc.ResendChallenge(context.Background(), "ghost@b.com")
	wantStatus(t, err, 404)
}

func TestResendChallengeRateLimited(t *testing.T) {
	repo := repository.NewMemoryUserRepo()
	svc := newTestAuthService(repo, ratelimit.NewFixedWindow(1, time.Minute))
	ctx := context.Background()

	mustRegister(t, svc, "a@b.com")

	if err := svc.ResendChallenge(ctx, "a@b.com"); err != nil {
		t.Fatalf("first resend: %v", err)
	}
	err := svc.ResendChallenge(ctx, "a@b.com")
	ae := wantStatus(t, err, 429)
	if ae.RetryAfter <= 0 {
		t.Fatalf("retryAfter = %d, want > 0", ae.RetryAfter)
	}
}

func TestCompleteProfile(t *testing.T) {
	repo := repository.NewMemoryUserRepo()
	svc := newTestAuthService(repo, nil)
	ctx := context.Background()

	userID := mustRegister(t, svc, "a@b.com")

	_, _, err := svc.CompleteProfile(ctx, userID, testProfile(), false)
	wantStatus(t, err, 400)

	// profile completion requires a verified contact channel
	_, _, err = svc.CompleteProfile(ctx, userID, testProfile(), true)
	ae := wantStatus(t, err, 400)
	if ae.Message != "must verify first" {
		t.Fatalf("message = %q, want %q", ae.Message, "must verify first")
	}

	code := currentCode(t, repo, models.ContactEmail, "a@b.com")
	if _, err := svc.VerifyChallenge(ctx, "a@b.com", code); err != nil {
		t.Fatalf("VerifyChallenge: %v", err)
	}

	user, token, err := svc.CompleteProfile(ctx, userID, testProfile(), true)
	if err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}
	if user.Status != models.StatusActive {
		t.Fatalf("status = %q, want active", user.Status)
	}
	if !user.TermsAccepted || user.TermsAcceptedAt == nil {
		t.Fatal("terms acceptance must be recorded")
	}
	if user.PasswordHash != "" || user.OTPCode != "" {
		t.Fatal("returned identity must be sanitized")
	}
	firstAcceptedAt := *user.TermsAcceptedAt

	// repeated acceptance never moves the original timestamp
	again, _, err := svc.CompleteProfile(ctx, userID, testProfile(), true)
	if err != nil {
		t.Fatalf("repeat CompleteProfile: %v", err)
	}
	if !again.TermsAcceptedAt.Equal(firstAcceptedAt) {
		t.Fatalf("termsAcceptedAt moved from %v to %v", firstAcceptedAt, again.TermsAcceptedAt)
	}
}

func TestCompleteProfileUnknownUser(t *testing.T) {
	svc := newTestAuthService(repository.NewMemoryUserRepo(), nil)
	_, _, err := svc.CompleteProfile(context.Background(), "64b0c3f0aaaaaaaaaaaaaaaa", testProfile(), true)
	wantStatus(t, err, 404)
}

func TestLoginLifecycle(t *testing.T) {
	repo := repository.NewMemoryUserRepo()
	svc := newTestAuthService(repo, nil)
	ctx := context.Background()

	userID := mustRegister(t, svc, "a@b.com")

	// not yet active
	_, _, err := svc.Login(ctx, "a@b.com", "Abc123")
	ae := wantStatus(t, err, 401)
	if ae.Message != "not fully verified" {
		t.Fatalf("message = %q, want %q", ae.Message, "not fully verified")
	}

	code := currentCode(t, repo, models.ContactEmail, "a@b.com")
	if _, err := svc.VerifyChallenge(ctx, "a@b.com", code); err != nil {
		t.Fatalf("VerifyChallenge: %v", err)
	}
	if _, _, err := svc.CompleteProfile(ctx, userID, testProfile(), true); err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}

	user, token, err := svc.Login(ctx, "a@b.com", "Abc123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}
	if user.PasswordHash != "" {
		t.Fatal("login response must not carry the credential hash")
	}
}

func TestLoginEnumerationResistance(t *testing.T) {
	repo := repository.NewMemoryUserRepo()
	svc := newTestAuthService(repo, nil)
	ctx := context.Background()

	mustRegister(t, svc, "a@b.com")

	_, _, unknownErr := svc.Login(ctx, "ghost@b.com", "Abc123")
	_, _, wrongErr := svc.Login(ctx, "a@b.com", "WrongPass")

	unknown := wantStatus(t, unknownErr, 401)
	wrong := wantStatus(t, wrongErr, 401)
	if unknown.Message != wrong.Message {
		t.Fatalf("error messages differ: %q vs %q", unknown.Message, wrong.Message)
	}
	if unknown.Message != "invalid credentials" {
		t.Fatalf("message = %q, want %q", unknown.Message, "invalid credentials")
	}
}
