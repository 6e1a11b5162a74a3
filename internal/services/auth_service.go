package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/VKx64/Farely-Backend/internal/apperr"
	"github.com/VKx64/Farely-Backend/internal/delivery"
	"github.com/VKx64/Farely-Backend/internal/events"
	"github.com/VKx64/Farely-Backend/internal/models"
	"github.com/VKx64/Farely-Backend/internal/ratelimit"
	"github.com/VKx64/Farely-Backend/internal/repository"
	"github.com/VKx64/Farely-Backend/internal/utils"
)

// authService implements the AuthService state machine.
type authService struct {
	userRepo   repository.UserRepository
	jwt        *utils.JWTManager
	sender     delivery.Sender
	publisher  *events.Publisher
	otpLimiter ratelimit.Limiter
	otpTTL     time.Duration
	hashCost   int
	log        *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	jwt *utils.JWTManager,
	sender delivery.Sender,
	publisher *events.Publisher,
	otpLimiter ratelimit.Limiter,
	otpTTL time.Duration,
	hashCost int,
	log *zap.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwt:        jwt,
		sender:     sender,
		publisher:  publisher,
		otpLimiter: otpLimiter,
		otpTTL:     otpTTL,
		hashCost:   hashCost,
		log:        log,
	}
}

// StartRegistration creates a pending account behind an atomic
// existence-check-and-insert, so two concurrent registrations for the same
// identifier cannot both succeed.
func (s *authService) StartRegistration(ctx context.Context, in RegisterInput) (*RegistrationResult, error) {
	if in.Password != in.ConfirmPassword {
		return nil, apperr.Validation("passwords do not match")
	}

	method, err := utils.ClassifyIdentifier(in.Identifier)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, err
	}

	code := utils.GenerateOTP()
	expiresAt := time.Now().Add(s.otpTTL)

	user := &models.User{
		PasswordHash: string(hash),
		Status:       models.StatusPending,
		Role:         models.RoleUser,
		OTPCode:      code,
		OTPExpiresAt: &expiresAt,
		ReferralCode: in.ReferralCode,
	}
	if method == models.ContactPhone {
		user.Phone = in.Identifier
	} else {
		user.Email = in.Identifier
	}

	if err := s.userRepo.CreateIfAbsent(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, apperr.Conflict("account already exists")
		}
		return nil, err
	}

	s.deliverOTP(method, in.Identifier, code)
	s.publisher.Publish(ctx, events.TypeRegistered, user.ID.Hex())

	return &RegistrationResult{UserID: user.ID.Hex(), ContactMethod: method}, nil
}

// VerifyChallenge consumes an OTP with a single atomic read-and-clear, so a
// code can never be redeemed twice even under concurrent attempts.
func (s *authService) VerifyChallenge(ctx context.Context, identifier, code string) (*models.User, error) {
	method, err := utils.ClassifyIdentifier(identifier)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	now := time.Now()
	user, err := s.userRepo.ConsumeChallenge(ctx, method, identifier, code, now)
	if err == nil {
		s.publisher.Publish(ctx, events.TypeVerified, user.ID.Hex())
		return user, nil
	}
	if !errors.Is(err, repository.ErrChallengeNotMatched) {
		return nil, err
	}

	// nothing matched; a follow-up read decides which failure to report
	existing, findErr := s.userRepo.FindByIdentifier(ctx, method, identifier)
	if errors.Is(findErr, repository.ErrUserNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if findErr != nil {
		return nil, findErr
	}
	if existing.OTPCode == "" || existing.OTPCode != code {
		return nil, apperr.Validation("invalid code")
	}
	return nil, apperr.Validation("expired")
}

// ResendChallenge regenerates the OTP, invalidating any unconsumed prior
// code. Gated per identifier to bound abuse.
func (s *authService) ResendChallenge(ctx context.Context, identifier string) error {
	method, err := utils.ClassifyIdentifier(identifier)
	if err != nil {
		return apperr.Validation(err.Error())
	}

	res, err := s.otpLimiter.Allow(ctx, identifier)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return apperr.RateLimited(res.RetryAfterSeconds())
	}

	user, err := s.userRepo.FindByIdentifier(ctx, method, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}

	code := utils.GenerateOTP()
	expiresAt := time.Now().Add(s.otpTTL)
	if err := s.userRepo.SetChallenge(ctx, user.ID.Hex(), code, expiresAt); err != nil {
		return err
	}

	s.deliverOTP(method, identifier, code)
	return nil
}

// CompleteProfile finishes registration: profile fields become mandatory,
// terms are recorded (the acceptance timestamp is set exactly once), and the
// account becomes active and login-eligible.
func (s *authService) CompleteProfile(ctx context.Context, userID string, profile ProfileInput, termsAccepted bool) (*models.User, string, error) {
	if !termsAccepted {
		return nil, "", apperr.Validation("terms must be accepted")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperr.NotFound("user not found")
		}
		return nil, "", err
	}
	if !user.ChannelVerified() {
		return nil, "", apperr.Validation("must verify first")
	}

	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.MiddleInitial = profile.MiddleInitial
	user.Suffix = profile.Suffix
	birthday := profile.Birthday
	user.Birthday = &birthday
	user.Gender = profile.Gender
	address := profile.Address
	user.Address = &address

	user.TermsAccepted = true
	if user.TermsAcceptedAt == nil {
		now := time.Now().UTC()
		user.TermsAcceptedAt = &now
	}
	user.Status = models.StatusActive

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, "", err
	}

	token, _, err := s.jwt.Generate(user.ID.Hex())
	if err != nil {
		return nil, "", err
	}

	s.publisher.Publish(ctx, events.TypeActivated, user.ID.Hex())
	return user.Sanitized(), token, nil
}

// Login checks credentials and issues a session token. Unknown identifier
// and wrong password produce the same error to prevent enumeration.
func (s *authService) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	method, err := utils.ClassifyIdentifier(identifier)
	if err != nil {
		return nil, "", apperr.Auth("invalid credentials")
	}

	user, err := s.userRepo.FindByIdentifierWithSecret(ctx, method, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperr.Auth("invalid credentials")
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", apperr.Auth("invalid credentials")
	}

	if !user.FullyVerified() {
		return nil, "", apperr.Auth("not fully verified")
	}

	token, _, err := s.jwt.Generate(user.ID.Hex())
	if err != nil {
		return nil, "", err
	}
	return user.Sanitized(), token, nil
}

// deliverOTP hands the code to the transport without blocking the request.
func (s *authService) deliverOTP(method models.ContactMethod, to, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.sender.SendOTP(ctx, method, to, code); err != nil {
			s.log.Warn("otp delivery failed", zap.String("method", string(method)), zap.Error(err))
		}
	}()
}
