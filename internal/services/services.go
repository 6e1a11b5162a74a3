package services

import (
	"context"
	"time"

	"github.com/VKx64/Farely-Backend/internal/models"
)

// RegisterInput carries the first registration step: one contact identifier
// plus the chosen credential.
type RegisterInput struct {
	Identifier      string
	Password        string
	ConfirmPassword string
	ReferralCode    string
}

// RegistrationResult is returned to the client; the OTP itself goes to the
// delivery sender, never into a response.
type RegistrationResult struct {
	UserID        string               `json:"userId"`
	ContactMethod models.ContactMethod `json:"contactMethod"`
}

// ProfileInput is the mandatory profile payload for the final registration
// step.
type ProfileInput struct {
	FirstName     string
	LastName      string
	MiddleInitial string
	Suffix        string
	Birthday      time.Time
	Gender        models.Gender
	Address       models.Address
}

// ProfileUpdate is a partial profile edit. Empty fields are left untouched;
// credentials, role and verification state are not representable here.
type ProfileUpdate struct {
	FirstName     string
	LastName      string
	MiddleInitial string
	Suffix        string
	Birthday      *time.Time
	Gender        models.Gender
	Address       *models.Address
}

// Pagination describes one page of an admin listing.
type Pagination struct {
	CurrentPage int64 `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
	TotalUsers  int64 `json:"totalUsers"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// AuthService drives the registration/verification/login lifecycle:
// pending -> verified -> active, with login only permitted from active.
type AuthService interface {
	StartRegistration(ctx context.Context, in RegisterInput) (*RegistrationResult, error)
	VerifyChallenge(ctx context.Context, identifier, code string) (*models.User, error)
	ResendChallenge(ctx context.Context, identifier string) error
	CompleteProfile(ctx context.Context, userID string, profile ProfileInput, termsAccepted bool) (*models.User, string, error)
	Login(ctx context.Context, identifier, password string) (*models.User, string, error)
}

// UserService covers profile reads/edits and the admin surface.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error)
	ListUsers(ctx context.Context, page, limit int64) ([]*models.User, *Pagination, error)
	DeleteUser(ctx context.Context, userID string) error
}
