package repository

import (
	"context"
	"errors"
	"time"

	"github.com/VKx64/Farely-Backend/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	// ErrChallengeNotMatched means the atomic read-and-clear found no document
	// with a matching, unexpired code. The caller classifies the cause.
	ErrChallengeNotMatched = errors.New("challenge not matched")
)

// UserRepository is the transactional document store for user accounts.
// Reads exclude the credential hash unless the method name says otherwise.
type UserRepository interface {
	// CreateIfAbsent inserts u unless a user with the same identifier exists.
	// The existence check and insert are atomic, so two concurrent
	// registrations for one identifier cannot both succeed.
	CreateIfAbsent(ctx context.Context, u *models.User) error

	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIdentifier(ctx context.Context, method models.ContactMethod, value string) (*models.User, error)
	FindByIdentifierWithSecret(ctx context.Context, method models.ContactMethod, value string) (*models.User, error)

	// SetChallenge overwrites the OTP code and expiry; only the latest code
	// is ever valid.
	SetChallenge(ctx context.Context, id string, code string, expiresAt time.Time) error

	// ConsumeChallenge atomically clears a matching, unexpired OTP and marks
	// the channel verified, returning the updated user. At most one caller
	// can consume a given code.
	ConsumeChallenge(ctx context.Context, method models.ContactMethod, value, code string, now time.Time) (*models.User, error)

	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context, page, limit int64) ([]*models.User, int64, error)
	Delete(ctx context.Context, id string) error
}
