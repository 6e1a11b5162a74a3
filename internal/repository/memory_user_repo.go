package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/VKx64/Farely-Backend/internal/models"
)

// memoryUserRepo is an in-process store with the same atomicity guarantees
// as the Mongo repository. Used in tests and for local development without
// a database.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryUserRepo() UserRepository {
	return &memoryUserRepo{users: make(map[string]*models.User)}
}

func (r *memoryUserRepo) clone(u *models.User) *models.User {
	out := *u
	if u.OTPExpiresAt != nil {
		t := *u.OTPExpiresAt
		out.OTPExpiresAt = &t
	}
	if u.TermsAcceptedAt != nil {
		t := *u.TermsAcceptedAt
		out.TermsAcceptedAt = &t
	}
	if u.Birthday != nil {
		t := *u.Birthday
		out.Birthday = &t
	}
	if u.Address != nil {
		a := *u.Address
		out.Address = &a
	}
	return &out
}

func (r *memoryUserRepo) findLocked(method models.ContactMethod, value string) *models.User {
	for _, u := range r.users {
		if value == "" {
			continue
		}
		if method == models.ContactEmail && u.Email == value {
			return u
		}
		if method == models.ContactPhone && u.Phone == value {
			return u
		}
	}
	return nil
}

func (r *memoryUserRepo) CreateIfAbsent(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Email != "" && r.findLocked(models.ContactEmail, u.Email) != nil {
		return ErrUserExists
	}
	if u.Phone != "" && r.findLocked(models.ContactPhone, u.Phone) != nil {
		return ErrUserExists
	}

	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID.Hex()] = r.clone(u)
	return nil
}

func (r *memoryUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := r.clone(u)
	out.PasswordHash = ""
	return out, nil
}

func (r *memoryUserRepo) FindByIdentifier(_ context.Context, method models.ContactMethod, value string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findLocked(method, value)
	if u == nil {
		return nil, ErrUserNotFound
	}
	out := r.clone(u)
	out.PasswordHash = ""
	return out, nil
}

func (r *memoryUserRepo) FindByIdentifierWithSecret(_ context.Context, method models.ContactMethod, value string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findLocked(method, value)
	if u == nil {
		return nil, ErrUserNotFound
	}
	return r.clone(u), nil
}

func (r *memoryUserRepo) SetChallenge(_ context.Context, id string, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.OTPCode = code
	u.OTPExpiresAt = &expiresAt
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryUserRepo) ConsumeChallenge(_ context.Context, method models.ContactMethod, value, code string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findLocked(method, value)
	if u == nil || u.OTPCode == "" || u.OTPCode != code || u.OTPExpiresAt == nil || now.After(*u.OTPExpiresAt) {
		return nil, ErrChallengeNotMatched
	}

	if method == models.ContactPhone {
		u.PhoneVerified = true
	} else {
		u.EmailVerified = true
	}
	u.Status = models.StatusVerified
	u.OTPCode = ""
	u.OTPExpiresAt = nil
	u.UpdatedAt = now.UTC()

	out := r.clone(u)
	out.PasswordHash = ""
	return out, nil
}

func (r *memoryUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[u.ID.Hex()]
	if !ok {
		return ErrUserNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	next := r.clone(u)
	if next.PasswordHash == "" {
		next.PasswordHash = stored.PasswordHash
	}
	r.users[u.ID.Hex()] = next
	return nil
}

func (r *memoryUserRepo) List(_ context.Context, page, limit int64) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out := r.clone(u)
		out.PasswordHash = ""
		all = append(all, out)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}
