package services

import (
	"context"
	"errors"

	"github.com/VKx64/Farely-Backend/internal/apperr"
	"github.com/VKx64/Farely-Backend/internal/events"
	"github.com/VKx64/Farely-Backend/internal/models"
	"github.com/VKx64/Farely-Backend/internal/repository"
)

type userService struct {
	userRepo  repository.UserRepository
	publisher *events.Publisher
}

func NewUserService(userRepo repository.UserRepository, publisher *events.Publisher) UserService {
	return &userService{userRepo: userRepo, publisher: publisher}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return user.Sanitized(), nil
}

// UpdateProfile applies a partial edit to an active account. Only profile
// fields are reachable; credentials, role and verification flags cannot be
// changed through this path.
func (s *userService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}

	if in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		user.LastName = in.LastName
	}
	if in.MiddleInitial != "" {
		user.MiddleInitial = in.MiddleInitial
	}
	if in.Suffix != "" {
		user.Suffix = in.Suffix
	}
	if in.Birthday != nil {
		user.Birthday = in.Birthday
	}
	if in.Gender != "" {
		user.Gender = in.Gender
	}
	if in.Address != nil {
		user.Address = in.Address
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int64) ([]*models.User, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	users, total, err := s.userRepo.List(ctx, page, limit)
	if err != nil {
		return nil, nil, err
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	sanitized := make([]*models.User, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitized()
	}

	return sanitized, &Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalUsers:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	s.publisher.Publish(ctx, events.TypeDeleted, userID)
	return nil
}
