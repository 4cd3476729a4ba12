package service

import (
	"context"

	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/repository"
)

// UserService manages locally stored user profiles.
type UserService struct {
	users repository.UserRepository
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Sync mirrors the caller's identity into its profile and returns the stored row.
func (s *UserService) Sync(ctx context.Context, identity *domain.Identity) (*domain.UserProfile, error) {
	profile := &domain.UserProfile{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		Role:        identity.Role,
	}
	if err := s.users.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// List returns profiles, optionally restricted to one role.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.UserProfile, error) {
	return s.users.List(ctx, filter)
}
