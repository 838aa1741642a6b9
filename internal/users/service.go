package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/models"
)

// RepositoryInterface reads users
type RepositoryInterface interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service exposes users and their rating aggregate
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new users service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// GetUser returns a user by ID
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, common.Unavailable("failed to get user", err)
	}
	if user == nil {
		return nil, common.NewNotFoundError("user not found", nil)
	}
	return user, nil
}
