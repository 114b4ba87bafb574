package services

import (
	"context"

	"github.com/termitary/apiserver/types"
)

// UserService encapsulates user lookups for callers outside the auth flow.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}
