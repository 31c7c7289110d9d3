package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sharekeeper/internal/server/directory"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

type UserService struct {
	directory directory.Directory
}

func NewUserService(dir directory.Directory) *UserService {
	return &UserService{directory: dir}
}

// ListUsers returns every registered user except caller, so a client can
// pick someone to share with.
func (s *UserService) ListUsers(ctx context.Context, caller string) ([]*models.User, error) {
	users, err := s.directory.ListExcept(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}
