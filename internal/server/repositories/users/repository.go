package users

import (
	"context"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// Repository is the read side of the identity directory.
type Repository interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListExcept(ctx context.Context, externalID string) ([]*models.User, error)
}
