// Package directory resolves login-provider subjects and e-mail addresses to
// users. The PostgreSQL users repository satisfies Directory directly;
// CachedDirectory adds a Redis read-through layer in front of it.
package directory

import (
	"context"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// Directory looks users up. Misses return common.ErrorNotFound.
type Directory interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListExcept(ctx context.Context, externalID string) ([]*models.User, error)
}
