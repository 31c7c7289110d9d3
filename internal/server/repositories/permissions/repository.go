// Package permissions declares and implements the store of per-user file
// grants.
package permissions

import (
	"context"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// Repository persists owner→grantee grants keyed by storage key.
type Repository interface {
	// Grant records that granteeID may read fileKey. Granting twice returns the
	// existing grant.
	Grant(ctx context.Context, fileKey, ownerID, granteeID string) (*models.PermissionGrant, error)

	// Revoke deletes the single grant matching all three fields, or returns
	// common.ErrorNotFound.
	Revoke(ctx context.Context, fileKey, ownerID, granteeID string) error

	// Exists reports whether granteeID holds a grant on exactly fileKey.
	Exists(ctx context.Context, fileKey, granteeID string) (bool, error)

	// ListGrantees returns the users ownerID shared fileKey with.
	ListGrantees(ctx context.Context, fileKey, ownerID string) ([]*models.User, error)

	// ListGrantedTo returns the grants held by granteeID with owners joined.
	ListGrantedTo(ctx context.Context, granteeID string) ([]*models.SharedGrant, error)

	// FindByKeyPattern returns the oldest grant of granteeID whose key contains
	// pattern, compared case-insensitively, or common.ErrorNotFound.
	FindByKeyPattern(ctx context.Context, pattern, granteeID string) (*models.PermissionGrant, error)

	// DeleteByFileKey drops every grant on fileKey.
	DeleteByFileKey(ctx context.Context, fileKey string) (int64, error)
}
