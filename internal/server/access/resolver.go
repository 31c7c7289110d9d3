// Package access decides whether a caller may read or manage a stored file.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/keys"
	"github.com/dmitrijs2005/sharekeeper/internal/server/directory"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/permissions"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Resolver authorizes requests against file ownership and explicit grants.
type Resolver struct {
	directory   directory.Directory
	permissions permissions.Repository
}

func NewResolver(dir directory.Directory, perms permissions.Repository) *Resolver {
	return &Resolver{directory: dir, permissions: perms}
}

// Authorize returns Allow when requester owns fileKey or holds a grant on it.
// The owner check needs no lookups. A requester unknown to the directory
// yields common.ErrUserNotFound rather than a silent Deny.
func (r *Resolver) Authorize(ctx context.Context, requester, fileKey string) (Decision, error) {
	if err := keys.Validate(fileKey); err != nil {
		return Deny, err
	}

	if keys.OwnerOf(fileKey) == requester {
		return Allow, nil
	}

	user, err := r.directory.FindByExternalID(ctx, requester)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return Deny, common.ErrUserNotFound
		}
		return Deny, fmt.Errorf("resolve requester: %w", err)
	}

	ok, err := r.permissions.Exists(ctx, fileKey, user.ID)
	if err != nil {
		return Deny, fmt.Errorf("check grant: %w", err)
	}
	if ok {
		return Allow, nil
	}
	return Deny, nil
}
