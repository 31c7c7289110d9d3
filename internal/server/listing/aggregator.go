// Package listing merges a user's own objects with the objects shared to them
// into a single file listing.
package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/keys"
	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/sharekeeper/internal/server/directory"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/permissions"
)

type Aggregator struct {
	blobs       blobstore.Store
	directory   directory.Directory
	permissions permissions.Repository
	logger      logging.Logger
}

func NewAggregator(blobs blobstore.Store, dir directory.Directory, perms permissions.Repository, logger logging.Logger) *Aggregator {
	return &Aggregator{
		blobs:       blobs,
		directory:   dir,
		permissions: perms,
		logger:      logger.With("module", "listing"),
	}
}

// ListAll returns owner's objects followed by the objects shared with owner.
// Callers must not rely on that order. Grants whose object no longer exists
// are skipped.
//
// Each shared grant costs one blob fetch.
func (a *Aggregator) ListAll(ctx context.Context, owner string) ([]*models.FileDescriptor, error) {
	objects, err := a.blobs.List(ctx, keys.Prefix(owner))
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	result := make([]*models.FileDescriptor, 0, len(objects))
	for _, o := range objects {
		if keys.IsFolderPlaceholder(o.Key) || keys.OwnerOf(o.Key) != owner {
			continue
		}
		name := keys.FilenameOf(o.Key)
		result = append(result, &models.FileDescriptor{
			Name:         name,
			Type:         keys.TypeOf(name),
			Size:         o.Size,
			LastModified: o.LastModified,
		})
	}

	user, err := a.directory.FindByExternalID(ctx, owner)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	grants, err := a.permissions.ListGrantedTo(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}

	for _, g := range grants {
		blob, err := a.blobs.Get(ctx, g.FileKey)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				a.logger.Debug(ctx, "skipping dangling grant", "file_key", g.FileKey)
				continue
			}
			return nil, fmt.Errorf("fetch shared object: %w", err)
		}

		lastModified := blob.LastModified
		if lastModified.IsZero() {
			lastModified = g.GrantedAt
		}

		name := keys.DisplayName(g.FileKey)
		result = append(result, &models.FileDescriptor{
			Name:         name,
			Type:         keys.TypeOf(name),
			Size:         blob.Size,
			LastModified: lastModified,
			IsShared:     true,
			SharedBy:     g.Owner.UserName,
		})
	}

	return result, nil
}
