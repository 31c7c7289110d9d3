package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/keys"
	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/access"
	"github.com/dmitrijs2005/sharekeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/sharekeeper/internal/server/directory"
	"github.com/dmitrijs2005/sharekeeper/internal/server/listing"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/repomanager"
)

// FileService implements the file sharing operations on top of the blob
// store, the identity directory and the permission and link repositories.
//
// Caller ids are login-provider subjects; they double as the owner segment of
// storage keys. Keys passed in by callers are filenames inside the caller's
// namespace unless stated otherwise.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	directory   directory.Directory
	resolver    *access.Resolver
	aggregator  *listing.Aggregator
	logger      logging.Logger
	now         func() time.Time
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, dir directory.Directory, logger logging.Logger) *FileService {
	perms := m.Permissions(db)
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		directory:   dir,
		resolver:    access.NewResolver(dir, perms),
		aggregator:  listing.NewAggregator(blobs, dir, perms, logger),
		logger:      logger.With("module", "files"),
		now:         time.Now,
	}
}

// Upload stores data as filename in owner's namespace, replacing any object
// of the same name.
func (s *FileService) Upload(ctx context.Context, owner, filename string, data []byte, contentType string) (*models.FileDescriptor, error) {
	if err := keys.ValidateFilename(filename); err != nil {
		return nil, err
	}

	key, err := keys.ToKey(owner, filename)
	if err != nil {
		return nil, err
	}

	if err := s.blobs.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	return &models.FileDescriptor{
		Name:         filename,
		Type:         keys.TypeOf(filename),
		Size:         int64(len(data)),
		LastModified: s.now(),
	}, nil
}

// List returns owner's files followed by the files shared with owner.
func (s *FileService) List(ctx context.Context, owner string) ([]*models.FileDescriptor, error) {
	return s.aggregator.ListAll(ctx, owner)
}

// FetchOwn returns the object key in requester's namespace. A denied request
// fails exactly like a missing object, with common.ErrFileNotFound.
func (s *FileService) FetchOwn(ctx context.Context, key, requester string) (*models.Blob, error) {
	fullKey, err := keys.ToKey(requester, key)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, requester, fullKey); err != nil {
		return nil, err
	}

	return s.get(ctx, fullKey)
}

// Delete removes the object key from requester's namespace together with its
// grants and share link. Cleanup failures are logged, not returned.
func (s *FileService) Delete(ctx context.Context, key, requester string) error {
	fullKey, err := keys.ToKey(requester, key)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, requester, fullKey); err != nil {
		return err
	}

	if err := s.ensureExists(ctx, fullKey); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, fullKey); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Permissions(tx).DeleteByFileKey(ctx, fullKey); err != nil {
			return fmt.Errorf("error deleting grants: %w", err)
		}
		if _, err := s.repomanager.Links(tx).DeleteByFileKey(ctx, fullKey); err != nil {
			return fmt.Errorf("error deleting share link: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "metadata cleanup after delete failed", "file_key", fullKey, "error", err)
	}

	return nil
}

// IssueLink returns the share token of key in owner's namespace, creating it
// on first use. Repeated calls return the same token.
func (s *FileService) IssueLink(ctx context.Context, key, owner string) (string, error) {
	fullKey, err := keys.ToKey(owner, key)
	if err != nil {
		return "", err
	}

	if err := s.ensureExists(ctx, fullKey); err != nil {
		return "", err
	}

	candidate, err := common.MakeRandHexString(common.ShareTokenBytes)
	if err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}

	token, err := s.repomanager.Links(s.db).IssueOrReuse(ctx, fullKey, candidate)
	if err != nil {
		return "", fmt.Errorf("error issuing share link: %w", err)
	}
	return token, nil
}

// FetchByToken serves an object to an anonymous bearer of its share token.
func (s *FileService) FetchByToken(ctx context.Context, token string) (*models.SharedFile, error) {
	if token == "" {
		return nil, common.ErrInvalidToken
	}

	link, err := s.repomanager.Links(s.db).Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error resolving token: %w", err)
	}

	blob, err := s.get(ctx, link.FileKey)
	if err != nil {
		return nil, err
	}

	return &models.SharedFile{Blob: blob, FileKey: keys.DisplayName(link.FileKey)}, nil
}

// FetchByPermission returns an object shared with requester. key is matched
// case-insensitively as a substring of the granted storage keys, and the
// oldest matching grant wins.
func (s *FileService) FetchByPermission(ctx context.Context, key, requester string) (*models.Blob, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", common.ErrInvalidInput)
	}

	user, err := s.findUser(ctx, requester)
	if err != nil {
		return nil, err
	}

	grant, err := s.repomanager.Permissions(s.db).FindByKeyPattern(ctx, key, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("error looking up permission: %w", err)
	}

	d, err := s.resolver.Authorize(ctx, requester, grant.FileKey)
	if err != nil {
		return nil, err
	}
	if d != access.Allow {
		return nil, common.ErrPermissionNotFound
	}

	return s.get(ctx, grant.FileKey)
}

// Grant lets the user registered as granteeEmail read key in owner's
// namespace. Granting twice is a no-op.
func (s *FileService) Grant(ctx context.Context, key, owner, granteeEmail string) error {
	fullKey, owningUser, grantee, err := s.prepareGrantChange(ctx, key, owner, granteeEmail)
	if err != nil {
		return err
	}

	if _, err := s.repomanager.Permissions(s.db).Grant(ctx, fullKey, owningUser.ID, grantee.ID); err != nil {
		return fmt.Errorf("error adding permission: %w", err)
	}

	s.logger.Info(ctx, "permission granted", "file_key", fullKey, "grantee", grantee.ID)
	return nil
}

// Revoke withdraws the grant of granteeEmail on key in owner's namespace.
func (s *FileService) Revoke(ctx context.Context, key, granteeEmail, owner string) error {
	fullKey, owningUser, grantee, err := s.prepareGrantChange(ctx, key, owner, granteeEmail)
	if err != nil {
		return err
	}

	if err := s.repomanager.Permissions(s.db).Revoke(ctx, fullKey, owningUser.ID, grantee.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrPermissionNotFound
		}
		return fmt.Errorf("error removing permission: %w", err)
	}

	s.logger.Info(ctx, "permission revoked", "file_key", fullKey, "grantee", grantee.ID)
	return nil
}

// ListPermissions returns the e-mail addresses key in owner's namespace is
// shared with.
func (s *FileService) ListPermissions(ctx context.Context, key, owner string) ([]string, error) {
	fullKey, err := keys.ToKey(owner, key)
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, owner)
	if err != nil {
		return nil, err
	}

	grantees, err := s.repomanager.Permissions(s.db).ListGrantees(ctx, fullKey, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing permissions: %w", err)
	}

	emails := make([]string, 0, len(grantees))
	for _, g := range grantees {
		emails = append(emails, g.Email)
	}
	return emails, nil
}

// prepareGrantChange runs the checks shared by Grant and Revoke: the object
// must exist, the grantee and the owner must be known, and the owner must be
// authorized on the key.
func (s *FileService) prepareGrantChange(ctx context.Context, key, owner, granteeEmail string) (string, *models.User, *models.User, error) {
	fullKey, err := keys.ToKey(owner, key)
	if err != nil {
		return "", nil, nil, err
	}
	if granteeEmail == "" {
		return "", nil, nil, fmt.Errorf("%w: empty email", common.ErrInvalidInput)
	}

	if err := s.ensureExists(ctx, fullKey); err != nil {
		return "", nil, nil, err
	}

	grantee, err := s.directory.FindByEmail(ctx, granteeEmail)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, nil, common.ErrTargetUserNotFound
		}
		return "", nil, nil, fmt.Errorf("error resolving grantee: %w", err)
	}

	owningUser, err := s.findUser(ctx, owner)
	if err != nil {
		return "", nil, nil, err
	}

	if err := s.authorize(ctx, owner, fullKey); err != nil {
		return "", nil, nil, err
	}

	return fullKey, owningUser, grantee, nil
}

// authorize maps a Deny to common.ErrFileNotFound.
func (s *FileService) authorize(ctx context.Context, requester, fullKey string) error {
	d, err := s.resolver.Authorize(ctx, requester, fullKey)
	if err != nil {
		return err
	}
	if d != access.Allow {
		return common.ErrFileNotFound
	}
	return nil
}

func (s *FileService) findUser(ctx context.Context, externalID string) (*models.User, error) {
	user, err := s.directory.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error resolving user: %w", err)
	}
	return user, nil
}

func (s *FileService) get(ctx context.Context, fullKey string) (*models.Blob, error) {
	blob, err := s.blobs.Get(ctx, fullKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrFileNotFound
		}
		return nil, fmt.Errorf("error fetching file: %w", err)
	}
	return blob, nil
}

// ensureExists checks for fullKey with a prefix listing so no body is read.
func (s *FileService) ensureExists(ctx context.Context, fullKey string) error {
	objects, err := s.blobs.List(ctx, fullKey)
	if err != nil {
		return fmt.Errorf("error checking file: %w", err)
	}
	for _, o := range objects {
		if o.Key == fullKey {
			return nil
		}
	}
	return common.ErrFileNotFound
}
