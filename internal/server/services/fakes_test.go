package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/links"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/users"
)

// --- directory ---

type fakeDirectory struct {
	users []*models.User
	err   error
}

func (d *fakeDirectory) FindByExternalID(_ context.Context, id string) (*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.users {
		if u.ExternalID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (d *fakeDirectory) ListExcept(_ context.Context, id string) ([]*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []*models.User
	for _, u := range d.users {
		if u.ExternalID != id {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeDirectory) byID(id string) *models.User {
	for _, u := range d.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// --- permissions ---

type fakePermissions struct {
	dir       *fakeDirectory
	grants    []*models.PermissionGrant
	seq       int
	deleteErr error
}

func (p *fakePermissions) Grant(_ context.Context, fileKey, ownerID, granteeID string) (*models.PermissionGrant, error) {
	for _, g := range p.grants {
		if g.FileKey == fileKey && g.GranteeID == granteeID {
			return g, nil
		}
	}
	p.seq++
	g := &models.PermissionGrant{
		ID:        "g" + strconv.Itoa(p.seq),
		FileKey:   fileKey,
		OwnerID:   ownerID,
		GranteeID: granteeID,
		GrantedAt: time.Unix(int64(p.seq), 0),
	}
	p.grants = append(p.grants, g)
	return g, nil
}

func (p *fakePermissions) Revoke(_ context.Context, fileKey, ownerID, granteeID string) error {
	for i, g := range p.grants {
		if g.FileKey == fileKey && g.OwnerID == ownerID && g.GranteeID == granteeID {
			p.grants = append(p.grants[:i], p.grants[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (p *fakePermissions) Exists(_ context.Context, fileKey, granteeID string) (bool, error) {
	for _, g := range p.grants {
		if g.FileKey == fileKey && g.GranteeID == granteeID {
			return true, nil
		}
	}
	return false, nil
}

func (p *fakePermissions) ListGrantees(_ context.Context, fileKey, ownerID string) ([]*models.User, error) {
	var out []*models.User
	for _, g := range p.grants {
		if g.FileKey == fileKey && g.OwnerID == ownerID {
			out = append(out, p.dir.byID(g.GranteeID))
		}
	}
	return out, nil
}

func (p *fakePermissions) ListGrantedTo(_ context.Context, granteeID string) ([]*models.SharedGrant, error) {
	var out []*models.SharedGrant
	for _, g := range p.grants {
		if g.GranteeID == granteeID {
			out = append(out, &models.SharedGrant{FileKey: g.FileKey, Owner: *p.dir.byID(g.OwnerID), GrantedAt: g.GrantedAt})
		}
	}
	return out, nil
}

func (p *fakePermissions) FindByKeyPattern(_ context.Context, pattern, granteeID string) (*models.PermissionGrant, error) {
	for _, g := range p.grants {
		if g.GranteeID == granteeID && strings.Contains(strings.ToLower(g.FileKey), strings.ToLower(pattern)) {
			return g, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (p *fakePermissions) DeleteByFileKey(_ context.Context, fileKey string) (int64, error) {
	if p.deleteErr != nil {
		return 0, p.deleteErr
	}
	var n int64
	kept := p.grants[:0]
	for _, g := range p.grants {
		if g.FileKey == fileKey {
			n++
			continue
		}
		kept = append(kept, g)
	}
	p.grants = kept
	return n, nil
}

// --- links ---

type fakeLinks struct {
	byKey map[string]*models.ShareToken
}

func newFakeLinks() *fakeLinks { return &fakeLinks{byKey: map[string]*models.ShareToken{}} }

func (l *fakeLinks) IssueOrReuse(_ context.Context, fileKey, candidate string) (string, error) {
	if t, ok := l.byKey[fileKey]; ok {
		return t.Token, nil
	}
	l.byKey[fileKey] = &models.ShareToken{FileKey: fileKey, Token: candidate, CreatedAt: time.Now()}
	return candidate, nil
}

func (l *fakeLinks) Resolve(_ context.Context, token string) (*models.ShareToken, error) {
	for _, t := range l.byKey {
		if t.Token == token {
			return t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (l *fakeLinks) DeleteByFileKey(_ context.Context, fileKey string) (int64, error) {
	if _, ok := l.byKey[fileKey]; !ok {
		return 0, nil
	}
	delete(l.byKey, fileKey)
	return 1, nil
}

// --- repo manager ---

type fakeRepoManager struct {
	dir   *fakeDirectory
	perms *fakePermissions
	links *fakeLinks
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.dir }
func (m *fakeRepoManager) Permissions(dbx.DBTX) permissions.Repository { return m.perms }
func (m *fakeRepoManager) Links(dbx.DBTX) links.Repository             { return m.links }

// --- fixture ---

var (
	userOne = &models.User{ID: "id-1", ExternalID: "u1", Email: "u1@example.com", UserName: "alice"}
	userTwo = &models.User{ID: "id-2", ExternalID: "u2", Email: "u2@example.com", UserName: "bob"}
)

type fixture struct {
	svc   *FileService
	blobs *blobstore.MemoryStore
	rm    *fakeRepoManager
	mock  sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dir := &fakeDirectory{users: []*models.User{userOne, userTwo}}
	rm := &fakeRepoManager{
		dir:   dir,
		perms: &fakePermissions{dir: dir},
		links: newFakeLinks(),
	}
	blobs := blobstore.NewMemoryStore()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &fixture{
		svc:   NewFileService(db, rm, blobs, dir, logger),
		blobs: blobs,
		rm:    rm,
		mock:  mock,
	}
}

func (f *fixture) upload(t *testing.T, owner, name, body string) {
	t.Helper()
	if _, err := f.svc.Upload(context.Background(), owner, name, []byte(body), "text/plain"); err != nil {
		t.Fatalf("upload %s/%s: %v", owner, name, err)
	}
}
