package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

type stubDirectory struct {
	users map[string]*models.User
	err   error
	calls int
}

func (d *stubDirectory) FindByExternalID(_ context.Context, id string) (*models.User, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (d *stubDirectory) FindByEmail(context.Context, string) (*models.User, error) {
	return nil, common.ErrorNotFound
}

func (d *stubDirectory) ListExcept(context.Context, string) ([]*models.User, error) {
	return nil, nil
}

type grantKey struct{ fileKey, granteeID string }

// stubPermissions implements only the grant bookkeeping the resolver relies on.
type stubPermissions struct {
	grants    map[grantKey]string
	existsErr error
	calls     int
}

func newStubPermissions() *stubPermissions {
	return &stubPermissions{grants: map[grantKey]string{}}
}

func (p *stubPermissions) Grant(_ context.Context, fileKey, ownerID, granteeID string) (*models.PermissionGrant, error) {
	p.grants[grantKey{fileKey, granteeID}] = ownerID
	return &models.PermissionGrant{FileKey: fileKey, OwnerID: ownerID, GranteeID: granteeID}, nil
}

func (p *stubPermissions) Revoke(_ context.Context, fileKey, ownerID, granteeID string) error {
	k := grantKey{fileKey, granteeID}
	if p.grants[k] != ownerID {
		return common.ErrorNotFound
	}
	delete(p.grants, k)
	return nil
}

func (p *stubPermissions) Exists(_ context.Context, fileKey, granteeID string) (bool, error) {
	p.calls++
	if p.existsErr != nil {
		return false, p.existsErr
	}
	_, ok := p.grants[grantKey{fileKey, granteeID}]
	return ok, nil
}

func (p *stubPermissions) ListGrantees(context.Context, string, string) ([]*models.User, error) {
	return nil, nil
}

func (p *stubPermissions) ListGrantedTo(context.Context, string) ([]*models.SharedGrant, error) {
	return nil, nil
}

func (p *stubPermissions) FindByKeyPattern(context.Context, string, string) (*models.PermissionGrant, error) {
	return nil, common.ErrorNotFound
}

func (p *stubPermissions) DeleteByFileKey(context.Context, string) (int64, error) {
	return 0, nil
}

func newFixture() (*Resolver, *stubDirectory, *stubPermissions) {
	dir := &stubDirectory{users: map[string]*models.User{
		"u1": {ID: "id-1", ExternalID: "u1", Email: "u1@example.com"},
		"u2": {ID: "id-2", ExternalID: "u2", Email: "u2@example.com"},
	}}
	perms := newStubPermissions()
	return NewResolver(dir, perms), dir, perms
}

func TestAuthorize_OwnerAlwaysAllowed(t *testing.T) {
	ctx := context.Background()
	r, dir, perms := newFixture()

	// Store state must not matter for the owner, even a failing one.
	dir.err = errors.New("directory down")
	perms.existsErr = errors.New("db down")

	cases := []struct{ owner, key string }{
		{"u1", "u1/a.txt"},
		{"u1", "u1/nested.name.pdf"},
		{"ghost", "ghost/x"},
	}
	for _, c := range cases {
		d, err := r.Authorize(ctx, c.owner, c.key)
		require.NoError(t, err, c.key)
		assert.Equal(t, Allow, d, c.key)
	}
	assert.Zero(t, dir.calls)
	assert.Zero(t, perms.calls)
}

func TestAuthorize_GrantRevokeRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, _, perms := newFixture()

	d, err := r.Authorize(ctx, "u2", "u1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, Deny, d)

	_, err = perms.Grant(ctx, "u1/a.txt", "id-1", "id-2")
	require.NoError(t, err)

	d, err = r.Authorize(ctx, "u2", "u1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, Allow, d)

	// Grants are exact-match: a sibling key stays denied.
	d, err = r.Authorize(ctx, "u2", "u1/a.txt.bak")
	require.NoError(t, err)
	assert.Equal(t, Deny, d)

	require.NoError(t, perms.Revoke(ctx, "u1/a.txt", "id-1", "id-2"))

	d, err = r.Authorize(ctx, "u2", "u1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, Deny, d)
}

func TestAuthorize_UnknownRequester(t *testing.T) {
	r, _, perms := newFixture()

	d, err := r.Authorize(context.Background(), "stranger", "u1/a.txt")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	assert.Equal(t, Deny, d)
	assert.Zero(t, perms.calls)
}

func TestAuthorize_UpstreamErrors(t *testing.T) {
	ctx := context.Background()

	r, dir, _ := newFixture()
	dir.err = errors.New("timeout")
	_, err := r.Authorize(ctx, "u2", "u1/a.txt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrUserNotFound)

	r, _, perms := newFixture()
	perms.existsErr = errors.New("db down")
	d, err := r.Authorize(ctx, "u2", "u1/a.txt")
	require.Error(t, err)
	assert.Equal(t, Deny, d)
}

func TestAuthorize_MalformedKey(t *testing.T) {
	r, _, _ := newFixture()

	for _, key := range []string{"", "noseparator", "/a.txt", "u1/"} {
		_, err := r.Authorize(context.Background(), "u1", key)
		assert.ErrorIs(t, err, common.ErrInvalidInput, key)
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
}
