package permissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/users"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Grant upserts on the (file_key, grantee_id) unique constraint, so concurrent
// grants of the same file to the same user converge on one row.
func (r *PostgresRepository) Grant(ctx context.Context, fileKey, ownerID, granteeID string) (*models.PermissionGrant, error) {
	query := `
		INSERT INTO file_permissions (file_key, owner_id, grantee_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (file_key, grantee_id)
		DO UPDATE SET file_key = EXCLUDED.file_key
		RETURNING id, owner_id, granted_at
	`
	g := &models.PermissionGrant{FileKey: fileKey, GranteeID: granteeID}
	if err := r.db.QueryRowContext(ctx, query, fileKey, ownerID, granteeID).Scan(&g.ID, &g.OwnerID, &g.GrantedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

// Revoke removes exactly one matching grant.
func (r *PostgresRepository) Revoke(ctx context.Context, fileKey, ownerID, granteeID string) error {
	query := `
		DELETE FROM file_permissions
		WHERE id = (
			SELECT id FROM file_permissions
			WHERE file_key = $1 AND owner_id = $2 AND grantee_id = $3
			LIMIT 1
		)
	`
	res, err := r.db.ExecContext(ctx, query, fileKey, ownerID, granteeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Exists performs an exact-key lookup.
func (r *PostgresRepository) Exists(ctx context.Context, fileKey, granteeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM file_permissions WHERE file_key = $1 AND grantee_id = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, fileKey, granteeID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

// ListGrantees returns grantees in grant order.
func (r *PostgresRepository) ListGrantees(ctx context.Context, fileKey, ownerID string) ([]*models.User, error) {
	query := `
		SELECT u.id, u.external_id, u.email, u.username, u.created_at
		FROM file_permissions p
		JOIN users u ON u.id = p.grantee_id
		WHERE p.file_key = $1 AND p.owner_id = $2
		ORDER BY p.granted_at
	`
	rows, err := r.db.QueryContext(ctx, query, fileKey, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select grantees: %w", err)
	}
	return dbx.CollectRows(rows, users.ScanUser)
}

// ListGrantedTo joins the owner record at read time, so a renamed owner shows
// up under the new name without any invalidation.
func (r *PostgresRepository) ListGrantedTo(ctx context.Context, granteeID string) ([]*models.SharedGrant, error) {
	query := `
		SELECT p.file_key, p.granted_at, o.id, o.external_id, o.email, o.username, o.created_at
		FROM file_permissions p
		JOIN users o ON o.id = p.owner_id
		WHERE p.grantee_id = $1
		ORDER BY p.granted_at
	`
	rows, err := r.db.QueryContext(ctx, query, granteeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select grants: %w", err)
	}
	return dbx.CollectRows(rows, func(row dbx.Scanner) (*models.SharedGrant, error) {
		g := &models.SharedGrant{}
		err := row.Scan(&g.FileKey, &g.GrantedAt,
			&g.Owner.ID, &g.Owner.ExternalID, &g.Owner.Email, &g.Owner.UserName, &g.Owner.CreatedAt)
		return g, err
	})
}

// FindByKeyPattern matches pattern as a literal substring: LIKE wildcards in
// pattern are escaped.
func (r *PostgresRepository) FindByKeyPattern(ctx context.Context, pattern, granteeID string) (*models.PermissionGrant, error) {
	query := `
		SELECT id, file_key, owner_id, grantee_id, granted_at FROM file_permissions
		WHERE file_key ILIKE '%' || $1 || '%' ESCAPE '\' AND grantee_id = $2
		ORDER BY granted_at
		LIMIT 1
	`
	g := &models.PermissionGrant{}
	err := r.db.QueryRowContext(ctx, query, escapeLike(pattern), granteeID).
		Scan(&g.ID, &g.FileKey, &g.OwnerID, &g.GranteeID, &g.GrantedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

// DeleteByFileKey returns the number of grants removed.
func (r *PostgresRepository) DeleteByFileKey(ctx context.Context, fileKey string) (int64, error) {
	query := `DELETE FROM file_permissions WHERE file_key = $1`
	res, err := r.db.ExecContext(ctx, query, fileKey)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
