// Package users provides a PostgreSQL-backed identity directory lookup.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByExternalID returns the user whose login-provider subject is externalID.
// If none exists, it returns common.ErrorNotFound.
func (r *PostgresRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	query := `
		SELECT id, external_id, email, username, created_at FROM users
		WHERE external_id = $1
	`
	return r.findOne(ctx, query, externalID)
}

// FindByEmail returns the user registered with email.
// If none exists, it returns common.ErrorNotFound.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, external_id, email, username, created_at FROM users
		WHERE email = $1
	`
	return r.findOne(ctx, query, email)
}

// ListExcept returns every user but the one with the given external id.
func (r *PostgresRepository) ListExcept(ctx context.Context, externalID string) ([]*models.User, error) {
	query := `
		SELECT id, external_id, email, username, created_at FROM users
		WHERE external_id <> $1
		ORDER BY username
	`
	rows, err := r.db.QueryContext(ctx, query, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	return dbx.CollectRows(rows, ScanUser)
}

// ScanUser reads the id, external_id, email, username, created_at columns.
func ScanUser(row dbx.Scanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.UserName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	u, err := ScanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
