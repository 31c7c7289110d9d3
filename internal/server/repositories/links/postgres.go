package links

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

// IssueOrReuse relies on the primary key on shared_links.file_key: a losing
// concurrent insert becomes a no-op and the follow-up read returns the
// winner's token.
func (r *PostgresRepository) IssueOrReuse(ctx context.Context, fileKey, candidate string) (string, error) {
	insert := `
		INSERT INTO shared_links (file_key, token)
		VALUES ($1, $2)
		ON CONFLICT (file_key) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, fileKey, candidate); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	query := `SELECT token FROM shared_links WHERE file_key = $1`
	var token string
	if err := r.db.QueryRowContext(ctx, query, fileKey).Scan(&token); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Resolve returns the link row for token.
func (r *PostgresRepository) Resolve(ctx context.Context, token string) (*models.ShareToken, error) {
	query := `
		SELECT file_key, token, created_at
		FROM shared_links
		WHERE token = $1
	`
	link := &models.ShareToken{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&link.FileKey, &link.Token, &link.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return link, nil
}

// DeleteByFileKey returns the number of rows removed (0 or 1).
func (r *PostgresRepository) DeleteByFileKey(ctx context.Context, fileKey string) (int64, error) {
	query := `DELETE FROM shared_links WHERE file_key = $1`
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
