// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/links"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Permissions returns a permissions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Permissions(db dbx.DBTX) permissions.Repository {
	return permissions.NewPostgresRepository(db)
}

// Links returns a links.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Links(db dbx.DBTX) links.Repository {
	return links.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
