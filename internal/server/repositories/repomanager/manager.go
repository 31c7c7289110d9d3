package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/links"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code runs
// against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Permissions(db dbx.DBTX) permissions.Repository
	Links(db dbx.DBTX) links.Repository
}
