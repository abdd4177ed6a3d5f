package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/pms/internal/dbx"
	"github.com/dmitrijs2005/pms/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/pms/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can use
// the same code path with a pool or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Permissions(db dbx.DBTX) permissions.Repository
}
