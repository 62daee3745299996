package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/jobhub/internal/dbx"
	"github.com/dmitrijs2005/jobhub/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/jobhub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// them either directly on the pool or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
