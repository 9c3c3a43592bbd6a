// Package repomanager hands out repositories bound to either the connection
// pool or an open transaction, and applies schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/printpeak/internal/dbx"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/carts"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/orders"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/products"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Products(db dbx.DBTX) products.Repository
	Carts(db dbx.DBTX) carts.Repository
	Orders(db dbx.DBTX) orders.Repository
}
