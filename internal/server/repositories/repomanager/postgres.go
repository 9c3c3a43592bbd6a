package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/printpeak/internal/dbx"
	"github.com/dmitrijs2005/printpeak/internal/logging"
	"github.com/dmitrijs2005/printpeak/internal/server/cache"
	"github.com/dmitrijs2005/printpeak/internal/server/migrations"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/carts"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/orders"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/products"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories. When a
// Redis client is configured, Products is wrapped in a read-through cache.
type PostgresRepositoryManager struct {
	redis  redis.UniversalClient
	logger logging.Logger
}

// Option configures a PostgresRepositoryManager.
type Option func(*PostgresRepositoryManager)

// WithProductCache puts the catalog behind rdb.
func WithProductCache(rdb redis.UniversalClient, logger logging.Logger) Option {
	return func(m *PostgresRepositoryManager) {
		m.redis = rdb
		m.logger = logger
	}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Products(db dbx.DBTX) products.Repository {
	repo := products.NewPostgresRepository(db)
	if m.redis == nil {
		return repo
	}
	return cache.NewCachedProductRepository(repo, m.redis, m.logger)
}

func (m *PostgresRepositoryManager) Carts(db dbx.DBTX) carts.Repository {
	return carts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Orders(db dbx.DBTX) orders.Repository {
	return orders.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager(db *sql.DB, opts ...Option) (RepositoryManager, error) {
	m := &PostgresRepositoryManager{logger: logging.Nop{}}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}
