// Package server wires the storefront together: database, migrations,
// optional cache, object storage, payments and notifications, the
// services on top of them and the HTTP server in front.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/logging"
	"github.com/dmitrijs2005/printpeak/internal/server/cache"
	"github.com/dmitrijs2005/printpeak/internal/server/config"
	"github.com/dmitrijs2005/printpeak/internal/server/images"
	"github.com/dmitrijs2005/printpeak/internal/server/notify"
	"github.com/dmitrijs2005/printpeak/internal/server/payments"
	"github.com/dmitrijs2005/printpeak/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/printpeak/internal/server/rest"
	"github.com/dmitrijs2005/printpeak/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *rest.Server
}

// OpenDB opens the pgx pool and checks the database answers.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	if c.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	var opts []repomanager.Option
	if c.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, c.RedisAddr, c.RedisPassword)
		if err != nil {
			logger.Warn(ctx, "catalog cache disabled", "error", err)
		} else {
			app.redis = rdb
			opts = append(opts, repomanager.WithProductCache(rdb, logger))
		}
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db, opts...)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("repository init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := images.NewS3Store(ctx, images.Options{
		Region:    c.S3Region,
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Endpoint:  c.S3BaseEndpoint,
		Bucket:    c.S3Bucket,
		PublicURL: c.S3PublicURL,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("image store init error: %w", err)
	}

	var gateway payments.Gateway = payments.Disabled{}
	if c.StripeSecretKey != "" {
		gateway = payments.NewStripeGateway(c.StripeSecretKey, c.StripeWebhookSecret)
	} else {
		logger.Warn(ctx, "card payments disabled: no Stripe key configured")
	}

	hub := notify.NewHub(logger, c.CORSOrigins)
	notifiers := notify.Fanout{hub}
	if c.SESSender != "" {
		ses, err := notify.NewSESNotifier(ctx, c.SESRegion, "", "", c.SESSender, c.StripeCurrency)
		if err != nil {
			logger.Warn(ctx, "order e-mails disabled", "error", err)
		} else {
			notifiers = append(notifiers, ses)
		}
	}

	svc := rest.Services{
		Accounts: services.NewAccountService(db, rm, store, c),
		Catalog:  services.NewCatalogService(db, rm, store),
		Carts:    services.NewCartService(db, rm),
		Checkout: services.NewCheckoutService(db, rm, store, gateway, notifiers, logger, c),
		Orders:   services.NewOrderService(db, rm, notifiers, logger),
	}
	app.server = rest.NewServer(c, logger, svc, hub.ServeWS)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

// Run blocks until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}
