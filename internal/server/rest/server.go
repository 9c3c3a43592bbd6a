// Package rest exposes the storefront services over HTTP with gin.
package rest

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/printpeak/internal/logging"
	"github.com/dmitrijs2005/printpeak/internal/server/config"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/dmitrijs2005/printpeak/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 10 * time.Second

type AccountAPI interface {
	Register(ctx context.Context, name, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, id string) error
	DeleteAllNonAdmin(ctx context.Context) (int64, error)
	AdminUpdate(ctx context.Context, id string, upd models.AccountUpdate) (*models.User, error)
}

type CatalogAPI interface {
	List(ctx context.Context) ([]*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
}

type CartAPI interface {
	AddItem(ctx context.Context, accountID, productID string) (*models.CartEntry, bool, error)
	List(ctx context.Context, accountID string) ([]*models.CartEntry, error)
	RemoveItem(ctx context.Context, accountID, productID string) error
	Clear(ctx context.Context, accountID string) error
}

type CheckoutAPI interface {
	PlaceDirectOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
	PlaceCardOrder(ctx context.Context, req models.OrderRequest) (*models.CheckoutResult, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*models.Order, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	OrdersForAccount(ctx context.Context, accountID string) ([]*models.Order, error)
	Summary(ctx context.Context, accountID string) (*models.Summary, error)
}

type OrdersAPI interface {
	ListAll(ctx context.Context) ([]*models.Order, error)
	SetStatus(ctx context.Context, id, status string) (*models.Order, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Services bundles what the handlers call into.
type Services struct {
	Accounts AccountAPI
	Catalog  CatalogAPI
	Carts    CartAPI
	Checkout CheckoutAPI
	Orders   OrdersAPI
}

// Server is the HTTP front of the storefront. live, when set, serves the
// admin websocket feed of order events.
type Server struct {
	address        string
	logger         logging.Logger
	svc            Services
	live           http.HandlerFunc
	jwtSecret      []byte
	corsOrigins    []string
	maxUploadBytes int64
}

func NewServer(cfg *config.Config, l logging.Logger, svc Services, live http.HandlerFunc) *Server {
	return &Server{
		address:        cfg.EndpointAddrHTTP,
		logger:         l.With("module", "http_server"),
		svc:            svc,
		live:           live,
		jwtSecret:      []byte(cfg.SecretKey),
		corsOrigins:    cfg.CORSOrigins,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Handler builds the gin engine with every route mounted under /api.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = s.maxUploadBytes
	r.Use(s.requestLogger(), s.recovery())
	r.Use(cors.New(corsConfig(s.corsOrigins)))

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	s.authRoutes(api)
	s.productRoutes(api)
	s.cartRoutes(api)
	s.orderRoutes(api)
	s.adminRoutes(api)

	r.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"message": "route not found"}) })
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parsePrice(field, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, badRequest("%s must be a number", field)
	}
	return d, nil
}
