package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/murmur/internal/auth/http"
	"github.com/aussiebroadwan/murmur/internal/auth/observability"
	"github.com/aussiebroadwan/murmur/internal/auth/service"
	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/murmur/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the murmur service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	metrics *observability.Metrics

	// Services
	credentialService   *service.CredentialService
	sessionService      *service.SessionService
	tokenService        *service.APITokenService
	userService         *service.UserService
	followService       *service.FollowService
	resetService        *service.ResetService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "murmur",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg),
		metrics: observability.NewMetrics(),
	}

	db, err := OpenStore(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := app.initServices(); err != nil {
		_ = db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("murmur starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down murmur...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("murmur stopped")
	return nil
}

// Handler exposes the routed handler, for tests and embedding.
func (app *Application) Handler() http.Handler { return app.router }

// OpenStore connects to Postgres when cfg.DatabaseURL is set and to the
// SQLite file otherwise, then applies pending migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db     store.Store
		driver string
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.NewStore(ctx, cfg.DatabaseURL, postgres.DefaultConnectOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		db, driver = pg, "postgres"
	} else {
		dsn := sqliteDSN(cfg.DatabaseFile)
		lite, err := sqlite.NewStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db, driver = lite, "sqlite"
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", driver)
	return db, nil
}

func sqliteDSN(file string) string {
	if file == ":memory:" || strings.HasPrefix(file, "file:") {
		return file
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", file)
}

// NewCredentialService wires the password hasher for cfg. The CLI uses it to
// create accounts without starting the server.
func NewCredentialService(cfg Config, db store.Store) (*service.CredentialService, error) {
	hasher, err := NewHasher(cfg)
	if err != nil {
		return nil, err
	}
	return &service.CredentialService{Store: db, Hasher: hasher}, nil
}

// NewUserService wires registration and profile edits over db.
func NewUserService(creds *service.CredentialService, db store.Store, metrics *observability.Metrics) *service.UserService {
	return &service.UserService{
		Store:       db,
		Credentials: creds,
		Guard:       &service.Guard{Metrics: metrics},
	}
}

func (app *Application) initServices() error {
	creds, err := NewCredentialService(app.cfg, app.db)
	if err != nil {
		return err
	}
	app.credentialService = creds

	signer, verifier, err := InitResetKeys(app.cfg, app.logger)
	if err != nil {
		return err
	}

	redirects, err := service.NewRedirectPolicy(service.DefaultRedirect, app.cfg.RedirectAllow...)
	if err != nil {
		return fmt.Errorf("invalid MURMUR_REDIRECT_ALLOW: %w", err)
	}

	app.userService = NewUserService(creds, app.db, app.metrics)
	app.followService = &service.FollowService{
		Store: app.db,
		Users: app.userService,
		Guard: app.userService.Guard,
	}
	app.sessionService = &service.SessionService{
		Store:       app.db,
		Credentials: creds,
		Redirects:   redirects,
		Metrics:     app.metrics,
		SessionTTL:  app.cfg.SessionTTL,
		RememberTTL: app.cfg.RememberTTL,
	}
	app.tokenService = &service.APITokenService{
		Store:     app.db,
		Metrics:   app.metrics,
		TTL:       app.cfg.APITokenTTL,
		Freshness: app.cfg.APITokenFreshness,
	}
	app.resetService = &service.ResetService{
		Store:       app.db,
		Credentials: creds,
		Signer:      signer,
		Verifier:    verifier,
		Mailer:      service.LogMailer{Logger: app.logger, ShowLinks: app.cfg.Env == "dev"},
		Metrics:     app.metrics,
		Issuer:      app.cfg.Issuer,
		TTL:         app.cfg.ResetTokenTTL,
		BaseURL:     app.cfg.BaseURL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	app.housekeepingService.Metrics = app.metrics

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.metrics,
		app.cfg.RateLimits,
		httpapi.CookieConfig{
			SessionName: app.cfg.SessionCookie,
			Secure:      app.cfg.SecureCookies(),
		},
		app.logger,
	)

	router.CredentialService = app.credentialService
	router.SessionService = app.sessionService
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.FollowService = app.followService
	router.ResetService = app.resetService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
