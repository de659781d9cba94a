package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/audit"
	auditPostgres "github.com/frahmantamala/admin-console/internal/audit/postgres"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/core/events"
	"github.com/frahmantamala/admin-console/internal/session"
	sessionPostgres "github.com/frahmantamala/admin-console/internal/session/postgres"
	"github.com/frahmantamala/admin-console/internal/transport"
	"github.com/frahmantamala/admin-console/internal/transport/middleware"
	"github.com/frahmantamala/admin-console/internal/transport/rest"
	"github.com/frahmantamala/admin-console/internal/workspace"
	"github.com/frahmantamala/admin-console/pkg/logger"
)

// janitorInterval is how often idle workspaces and expired sessions are
// cleaned up.
const janitorInterval = time.Minute

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the console HTTP API`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Client   *backend.Client
	Bus      *events.EventBus
	Sessions *session.Manager
	Registry *workspace.Registry
	Logger   *slog.Logger
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := setupRoutes(ctx, deps); err != nil {
		return err
	}

	go deps.Registry.Run(ctx, janitorInterval, func(ctx context.Context) {
		n, err := deps.Sessions.PurgeExpired(ctx)
		if err != nil {
			deps.Logger.Error("session purge failed", "error", err)
			return
		}
		if n > 0 {
			deps.Logger.Info("purged expired sessions", "count", n)
		}
	})

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("Starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		deps.Logger.Info("Received signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Registry.CloseAll()
	deps.Bus.Wait()
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}

	deps.Logger.Info("Server stopped")
	return runErr
}

func setupRoutes(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config
	base := transport.NewBaseHandler(deps.Logger)

	auditService := audit.NewService(auditPostgres.NewAuditRepository(deps.DB), deps.Logger)
	auditService.Subscribe(deps.Bus)

	routerCfg := rest.RouterConfig{
		AllowedOrigins: cfg.Server.Origins(),
		OpenAPIPath:    cfg.Server.OpenAPIPath,
	}
	doc, err := middleware.LoadOpenAPI(ctx, cfg.Server.OpenAPIPath)
	if err != nil {
		deps.Logger.Warn("request validation disabled", "error", err)
	} else {
		validator, err := middleware.OpenAPIValidator(doc, deps.Logger)
		if err != nil {
			return err
		}
		routerCfg.Validator = validator
	}

	health := rest.NewHealthHandler(map[string]rest.Check{
		"database": deps.DB.PingContext,
		"backend":  deps.Client.Ping,
	})

	rest.RegisterAllRoutes(deps.Router, routerCfg, rest.Handlers{
		Health:    health,
		Session:   session.NewHandler(base, deps.Sessions),
		Workspace: workspace.NewHandler(base, deps.Registry),
		Audit:     audit.NewHandler(base, auditService),
	}, deps.Logger)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	lg := logger.LoggerWrapper()

	sqlDB, gormDB, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client := backend.NewClient(backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}, lg)
	sessions := session.NewManager(
		sessionPostgres.NewSessionRepository(gormDB),
		client,
		session.NewSealer(cfg.Security.SessionSecret),
		session.Config{
			AccessTTL:   cfg.Session.AccessTTL,
			RefreshTTL:  cfg.Session.RefreshTTL,
			RefreshPath: cfg.Backend.RefreshPath,
		},
		lg,
	)

	bus := events.NewEventBus(lg)
	registry := workspace.NewRegistry(
		workspace.NewFactory(client, sessions, bus, cfg.Console, lg),
		cfg.Session.IdleTimeout,
		lg,
	)
	sessions.OnEnd(registry.Drop)

	return &Dependencies{
		Config:   cfg,
		DB:       sqlDB,
		Router:   chi.NewRouter(),
		Client:   client,
		Bus:      bus,
		Sessions: sessions,
		Registry: registry,
		Logger:   lg,
	}, nil
}
