package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/session"
	sessionPostgres "github.com/frahmantamala/admin-console/internal/session/postgres"
	"github.com/frahmantamala/admin-console/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start maintenance workers that run next to, or instead of, the HTTP server.`,
}

// Session purge worker command
var sessionWorkerCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Purge expired console sessions",
	Long:  `Delete sessions whose refresh token has expired, once or on an interval`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startSessionWorker(cmd.Context())
	},
}

var (
	purgeEvery time.Duration
	purgeOnce  bool
)

func startSessionWorker(ctx context.Context) error {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	lg := logger.LoggerWrapper()

	sqlDB, gormDB, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// The purge never reaches the backend; the client only satisfies the
	// manager's refresh dependency.
	client := backend.NewClient(backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}, lg)
	sessions := session.NewManager(
		sessionPostgres.NewSessionRepository(gormDB),
		client,
		session.NewSealer(cfg.Security.SessionSecret),
		session.Config{AccessTTL: cfg.Session.AccessTTL, RefreshTTL: cfg.Session.RefreshTTL, RefreshPath: cfg.Backend.RefreshPath},
		lg,
	)

	purge := func(ctx context.Context) {
		n, err := sessions.PurgeExpired(ctx)
		if err != nil {
			lg.Error("session purge failed", "error", err)
			return
		}
		lg.Info("expired sessions purged", "count", n)
	}

	if purgeOnce {
		purge(ctx)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("session worker is running. Press Ctrl+C to stop.", "every", purgeEvery)

	ticker := time.NewTicker(purgeEvery)
	defer ticker.Stop()

	purge(ctx)
	for {
		select {
		case <-ctx.Done():
			lg.Info("session worker shutdown complete")
			return nil
		case <-ticker.C:
			purge(ctx)
		}
	}
}

func init() {
	sessionWorkerCmd.Flags().DurationVar(&purgeEvery, "every", 10*time.Minute, "interval between purges")
	sessionWorkerCmd.Flags().BoolVar(&purgeOnce, "once", false, "purge once and exit")

	workerCmd.AddCommand(sessionWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
