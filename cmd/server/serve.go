// cmd/server/serve.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Annany2002/nebula-dq/api"
	"github.com/Annany2002/nebula-dq/api/middleware"
	"github.com/Annany2002/nebula-dq/config"
	"github.com/Annany2002/nebula-dq/internal/metrics"
	"github.com/Annany2002/nebula-dq/internal/storage"
	"github.com/Annany2002/nebula-dq/internal/testcase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Reference data is read from the local sqlite catalog unless CATALOG_URL
points at a remote catalog.

Examples:
  nebula-dq serve
  nebula-dq serve --sweep-interval 30s`,
	RunE: runServe,
}

var (
	sweepInterval   time.Duration
	shutdownTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", time.Minute, "How often idle forms are swept")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	customLog.Println("Starting nebula-dq server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var catalogDB *sql.DB
	if !cfg.UsesRemoteCatalog() {
		catalogDB, err = storage.ConnectCatalogDB(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize catalog database: %w", err)
		}
		defer func() {
			customLog.Println("Closing catalog database connection...")
			if err := catalogDB.Close(); err != nil {
				customLog.Printf("Error closing catalog database: %v", err)
			}
		}()
	}

	deps := api.Deps{
		Registry:    testcase.NewRegistry(),
		Metrics:     metrics.NewMetrics(),
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
	}
	router, err := api.SetupRouter(catalogDB, cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customLog.Printf("Server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		customLog.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		sweepForms(gctx, deps, cfg.FormIdleTimeout)
		return nil
	})

	return g.Wait()
}

// sweepForms drops idle forms and stale rate-limit buckets until ctx ends.
func sweepForms(ctx context.Context, deps api.Deps, maxIdle time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := deps.Registry.Sweep(now, maxIdle); n > 0 {
				customLog.Infof("Swept %d idle forms", n)
				for range n {
					deps.Metrics.RecordFormOutcome(metrics.OutcomeExpired)
				}
			}
			deps.Metrics.SetFormsOpen(deps.Registry.Len())
			deps.RateLimiter.Prune()
		}
	}
}
