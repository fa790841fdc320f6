package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/config"
	"github.com/ekaya-inc/askdb/pkg/handlers"
	"github.com/ekaya-inc/askdb/pkg/mcp"
	"github.com/ekaya-inc/askdb/pkg/middleware"
	"github.com/ekaya-inc/askdb/pkg/repositories"
	"github.com/ekaya-inc/askdb/pkg/services"
)

const shutdownGrace = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and MCP endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting askdb",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("projects_file", cfg.ProjectsFile),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	projects, err := repositories.NewFileProjectRepository(cfg.ProjectsFile)
	if err != nil {
		return err
	}

	db, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(cfg, projects, repositories.NewResponseRepository(db), logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           newRouter(cfg, pipeline, db, logger),
		ReadHeaderTimeout: 10 * time.Second,
		// One answer may wait on two model calls and a query.
		WriteTimeout: 2*cfg.Pipeline.LLMTimeout + cfg.Pipeline.ExecutionTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr), zap.Bool("tls", cfg.TLSCertPath != ""))
		if cfg.TLSCertPath != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newRouter mounts the API, MCP, health and metrics endpoints. cache may be
// nil.
func newRouter(cfg *config.Config, pipeline services.PipelineService, cache handlers.Pinger, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, cache, logger).RegisterRoutes(mux)
	handlers.NewAskHandler(pipeline, logger).RegisterRoutes(mux)
	handlers.NewMCPHandler(mcp.NewServer(cfg.Version, pipeline, logger), logger.Named("mcp")).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.Recoverer(logger)(middleware.RequestLogger(logger)(mux))
}
