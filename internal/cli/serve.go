package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fuzzysuggest/internal/config"
	chiTransport "github.com/kailas-cloud/fuzzysuggest/internal/transport/chi"
	healthuc "github.com/kailas-cloud/fuzzysuggest/internal/usecase/health"
	recorduc "github.com/kailas-cloud/fuzzysuggest/internal/usecase/record"
	"github.com/kailas-cloud/fuzzysuggest/internal/usecase/suggest"
	"github.com/kailas-cloud/fuzzysuggest/internal/version"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		port      int
		provision bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the record API server",
		Long:  "Start the HTTP record API: record reads and writes, name search, session-aware suggest, health and metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.close()

			if port > 0 {
				a.cfg.HTTP.Port = port
			}
			// A memory catalog starts empty, so it always gets a namespace.
			if provision || a.cfg.Catalog.Driver == config.DriverMemory {
				if _, err := a.provisioner().Install(ctx, a.schema); err != nil {
					return err
				}
			}
			return runServe(ctx, a)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides http.port)")
	cmd.Flags().BoolVar(&provision, "provision", false, "Recreate the namespace before serving")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	logger := a.logger
	logger.Info("Starting fuzzysuggest API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.String("driver", a.cfg.Catalog.Driver),
		zap.String("namespace", a.namespace()),
	)

	sessions := suggest.NewSessions(a.suggester(), time.Duration(a.cfg.Suggest.SessionIdleTTLSec)*time.Second)
	go sessions.Run(ctx, 0)

	records := recorduc.New(a.store, sessions, a.namespace(),
		time.Duration(a.cfg.Ingest.VisibilityTimeoutSec)*time.Second)
	healthSvc := healthuc.New(a.store, a.store, a.namespace())

	server := chiTransport.NewServer(records, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{APIKeys: a.cfg.Auth.APIKeys}, logger)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
