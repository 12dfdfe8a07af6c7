package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sim-sync/internal/handler"
	"sim-sync/internal/repository"
	"sim-sync/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulated list API",
	Long: `Run an in-memory list API that owns games, lists and items and
maintains each game's aggregate list, for development and tests.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	authService := service.NewAuthService(cfg.Auth.Secret, cfg.Auth.Expiration, cfg.Auth.RefreshTokenExpiration)
	router := handler.NewRouter(repository.NewMemoryInventoryRepository(), authService, handler.RouterConfig{
		JWTSecret: cfg.Auth.Secret,
		CORS:      cfg.CORS,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Str("env", cfg.Server.Env).Msg("starting simulated list API")
	return serveUntilSignal(srv)
}

// serveUntilSignal runs srv until SIGINT or SIGTERM, then shuts it down.
func serveUntilSignal(srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}
