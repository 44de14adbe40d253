package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkraev/dockeep/internal/config"
	"github.com/mkraev/dockeep/internal/documents"
	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/internal/storage"
	"github.com/mkraev/dockeep/internal/users"
)

// App wires storage, the stores, and the HTTP server into a runnable unit.
type App struct {
	config  *config.ServerConfig
	logger  logging.Logger
	backend storage.Backend
	handler *Handler
}

func NewApp(ctx context.Context, c *config.ServerConfig) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	backend, err := storage.Open(ctx, storage.Config{
		PostgresDSN: c.DatabaseDSN,
		SQLitePath:  c.SQLitePath,
	}, logger)
	if err != nil {
		return nil, err
	}

	handler := NewHandler(users.New(backend), documents.New(backend),
		[]byte(c.SecretKey), c.TokenValidityDuration, logger)

	return &App{config: c, logger: logger, backend: backend, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until the context is cancelled or a termination signal
// arrives, then shuts down gracefully and closes the storage backend.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.HTTPAddr,
		Handler: app.handler.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting HTTP server", "addr", app.config.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.backend.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	app.logger.Info(ctx, "shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown incomplete", "error", err)
	}
	return app.backend.Close()
}
