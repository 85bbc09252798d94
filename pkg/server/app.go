package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
)

// Closer releases one infrastructure resource on shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	ingest     pkgkafka.MessageHandler
	closers    []Closer
}

// New creates a new App instance with all dependencies. consumer and ingest may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	ingest pkgkafka.MessageHandler,
) *App {
	return &App{cfg: cfg, l: l, httpServer: httpServer, consumer: consumer, ingest: ingest}
}

// OnShutdown registers resources closed in reverse order after the server and consumer stop.
func (a *App) OnShutdown(closers ...Closer) { a.closers = append(a.closers, closers...) }

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.l }

// Start brings up the consumer and the HTTP server without blocking.
func (a *App) Start(ctx context.Context) error {
	if a.consumer != nil && a.ingest != nil {
		a.consumer.RegisterHandler(a.ingest)
		if err := a.consumer.Start(ctx); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.l.Info("kafka ingest started", applogger.String("topic", a.ingest.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		a.l.Error("startup failed", applogger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.Shutdown(ctx)
}

// Shutdown gracefully stops all services.
func (a *App) Shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.httpServer.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
