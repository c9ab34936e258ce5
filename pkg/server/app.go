package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockMind/internal/scheduler"
	"StockMind/internal/usecase"
	pkgch "StockMind/pkg/clickhouse"
	"StockMind/pkg/config"
	xhttp "StockMind/pkg/http"
	pkgkafka "StockMind/pkg/kafka"
	applogger "StockMind/pkg/logger"
	"StockMind/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	sched       *scheduler.Scheduler
	jobQueue    *queue.RedisQueue
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	stream      *usecase.StreamCollector
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	sched *scheduler.Scheduler,
	jobQueue *queue.RedisQueue,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	stream *usecase.StreamCollector,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		sched:    sched,
		jobQueue: jobQueue,
		consumer: consumer,
		kh:       kh,
		stream:   stream,
		chClient: chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start job queue workers before the scheduler so the first tick
	// has somewhere to go.
	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			a.log.Error("job queue start error", applogger.Error(err))
			return err
		}
		a.jobQueue.StartRetryProcessor()
		a.log.Info("job queue started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	if a.sched != nil {
		a.sched.Start()
		a.log.Info("scheduler started", applogger.Strings("symbols", a.cfg.Symbols))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start realtime stream collector if configured
	if a.stream != nil {
		go func() {
			if err := a.stream.Start(ctx); err != nil {
				a.log.Error("stream collector error", applogger.Error(err))
			}
		}()
		a.log.Info("stream collector started")
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop producing new work first
	if a.sched != nil {
		a.sched.Stop(shutdownCtx)
	}

	if a.stream != nil {
		if err := a.stream.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("stream collector stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			a.log.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
