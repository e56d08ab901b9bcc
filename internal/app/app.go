package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"taxdoc/apps/processor/features/failedevent"
	"taxdoc/apps/processor/internal/adapter/gateway"
	"taxdoc/apps/processor/internal/adapter/jobapi"
	"taxdoc/apps/processor/internal/audit"
	"taxdoc/apps/processor/internal/config"
	"taxdoc/apps/processor/internal/extract"
	"taxdoc/apps/processor/internal/middleware"
	"taxdoc/apps/processor/internal/worker"
)

// Database is satisfied by *sql.DB. Declared as an interface so tests can
// pass a sqlmock connection through the same signature.
type Database interface {
	PingContext(ctx context.Context) error
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler    http.Handler
	Dispatcher *worker.Dispatcher
}

func New(
	cfg *config.Config,
	db Database,
	fetcher extract.Fetcher,
	secrets gateway.SecretResolver,
	taskPub TaskPublisher,
	logger *slog.Logger,
) (*App, error) {

	// Cast db to *sql.DB for the repositories that require it.
	sqlDB := db.(*sql.DB)

	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	// Pipeline dependencies
	jobs := jobapi.NewClient(cfg.JobAPIBaseURL, timeout)
	gw := gateway.NewClient(cfg.ExternalAPIBaseURL, secrets, timeout)
	engine := extract.NewEngine(fetcher, extract.ExecRunner(), extract.Config{
		Pdftotext: cfg.Pdftotext,
		Pdftk:     cfg.Pdftk,
	})
	orch := worker.NewOrchestrator(jobs, engine, gw)

	// Dead-letter store
	deadLetters := failedevent.NewPostgresRepo(sqlDB)

	auditLog, err := audit.NewFileLogger(cfg.AuditLogPath)
	if err != nil {
		slog.Warn("failed to create audit log file, falling back to stdout", "error", err)
		auditLog = audit.NewLogger(os.Stdout)
	}

	dispatcher := worker.NewDispatcher(orch, taskPub, deadLetters, auditLog, cfg.UploadPrefix)

	// Feature: FailedEvent
	feService := failedevent.NewService(deadLetters, taskPub)
	feHandler := failedevent.NewHandler(feService)

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /events/failed", middleware.CorrelationID(http.HandlerFunc(feHandler.List)))
	mux.Handle("POST /events/{id}/retry", middleware.CorrelationID(http.HandlerFunc(feHandler.Retry)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:    mux,
		Dispatcher: dispatcher,
	}, nil
}

func (a *App) Run(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
