package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/config"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/dbutil"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/extraction"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/httpapi"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/logging"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/notifier"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/objectstore"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/orchestrator"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/password"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/progress"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/queue"
)

func main() {
	bootstrapLogger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		TimeFormat:      time.RFC3339,
	})

	provider, err := config.Load(".envvar-service1")
	if err != nil {
		bootstrapLogger.Error("failed to load configuration", "error", err)
		panic(errors.Wrap(err, "load configuration"))
	}
	settings := config.LoadSettings(provider)

	factory := logging.NewFactory(settings.ComponentLogLevels)
	logger := factory.ForService("main")

	db, err := dbutil.Connect(dbutil.Config{
		Host:     settings.PostgresHost,
		Database: settings.PostgresDatabase,
		User:     settings.PostgresUser,
		Password: settings.PostgresPassword,
		Port:     settings.PostgresPort,
	}, factory.ForRepository("queue_store"))
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		panic(errors.Wrap(err, "connect to postgres"))
	}

	ctx := context.Background()
	store, err := objectstore.New(ctx, settings.Service1OutputRoot)
	if err != nil {
		logger.Error("failed to initialize object store", "error", err)
		panic(errors.Wrap(err, "initialize object store"))
	}

	queueStore := queue.New(db.DB, factory.ForRepository("queue_store"))
	resolver := password.NewResolver(settings.DefaultPDFPassword)
	tracker := progress.NewTracker()

	ocrEngine := newOCREngine(factory.ForExtractor("ocr_tesseract"))
	engine := extraction.New(&extraction.FitzEngine{}, ocrEngine, settings.MinTextLength, settings.MaxPages, factory.ForExtractor("extraction_engine"))

	notif := notifier.New(
		settings.Service2Enabled,
		settings.Service2BaseURL,
		settings.Service2Endpoint,
		settings.Service2Timeout,
		factory.ForClient("downstream_notifier"),
	)

	orch := orchestrator.New(
		queueStore,
		store,
		engine,
		resolver,
		tracker,
		notif,
		settings.DatalakeRoot,
		settings.Service1OutputRoot,
		settings.BatchWorkerLimit,
		factory.ForWorker("batch_orchestrator"),
	)

	server := httpapi.New(orch, tracker, factory.ForHandler("http_api"))

	httpServer := &http.Server{
		Addr:    ":" + settings.HTTPPort,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("starting document text extraction service", "address", "http://localhost:"+settings.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			panic(errors.Wrap(err, "run http server"))
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	<-signalChan
	logger.Info("document text extraction service shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}

// newOCREngine builds the tesseract OCR fallback, degrading to no OCR
// (primary-only extraction) when the tesseract binary is not on PATH.
// Availability does not check for pdftoppm; without it each OCR attempt
// fails at rasterization and the page is recorded as failed.
func newOCREngine(logger *log.Logger) *extraction.TesseractEngine {
	eng := &extraction.TesseractEngine{
		Rasterizer: &extraction.PopplerRasterizer{Binary: "pdftoppm"},
		Binary:     "tesseract",
	}
	if !eng.Available() {
		logger.Warn("tesseract not found on PATH; OCR fallback disabled")
	}
	return eng
}
