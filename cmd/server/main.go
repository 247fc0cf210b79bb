package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/infrastructure/config"
	"github.com/finaudit/backend/internal/infrastructure/event"
	"github.com/finaudit/backend/internal/infrastructure/extraction"
	"github.com/finaudit/backend/internal/infrastructure/lock"
	applogger "github.com/finaudit/backend/internal/infrastructure/logger"
	"github.com/finaudit/backend/internal/infrastructure/mail"
	"github.com/finaudit/backend/internal/infrastructure/persistence"
	"github.com/finaudit/backend/internal/infrastructure/printing"
	"github.com/finaudit/backend/internal/infrastructure/scheduler"
	"github.com/finaudit/backend/internal/infrastructure/storage"
	"github.com/finaudit/backend/internal/infrastructure/telemetry"
	"github.com/finaudit/backend/internal/interfaces/http/handler"
	"github.com/finaudit/backend/internal/interfaces/http/middleware"
	"github.com/finaudit/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = applogger.Sync(log)
	}()

	log.Info("Starting audit backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	// Connect to the database
	gormLogger := applogger.NewGormLogger(log, applogger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Repositories
	institutionRepo := persistence.NewGormInstitutionRepository(db.DB)
	caseRepo := persistence.NewGormAuditCaseRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	certificateRepo := persistence.NewGormCertificateRepository(db.DB)

	// Object storage for submissions, certificates, and quarantined mail
	var store auditapp.ObjectStorageService
	if cfg.Storage.AccessKey != "" {
		s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		store = s3Store
	} else {
		log.Warn("No object storage credentials configured, documents are kept in memory")
		store = storage.NewMemoryObjectStorage()
	}

	// Case locking, shared across replicas when Redis is reachable
	var locker auditapp.CaseLocker
	redisLocker, err := lock.NewRedisCaseLocker(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, case locks are process local", zap.Error(err))
		locker = lock.NewKeyedMutex()
	} else {
		locker = redisLocker
	}

	// Figure extraction, remote engine when configured
	labelTable, err := extraction.LoadLabelTable(cfg.Verification.LabelTablePath)
	if err != nil {
		log.Fatal("Failed to load label table", zap.Error(err))
	}
	var extractor auditapp.Extractor
	if cfg.Verification.EngineURL != "" {
		var engineOpts []extraction.EngineOption
		if labelTable != nil {
			engineOpts = append(engineOpts, extraction.WithEngineLabelTable(labelTable))
		}
		engine, err := extraction.NewEngineClient(cfg.Verification.EngineURL, cfg.Verification.ExtractionTimeout, log, engineOpts...)
		if err != nil {
			log.Fatal("Failed to initialize extraction engine client", zap.Error(err))
		}
		extractor = engine
	} else {
		extractor = extraction.NewTextExtractorWithTable(labelTable, log)
	}

	// Certificate rendering
	chromeRenderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Certificate.RenderTimeout,
		RemoteURL:      cfg.Certificate.ChromeURL,
		NoSandbox:      true,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	certificateRenderer, err := printing.NewCertificateRenderer(chromeRenderer, &cfg.Certificate, log)
	if err != nil {
		log.Fatal("Failed to initialize certificate renderer", zap.Error(err))
	}

	tolerance, err := decimal.NewFromString(cfg.Verification.Tolerance)
	if err != nil {
		log.Fatal("Invalid verification tolerance",
			zap.String("tolerance", cfg.Verification.Tolerance),
			zap.Error(err))
	}

	// Application services
	institutionService := auditapp.NewInstitutionService(institutionRepo)
	importService := auditapp.NewInstitutionImportService(institutionRepo, log)
	caseService := auditapp.NewCaseService(caseRepo, institutionRepo, locker)
	intakeService := auditapp.NewIntakeService(caseRepo, documentRepo, store, locker, log, cfg.Intake.MaxDocumentSize)
	verificationService := auditapp.NewVerificationService(caseRepo, documentRepo, institutionRepo, store, extractor, locker, log, tolerance)
	certificateService := auditapp.NewCertificateService(caseRepo, certificateRepo, documentRepo, institutionRepo, store, certificateRenderer, locker, log)

	// Event bus drives the ingest -> verify -> issue pipeline
	eventBus := event.NewInMemoryEventBus(log)
	caseService.SetEventPublisher(eventBus)
	intakeService.SetEventPublisher(eventBus)
	verificationService.SetEventPublisher(eventBus)
	certificateService.SetEventPublisher(eventBus)

	ingestedHandler := auditapp.NewDocumentIngestedHandler(verificationService, log, cfg.Verification.MaxWorkers, cfg.Verification.ExtractionTimeout)
	eventBus.Subscribe(ingestedHandler, ingestedHandler.EventTypes()...)
	verifiedHandler := auditapp.NewCaseVerifiedHandler(certificateService, log)
	eventBus.Subscribe(verifiedHandler, verifiedHandler.EventTypes()...)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Re-queue documents stranded by a previous crash, then keep sweeping
	if n, err := verificationService.RecoverUnprocessed(ctx, cfg.Verification.RecoveryBatchSize); err != nil {
		log.Warn("Startup recovery sweep failed", zap.Error(err))
	} else if n > 0 {
		log.Info("Re-queued unprocessed documents", zap.Int("count", n))
	}
	recoveryScheduler := scheduler.NewRecoveryScheduler(scheduler.RecoverySchedulerConfig{
		BatchSize:  cfg.Verification.RecoveryBatchSize,
		JobTimeout: cfg.Verification.ExtractionTimeout,
	}, verificationService, log)
	recoveryScheduler.Start(ctx)

	// Mailbox poller
	var mailSource *mail.ImapSource
	if cfg.Mail.Enabled {
		mailSource = mail.NewImapSource(cfg.Mail, log)
		mailPoller := auditapp.NewMailPollService(mailSource, institutionRepo, caseRepo, intakeService, store, log, cfg.Mail.PollInterval)
		go mailPoller.Start(ctx)
		log.Info("Mailbox polling enabled",
			zap.String("address", cfg.Mail.Address),
			zap.Duration("interval", cfg.Mail.PollInterval))
	}

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(middleware.RequestID())
	engine.Use(applogger.Recovery(log))
	engine.Use(applogger.GinMiddleware(log))
	engine.Use(middleware.Actor(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	router.Build(engine, router.Handlers{
		System:      handler.NewSystemHandler(),
		Institution: handler.NewInstitutionHandler(institutionService, importService),
		Case:        handler.NewAuditCaseHandler(caseService),
		Document:    handler.NewDocumentHandler(intakeService),
		Certificate: handler.NewCertificateHandler(certificateService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Stop background work, then drain in-flight extractions
	cancel()
	recoveryScheduler.Stop()
	ingestedHandler.Wait()
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus shutdown failed", zap.Error(err))
	}
	if mailSource != nil {
		if err := mailSource.Close(); err != nil {
			log.Error("Mailbox logout failed", zap.Error(err))
		}
	}
	if err := chromeRenderer.Close(); err != nil {
		log.Error("PDF renderer shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
