package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/api"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/config"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/courses"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/database"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/jobs"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/llm"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/observability"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/partition"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/pipeline"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/progress"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/storage"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/structure"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/worker"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName     = "ocf-coursegen"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	appLog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, appLog, observability.TracingConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     serviceVersion,
		Enabled:     cfg.OTelEnabled,
	})
	if err != nil {
		appLog.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Initialize storage
	storageBackend, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		appLog.Fatalf("Failed to initialize storage: %v", err)
	}
	storageService := storage.NewStorageService(storageBackend)

	// Connect to database
	db, err := database.Connect(cfg.Database, cfg.LogLevel)
	if err != nil {
		appLog.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		appLog.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services
	caps := jobs.Capabilities{ProgressStage: true, QualityFields: cfg.Pipeline.StoreQualityFields}
	jobService := jobs.NewJobServiceImpl(jobs.NewJobRepository(db.DB, caps), cfg.Pipeline.DefaultTier, appLog)
	courseService := courses.NewCourseService(courses.NewCourseRepository(db.DB, caps), appLog)

	completer := llm.NewClient(cfg.LLM, appLog)
	generator := pipeline.New(completer, partition.Options{
		TargetSize: cfg.Pipeline.ChunkSize,
		Overlap:    cfg.Pipeline.ChunkOverlap,
	}, appLog)
	extractor := structure.NewExtractor(completer, cfg.Pipeline.HeuristicPages, appLog)

	processor := worker.NewJobProcessor(jobService, courseService, storageService, generator, worker.ProcessorConfig{
		MinTextLength:     cfg.Worker.MinTextLength,
		ErrorMessageLimit: cfg.Worker.ErrorMessageLimit,
		FreeTiers:         cfg.Pipeline.FreeTiers,
		SaveJobLogs:       cfg.Worker.SaveJobLogs,
		ExportCourses:     cfg.Worker.ExportCourses,
	}, appLog)

	hub := progress.NewHub()
	scheduler := worker.NewScheduler(jobService, processor, hub, cfg.Worker.PollInterval, appLog)
	cleanupService := jobs.NewCleanupService(jobService, cfg.CleanupInterval, cfg.JobMaxAge, appLog)

	router := api.SetupRouter(api.Services{
		Jobs:      jobService,
		Courses:   courseService,
		Storage:   storageService,
		Extractor: extractor,
		Scheduler: scheduler,
		Hub:       hub,
	}, api.RouterConfig{
		Environment:   cfg.Environment,
		Version:       serviceVersion,
		MaxUploadSize: cfg.Pipeline.MaxUploadSize,
	}, appLog)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	appLog.Infof("Starting %s on port %s", serviceName, cfg.Port)
	appLog.Infof("Database: %s", cfg.Database.Driver)
	appLog.Infof("Storage type: %s", cfg.Storage.Type)
	if cfg.Storage.Type == "filesystem" {
		appLog.Infof("Storage path: %s", cfg.Storage.BasePath)
	}
	appLog.Infof("AI model: %s", cfg.LLM.Model)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		cleanupService.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLog.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLog.Errorf("Server stopped with error: %v", err)
		return
	}
	appLog.Info("Server shutdown complete")
}
