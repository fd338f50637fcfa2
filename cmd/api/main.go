package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/issue-triage-service/internal/api/http"
	"github.com/spec-kit/issue-triage-service/internal/api/http/handlers"
	"github.com/spec-kit/issue-triage-service/internal/auth"
	"github.com/spec-kit/issue-triage-service/internal/config"
	"github.com/spec-kit/issue-triage-service/internal/events"
	"github.com/spec-kit/issue-triage-service/internal/observability"
	"github.com/spec-kit/issue-triage-service/internal/persistence"
	"github.com/spec-kit/issue-triage-service/internal/repository"
	"github.com/spec-kit/issue-triage-service/internal/service"
	"github.com/spec-kit/issue-triage-service/internal/triage"
	"github.com/spec-kit/issue-triage-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	recentCache := repository.NewRecentTitleCache(redis.Client, cfg.SLA.RecentWindow())

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	evaluator := triage.Evaluator{
		OpenWindow:     cfg.SLA.OpenWindow(),
		AssignedWindow: cfg.SLA.AssignedWindow(),
	}
	detector := triage.Detector{
		MinTitleLength: cfg.SLA.DuplicateMinTitle,
		Threshold:      cfg.SLA.DuplicateThreshold,
	}

	var uploader service.EvidenceUploader
	if attachments, err := service.NewAttachmentService(cfg.Cloudinary); err != nil {
		logger.Warn("evidence upload disabled", zap.Error(err))
	} else {
		uploader = attachments
	}

	authService := service.NewAuthService(*cfg, userRepo)
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:    issueRepo,
		RecentCache:  recentCache,
		Ledger:       triage.Ledger{Evaluator: evaluator},
		Detector:     detector,
		RecentWindow: cfg.SLA.RecentWindow(),
		Uploader:     uploader,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})

	var narrator service.Narrator
	if openAI := service.NewOpenAINarrator(cfg.Summary); openAI != nil {
		narrator = openAI
	} else {
		logger.Info("narrative summaries disabled, reports will carry statistics only")
	}
	reportService := service.NewReportService(issueRepo, evaluator, narrator, logger, nil)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Admin:          handlers.NewAdminHandler(issueService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	notificationService.UnregisterHandlers()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
