package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/email-approval/internal/api/http"
	"github.com/spec-kit/email-approval/internal/api/http/handlers"
	"github.com/spec-kit/email-approval/internal/auth"
	"github.com/spec-kit/email-approval/internal/config"
	"github.com/spec-kit/email-approval/internal/engine"
	"github.com/spec-kit/email-approval/internal/events"
	"github.com/spec-kit/email-approval/internal/lock"
	"github.com/spec-kit/email-approval/internal/notify"
	"github.com/spec-kit/email-approval/internal/observability"
	"github.com/spec-kit/email-approval/internal/persistence"
	"github.com/spec-kit/email-approval/internal/repository"
	"github.com/spec-kit/email-approval/internal/worker"
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
	accountRepo := repository.NewAccountRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	transport := notify.NewTransport(cfg.Notification, logger)
	notifier := notify.NewConfirmationNotifier(transport, accountRepo, ticketRepo, dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifier)

	var locker lock.AccountLocker
	if cfg.Workflow.AccountLeaseEnabled && redis.Client != nil {
		locker = lock.NewRedisAccountLocker(redis.Client, cfg.Workflow.AccountLeaseTTL(), logger)
	}

	interceptor := engine.NewChangeRequestInterceptor(engine.InterceptorDependencies{
		Guard:       engine.NewReentrancyGuard(cfg.Workflow.AccountTriggerDepth),
		AccountRepo: accountRepo,
		TicketRepo:  ticketRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		Category:    cfg.Workflow.TicketCategory,
	})
	resolver := engine.NewTicketConfirmationResolver(engine.ResolverDependencies{
		Guard:       engine.NewReentrancyGuard(cfg.Workflow.TicketTriggerDepth),
		AccountRepo: accountRepo,
		TicketRepo:  ticketRepo,
		Dispatcher:  dispatcher,
		Locker:      locker,
		Metrics:     metrics,
		Logger:      logger,
		Category:    cfg.Workflow.TicketCategory,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.HostTokenTTLMinutes)
	authMiddleware := auth.NewHostAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	eventsHandler := handlers.NewEventsHandler(interceptor, resolver, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Events:         eventsHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
