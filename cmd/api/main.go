package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/realtydesk/realty-service/internal/api/http"
	"github.com/realtydesk/realty-service/internal/api/http/handlers"
	"github.com/realtydesk/realty-service/internal/auth"
	"github.com/realtydesk/realty-service/internal/config"
	"github.com/realtydesk/realty-service/internal/events"
	"github.com/realtydesk/realty-service/internal/invoice"
	"github.com/realtydesk/realty-service/internal/observability"
	"github.com/realtydesk/realty-service/internal/persistence"
	"github.com/realtydesk/realty-service/internal/repository"
	"github.com/realtydesk/realty-service/internal/service"
	"github.com/realtydesk/realty-service/internal/worker"
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
	customerRepo := repository.NewCustomerRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	enquiryRepo := repository.NewEnquiryRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	sequenceRepo := repository.NewSequenceRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(service.AuthDependencies{
		CustomerRepo: customerRepo,
		AgentRepo:    agentRepo,
		ResetRepo:    resetRepo,
		Tokens:       tokens,
		Config:       cfg.Auth,
	})
	customerService := service.NewCustomerService(customerRepo)
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		ProjectRepo:  projectRepo,
		EnquiryRepo:  enquiryRepo,
		CustomerRepo: customerRepo,
		AgentRepo:    agentRepo,
		Logger:       logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		AgentRepo:    agentRepo,
		SequenceRepo: sequenceRepo,
		Dispatcher:   dispatcher,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo:  paymentRepo,
		CustomerRepo: customerRepo,
		ProjectRepo:  projectRepo,
		SequenceRepo: sequenceRepo,
		Invoices:     invoice.NewTemplateRenderer(),
		Dispatcher:   dispatcher,
		Logger:       logger,
		Config:       cfg.Payments,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		TicketRepo:   ticketRepo,
		PaymentRepo:  paymentRepo,
		CustomerRepo: customerRepo,
		Cache:        redis.ClientHandle(),
		Logger:       logger,
		Config:       cfg.Stats,
		GracePeriod:  cfg.Payments.GracePeriod(),
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.NewSLASweep(ticketRepo, logger, cfg.Sweep).Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(tokens, customerRepo, agentRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Customers:      handlers.NewCustomersHandler(authService, customerService),
		Agents:         handlers.NewAgentsHandler(authService, agentRepo),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AgentTickets:   handlers.NewAgentTicketsHandler(ticketService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
