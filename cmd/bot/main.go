package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/aftercare-bot/internal/api/http"
	"github.com/spec-kit/aftercare-bot/internal/api/http/handlers"
	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/config"
	"github.com/spec-kit/aftercare-bot/internal/events"
	"github.com/spec-kit/aftercare-bot/internal/observability"
	"github.com/spec-kit/aftercare-bot/internal/persistence"
	"github.com/spec-kit/aftercare-bot/internal/repository"
	"github.com/spec-kit/aftercare-bot/internal/service"
	"github.com/spec-kit/aftercare-bot/internal/telegram"
	"github.com/spec-kit/aftercare-bot/internal/worker"
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
	appointmentRepo := repository.NewAppointmentRepository(pool)

	state := appstate.New(appstate.Options{
		MainAdminID: cfg.Telegram.MainAdminID,
		MaxAdmins:   cfg.Access.MaxAdmins,
		OpenHour:    cfg.Worktime.OpenHour,
		CloseHour:   cfg.Worktime.CloseHour,
	})
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	bot, err := telegram.New(cfg.Telegram.Token, logger)
	if err != nil {
		logger.Fatal("failed to authorize bot", zap.Error(err))
	}

	userService := service.NewUserService(userRepo, logger)
	questionService := service.NewQuestionService(userRepo, dispatcher, logger)
	appointmentService := service.NewAppointmentService(userRepo, appointmentRepo, dispatcher, logger)
	analyticsService := service.NewAnalyticsService(userRepo, appointmentRepo, logger)
	backupService := service.NewBackupService(userRepo, appointmentRepo, cfg.Export, logger)
	accessService := service.NewAccessService(userRepo, state, logger)
	broadcastService := service.NewBroadcastService(service.BroadcastDependencies{
		UserRepo:   userRepo,
		State:      state,
		Sender:     bot,
		Dispatcher: dispatcher,
		Logger:     logger,
		Config:     cfg.Broadcast,
	})
	conversation := service.NewConversation(service.ConversationDependencies{
		Users:        userService,
		Questions:    questionService,
		Appointments: appointmentService,
		Broadcasts:   broadcastService,
		Access:       accessService,
		State:        state,
		Sender:       bot,
		Logger:       logger,
	})
	notificationService := service.NewNotificationService(dispatcher, bot, state, cfg.Telegram.MainAdminID, logger)

	if err := accessService.Load(ctx); err != nil {
		logger.Fatal("failed to load admin roster", zap.Error(err))
	}
	worker.StartNotificationWorker(notificationService)

	router := telegram.NewRouter(telegram.RouterDependencies{
		Bot:          bot,
		Users:        userService,
		Conversation: conversation,
		Broadcasts:   broadcastService,
		Access:       accessService,
		Analytics:    analyticsService,
		Appointments: appointmentService,
		Backup:       backupService,
		State:        state,
		Metrics:      metrics,
		Dedupe:       telegram.NewDedupe(redis.Client, logger),
		Logger:       logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 30*time.Second)

	routeCfg := httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Export: handlers.NewExportHandler(backupService),
	}
	if cfg.Telegram.WebhookURL != "" {
		routeCfg.Webhook = handlers.NewWebhookHandler(router, logger)
	}
	httptransport.RegisterRoutes(app, routeCfg)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	if cfg.Telegram.WebhookURL != "" {
		logger.Info("running in webhook mode", zap.String("url", cfg.Telegram.WebhookURL))
	} else {
		go router.Run(ctx, cfg.Telegram.PollTimeoutSeconds)
	}

	waitForShutdown(logger)

	cancel()
	broadcastService.Wait()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
