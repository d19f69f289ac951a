package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/planner-api/api/swagger"
	"github.com/noah-isme/planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/planner-api/internal/middleware"
	"github.com/noah-isme/planner-api/internal/repository"
	"github.com/noah-isme/planner-api/internal/service"
	"github.com/noah-isme/planner-api/migrations"
	"github.com/noah-isme/planner-api/pkg/config"
	"github.com/noah-isme/planner-api/pkg/database"
	"github.com/noah-isme/planner-api/pkg/export"
	"github.com/noah-isme/planner-api/pkg/jobs"
	"github.com/noah-isme/planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/planner-api/pkg/notify"
	"github.com/noah-isme/planner-api/pkg/recurrence"
)

// @title Planner API
// @version 0.1.0
// @description Tasks, schedules and weekly classes with reminders
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := database.NewMigrator(db.DB, migrations.FS, logr)
		if err != nil {
			logr.Fatal("failed to prepare migrations", zap.Error(err))
		}
		if err := migrator.Up(ctx); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	loc := cfg.Reminders.Location()

	queue := jobs.NewQueue("reminders", jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		MaxRetries: cfg.Notify.Retries,
		RetryDelay: cfg.Notify.RetryDelay,
		Logger:     logr,
	})
	queue.Handle(service.ReminderFireJob, service.DeliverReminder(
		notify.NewMultiDispatcher(logr, metrics.NotificationDelivered, dispatchers(ctx, cfg, logr)...),
	))
	queue.Start(ctx)
	defer queue.Stop()

	notifier := notify.NewCronNotifier(loc, service.EnqueueDelivery(queue), logr)
	notifier.Start()
	defer notifier.Stop()

	taskRepo := repository.NewTaskRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	classRepo := repository.NewClassEntryRepository(db)

	ledger := service.NewReminderLedger(notifier, metrics, cfg.Reminders.CallTimeout, logr)
	expander := recurrence.NewExpander(time.UTC)
	validate := service.NewValidator()

	taskSvc := service.NewTaskService(taskRepo, ledger, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, ledger, validate, logr)
	classSvc := service.NewClassEntryService(classRepo, ledger, expander, cfg.Reminders.ClassEnabled, validate, logr)
	restoreCtx, cancelRestore := context.WithTimeout(ctx, 30*time.Second)
	service.RestoreReminders(restoreCtx, logr, taskSvc, scheduleSvc, classSvc)
	cancelRestore()

	agendaSvc := service.NewAgendaService(taskRepo, scheduleRepo, classRepo, expander, logr)
	exportSvc := service.NewExportService(agendaSvc, loc, logr, export.NewCSVExporter(), export.NewPDFExporter(), export.NewICalExporter(""))

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Time:        handler.NewTimeHandler(),
		Occurrences: handler.NewOccurrenceHandler(expander),
		Tasks:       handler.NewTaskHandler(taskSvc),
		Schedules:   handler.NewScheduleHandler(scheduleSvc),
		Classes:     handler.NewClassEntryHandler(classSvc),
		Agenda:      handler.NewAgendaHandler(agendaSvc, exportSvc),
		Metrics:     metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// dispatchers assembles the delivery channels enabled by configuration. The
// log dispatcher is always present.
func dispatchers(ctx context.Context, cfg *config.Config, logr *zap.Logger) []notify.Dispatcher {
	out := []notify.Dispatcher{notify.NewLogDispatcher(logr)}

	if cfg.Notify.RedisEnabled {
		client, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis dispatcher disabled", zap.Error(err))
		} else {
			out = append(out, notify.NewRedisDispatcher(client, cfg.Notify.RedisChannel))
		}
	}

	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		b, err := bot.New(cfg.Notify.TelegramToken)
		if err != nil {
			logr.Warn("telegram dispatcher disabled", zap.Error(err))
		} else {
			out = append(out, notify.NewTelegramDispatcher(b, cfg.Notify.TelegramChatID))
		}
	}
	return out
}
