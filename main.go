package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venue-admin-backend/config"
	"venue-admin-backend/controllers"
	"venue-admin-backend/repository"
	"venue-admin-backend/routes"
	"venue-admin-backend/services"
)

const dispatchLockTTL = 5 * time.Minute

func main() {
	envLoaded := config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	if !envLoaded {
		logger.Info("No .env file found")
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDB(cfg.DBURL, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		if err := config.CloseDB(db); err != nil {
			logger.Warn("closing database failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reservations := repository.NewReservationRepository(db)
	schedules := repository.NewScheduleRepository(db)
	templates := repository.NewTemplateRepository(db)
	smsLogs := repository.NewSmsLogRepository(db)

	if cfg.SeedTemplates {
		if err := services.SeedTemplates(ctx, templates, logger); err != nil {
			logger.Error("template seeding failed", zap.Error(err))
		}
	}

	notifier := services.NewOpsNotifier(ctx, cfg, logger)
	sender := services.NewSMSSender(cfg, notifier, logger)

	opts := []services.DispatcherOption{
		services.WithWindow(cfg.DispatchWindow),
		services.WithConcurrency(cfg.DispatchConcurrency),
	}
	if cfg.RedisURL != "" {
		rdb, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, dispatch runs without invocation lock", zap.Error(err))
		} else {
			defer rdb.Close()
			opts = append(opts, services.WithLock(services.NewRedisLock(rdb, dispatchLockTTL)))
		}
	}
	dispatcher := services.NewDispatcher(schedules, templates, smsLogs, sender, notifier, logger, opts...)

	handlers := routes.Handlers{
		Auth:         controllers.NewAuthController(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTExpiry, cfg.Env == "production", logger),
		Reservations: controllers.NewReservationController(reservations, services.NewScheduleCreator(schedules, logger), logger),
		Templates:    controllers.NewTemplateController(templates, logger),
		SMS:          controllers.NewSMSController(schedules, smsLogs, sender, logger),
		Cron:         controllers.NewCronController(dispatcher, cfg.CronSecret, logger),
		Dashboard:    controllers.NewDashboardController(reservations, schedules, logger),
	}
	if cfg.CronSecret == "" {
		logger.Warn("CRON_SECRET not set, /api/cron/sms rejects every request")
	}

	r := routes.SetupRouter(cfg, logger, handlers)
	if cfg.Env != "production" {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("sms_provider", cfg.SMSProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
