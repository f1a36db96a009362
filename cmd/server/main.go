// Package main provides the entry point for the EMI admin API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/health"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/mail"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/metrics"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/push"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/server"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := initLogger()
	defer logger.Sync()

	logger.Info("starting EMI admin API")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
	)

	ctx := context.Background()

	// Postgres
	pg, err := store.NewPostgres(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.Bootstrap(ctx); err != nil {
		logger.Fatal("failed to bootstrap schema", zap.Error(err))
	}

	// Redis token store
	tokens, err := store.NewRedisTokenStore(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer tokens.Close()

	pool := pg.Pool()
	admins := store.NewPostgresAdminStore(pool)
	clients := store.NewPostgresClientStore(pool)
	plans := store.NewPostgresLoanPlanStore(pool)
	payments := store.NewPostgresPaymentStore(pool)
	reminders := store.NewPostgresReminderStore(pool)
	notifications := store.NewPostgresNotificationStore(pool)
	support := store.NewPostgresSupportStore(pool)

	pusher := push.NewExpoClient(cfg.Push, logger)
	mailer := mail.NewResendSender(cfg.Mail, logger)

	adminSvc := service.NewAdminService(admins, tokens, cfg.Auth, logger)
	clientSvc := service.NewClientService(clients, admins, payments, reminders, notifications, logger)
	deviceSvc := service.NewDeviceService(clients, logger)
	loanSvc := service.NewLoanService(clients, plans, payments, logger)
	reportSvc := service.NewReportService(clients, payments, logger)
	reminderSvc := service.NewReminderService(clients, reminders, pusher, logger)
	notificationSvc := service.NewNotificationService(notifications, logger)
	supportSvc := service.NewSupportService(clients, support, notifications, logger)
	contractSvc := service.NewContractService(clients, mailer, logger)
	sweepSvc := service.NewSweepService(clients, plans, reminderSvc, cfg.Jobs.SweepInterval, logger)

	if err := loanSvc.SeedDefaultPlan(ctx); err != nil {
		logger.Warn("failed to seed default loan plan", zap.Error(err))
	}

	// Metrics
	m := metrics.NewMetrics()
	m.SetHealthStatus(true)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	// Health checks
	healthCheck := health.NewCheck(map[string]health.Pinger{
		"postgres": pg,
		"redis":    tokens,
	}, logger)
	defer healthCheck.Stop()

	// Background sweep
	if cfg.Jobs.Enabled {
		sweepSvc.Start(ctx)
		defer sweepSvc.Stop()
		logger.Info("background sweep started",
			zap.Duration("interval", cfg.Jobs.SweepInterval))
	}

	// HTTP server
	httpServer := server.NewServer(cfg, server.Services{
		Admins:        adminSvc,
		Clients:       clientSvc,
		Devices:       deviceSvc,
		Loans:         loanSvc,
		Reports:       reportSvc,
		Reminders:     reminderSvc,
		Notifications: notificationSvc,
		Support:       supportSvc,
		Contracts:     contractSvc,
		Sweeps:        sweepSvc,
	}, healthCheck, m, logger)
	httpServer.SetupRoutes()

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- err
		}
	}()

	logger.Info("HTTP server started", zap.Int("port", cfg.Server.Port))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("initiating graceful shutdown")
	m.SetHealthStatus(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", zap.Error(err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}

// initLogger initializes the zap logger.
func initLogger() *zap.Logger {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var level zapcore.Level
	switch logLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if os.Getenv("LOG_FORMAT") == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
