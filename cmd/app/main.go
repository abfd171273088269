package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overlaykit/internal/admin"
	"overlaykit/internal/auth"
	"overlaykit/internal/config"
	"overlaykit/internal/db"
	"overlaykit/internal/logger"
	"overlaykit/internal/notify"
	"overlaykit/internal/payment"
	"overlaykit/internal/purchase"
	"overlaykit/internal/scheduler"
	"overlaykit/internal/server"
	"overlaykit/internal/subscription"
	"overlaykit/internal/telemetry"
	"overlaykit/internal/user"
	"overlaykit/internal/wallet"

	"github.com/redis/go-redis/v9"
)

func main() {
	grantAdmin := flag.String("grant-admin", "", "give the admin role to the account with this e-mail, then exit")
	flag.Parse()

	logger.Init()
	logger.Info("Starting overlaykit API")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if cfg.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET is empty; every payment callback will be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Fatalf("Failed to init tracing: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	userSvc := user.NewService(user.NewRepository(database), cfg.JWTSecret)
	if *grantAdmin != "" {
		u, err := userSvc.GrantAdmin(ctx, *grantAdmin)
		if err != nil {
			logger.Fatalf("Failed to grant admin role to %s: %v", *grantAdmin, err)
		}
		logger.Info("Admin role granted", "user_id", u.ID, "email", u.Email)
		return
	}

	walletSvc := wallet.NewService(wallet.NewRepository(database))
	subSvc := subscription.NewService(subscription.NewRepository(database))

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	notifier := notify.New(rdb, userSvc, notify.SMTPConfig{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	})
	defer notifier.Close()
	go notifier.Start(ctx)

	paymentRepo := payment.NewRepository(database)
	paymentSvc := payment.NewService(paymentRepo, payment.NewCryptoClient(cfg.CryptoAPIURL, cfg.CryptoAPITimeout), payment.ServiceConfig{
		PublicBaseURL:  cfg.PublicBaseURL,
		WebhookSecret:  cfg.WebhookSecret,
		CreditsPerUnit: cfg.CryptoCreditsPerUnit,
		PayoutAddress:  cfg.CryptoPayoutAddress,
	})
	reconciler := payment.NewReconciler(paymentRepo, walletSvc, notifier, cfg.WebhookSecret)

	adminList := auth.NewAllowList(cfg.AdminEmails)
	if adminList.Len() == 0 {
		logger.Warn("ADMIN_EMAILS is empty; admin routes are unreachable")
	}

	sched, err := scheduler.New(cfg.SubscriptionSweepInterval, subSvc, notifier)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()

	srv := server.New(server.Config{
		Port:           cfg.Port,
		JWTSecret:      cfg.JWTSecret,
		ServiceName:    cfg.ServiceName,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, server.Deps{
		Users:         userSvc,
		Wallets:       walletSvc,
		Subscriptions: subSvc,
		Purchases:     purchase.NewOrchestrator(walletSvc, subSvc, notifier),
		Payments:      paymentSvc,
		Reconciler:    reconciler,
		Admin:         admin.NewService(walletSvc, subSvc, userSvc, admin.NewAuditRepository(database)),
		AdminList:     adminList,
		DB:            database,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		logger.Error("Server error", "error", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", "error", err)
	}
	cancel()
	if err := sched.Shutdown(); err != nil {
		logger.Error("Error stopping scheduler", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Error flushing traces", "error", err)
	}

	logger.Info("Server stopped")
}
