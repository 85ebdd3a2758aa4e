package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"greekledger/internal/amqp"
	"greekledger/internal/billing"
	"greekledger/internal/config"
	apphttp "greekledger/internal/http"
	"greekledger/internal/log"
	"greekledger/internal/middleware/auth"
	"greekledger/internal/notify"
	"greekledger/internal/receipts"
	"greekledger/internal/services"
	"greekledger/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logConfig := log.DefaultConfig()
	logConfig.Level = log.ParseLevel(cfg.LogLevel)
	logger := log.New(logConfig)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Ledger events feed the Google Sheets mirror; without a broker the
	// ledger still works, it just is not mirrored.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, ledger mirror disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - payments will not be mirrored")
	}

	local := receipts.NewLocal(cfg.UploadDir)
	var receiptStore receipts.Store = local
	if cfg.CloudinaryEnabled() {
		cld, err := receipts.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Warn("Failed to initialize Cloudinary, storing receipts locally", log.FieldError, err)
		} else {
			receiptStore = receipts.NewFallback(cld, local, logger.WithComponent(log.ComponentReceipts).Logger)
		}
	}

	ledger := services.NewLedgerService(repo, publisher)
	sms := services.NewSMSService(repo, notify.NewSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber), cfg.SMSBulkDelay)
	issuer := billing.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.FrontendURL)

	logger.Info("Integrations configured",
		"stripe", issuer.Enabled(),
		"sms", sms.Enabled(),
		"cloudinary", cfg.CloudinaryEnabled(),
		"amqp", publisher != nil)

	authn := auth.New(cfg.JWTSecret, "/api/health", "/api/ready", "/api/stripe/webhook", receipts.PublicPrefix)
	if !authn.Enabled() {
		logger.Warn("API_JWT_SECRET not set - API is unauthenticated")
	}

	srv := apphttp.NewServer(net.JoinHostPort("", cfg.Port), apphttp.Deps{
		Store:         repo,
		Ledger:        ledger,
		Notifications: services.NewNotificationService(repo, services.DefaultSenders),
		SMS:           sms,
		Billing:       services.NewBillingService(repo, issuer, ledger),
		Analytics:     services.NewAnalyticsService(repo),
		Cashflow:      services.NewCashflowService(repo),
		Scenarios:     services.NewScenarioService(repo),
		Receipts:      receiptStore,
		Logger:        logger,
		Auth:          authn,
		UploadDir:     cfg.UploadDir,
		FrontendURL:   cfg.FrontendURL,
		CORSOrigins:   cfg.CORSOrigins,
	})

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		err := srv.Shutdown(shutdownCtx)
		logger.Op(shutdownCtx, log.OpShutdown, err)
		cancel()
	}()

	logger.Info("Starting greekledger server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
