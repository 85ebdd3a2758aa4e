package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"greekledger/internal/config"
	"greekledger/internal/log"
	"greekledger/internal/notify"
	"greekledger/internal/scheduler"
	"greekledger/internal/services"
	"greekledger/internal/storage"
)

const jobTimeout = 10 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logConfig := log.DefaultConfig()
	logConfig.Level = log.ParseLevel(cfg.LogLevel)
	logConfig.Component = log.ComponentScheduler
	logger := log.New(logConfig)
	log.SetDefault(logger)

	logger.Info("Starting reminder-worker")

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

	// Email and Discord credentials live in chapter settings and are
	// resolved on every run, so edits take effect without a restart.
	notifications := services.NewNotificationService(repo, services.DefaultSenders)
	sms := services.NewSMSService(repo, notify.NewSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber), cfg.SMSBulkDelay)
	jobs := services.NewReminderJobs(repo, notifications, sms, services.DefaultSenders)

	sched := scheduler.New(cfg.Location(), jobTimeout)
	if err := sched.Add("weekly_reminders", cfg.ReminderCron, jobs.WeeklyReminders); err != nil {
		logger.Error("Failed to schedule weekly reminders", log.FieldError, err)
		os.Exit(1)
	}
	if err := sched.Add("reserve_check", cfg.ReserveCheckCron, jobs.ReserveCheck); err != nil {
		logger.Error("Failed to schedule reserve check", log.FieldError, err)
		os.Exit(1)
	}

	sched.Start()
	logger.Info("Scheduler started",
		"timezone", cfg.Location().String(),
		"sms", sms.Enabled(),
		"next_runs", sched.Next())

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	// Running jobs get the rest of their window to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = sched.Stop(shutdownCtx)
	logger.Op(shutdownCtx, log.OpShutdown, err)
}
