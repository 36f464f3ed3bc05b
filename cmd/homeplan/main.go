package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dcerezal/homeplan/internal/backup"
	"github.com/dcerezal/homeplan/internal/calendar"
	"github.com/dcerezal/homeplan/internal/catalog"
	"github.com/dcerezal/homeplan/internal/config"
	"github.com/dcerezal/homeplan/internal/database"
	"github.com/dcerezal/homeplan/internal/logging"
	"github.com/dcerezal/homeplan/internal/notify"
	"github.com/dcerezal/homeplan/internal/scheduler"
	"github.com/dcerezal/homeplan/internal/server"
	"github.com/dcerezal/homeplan/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.Environment)

	cal, err := calendar.New(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("failed to load catalog: %v", err)
		}
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	redisClient, err := store.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid redis url: %v", err)
	}
	defer redisClient.Close()

	weeks := store.NewRedisStore(redisClient)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := weeks.Ping(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("redis unreachable: %v", err)
	}
	pingCancel()

	var emailClient *notify.EmailClient
	if cfg.EmailEnabled() {
		emailClient = notify.NewEmailClient(cfg.EmailServerToken, cfg.EmailFromName, cfg.EmailFromAddress)
	} else {
		emailClient = notify.NewEmailClient("", "", "")
		logger.Warn("email not configured, email notifications disabled")
	}

	var dailyBot *notify.TelegramClient
	if cfg.DailyBotEnabled() {
		dailyBot = notify.NewTelegramClient(cfg.DailyBotToken)
	} else {
		logger.Warn("daily bot not configured, shared-chat notifications disabled")
	}

	notifier := notify.NewNotifier(cat, emailClient, dailyBot, cfg.DailyChatID, cfg.AppBaseURL, logger)

	srv := server.New(server.Deps{
		DB:         db,
		Weeks:      weeks,
		Catalog:    cat,
		Calendar:   cal,
		Notifier:   notifier,
		CronSecret: cfg.CronSecret,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(srv.Dispatcher(), logger)
		sched.Start(ctx)
		defer sched.Stop()
	}

	backupMgr := backup.NewManager(backup.Config{
		Bucket:    cfg.BackupBucket,
		Region:    cfg.BackupRegion,
		Endpoint:  cfg.BackupEndpoint,
		AccessKey: cfg.BackupAccessKey,
		SecretKey: cfg.BackupSecretKey,
		Prefix:    cfg.BackupPrefix,
		Interval:  cfg.BackupInterval,
		DBPath:    cfg.DBPath,
	}, db, logger)
	backupMgr.Start(ctx)
	defer backupMgr.Stop()

	// Expired rate-limit buckets need occasional sweeping.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("homeplan listening", "port", cfg.HTTPPort, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
