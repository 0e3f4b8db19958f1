package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medibook/backend/internal/channels"
	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/database"
	"github.com/medibook/backend/internal/events"
	"github.com/medibook/backend/internal/handlers"
	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/repository"
	"github.com/medibook/backend/internal/services"
	"github.com/medibook/backend/internal/zlog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := zlog.Init(zlog.Options{Level: cfg.Log.Level, Path: cfg.Log.Path}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	for _, w := range cfg.Warnings() {
		zlog.Warn("Config: " + w)
	}

	loc, err := cfg.Location()
	if err != nil {
		zlog.Fatal("Invalid scheduler timezone", zap.String("timezone", cfg.Scheduler.Timezone), zap.Error(err))
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := models.AutoMigrate(database.DB); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	jwtSecret := database.EnsureJWTSecret(database.DB, cfg.API.JWTSecret)

	ctx := context.Background()

	// Channel configuration is fixed for the process lifetime
	channelCfg := cfg.ChannelConfig()
	if overrides, err := repository.TemplateOverrides(ctx, database.DB); err != nil {
		zlog.Warn("Failed to load template overrides", zap.Error(err))
	} else {
		channelCfg = channelCfg.WithTemplateOverrides(overrides)
	}

	pushAdapter, err := channels.NewPushAdapter(ctx, channelCfg)
	if err != nil {
		zlog.Fatal("Failed to initialize push channel", zap.Error(err))
	}
	adapters := services.Adapters{
		Push:            pushAdapter,
		BusinessMessage: channels.NewBusinessMessageAdapter(channelCfg, nil),
		SMS:             channels.NewSMSAdapter(channelCfg, nil),
	}

	publisher := events.NewFallback()
	if cfg.Events.AMQPURL != "" {
		p, err := events.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			zlog.Error("RabbitMQ unavailable, delivery events disabled", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	cache := database.NewContactCache(database.Redis)
	contacts := repository.NewContactStore(database.DB, cache)
	tokens := repository.NewDeviceTokenStore(database.DB, cache)
	deliveries := events.WithPublishing(repository.NewDeliveryLog(database.DB), publisher)

	manager := services.NewNotificationManager(channelCfg, adapters, contacts, tokens, deliveries, cfg.Scheduler.FanOutConcurrency)

	scheduler := services.NewCampaignScheduler(manager, repository.NewCampaignQueries(database.DB), deliveries, loc, services.ScheduleSpecs{
		Reminder:       cfg.Scheduler.ReminderSpec,
		ReviewRequest:  cfg.Scheduler.ReviewRequestSpec,
		UnansweredChat: cfg.Scheduler.UnansweredChatSpec,
	})
	if cfg.Scheduler.Disabled {
		zlog.Info("Campaign scheduler disabled by configuration")
	} else if err := scheduler.Start(); err != nil {
		zlog.Fatal("Failed to start campaign scheduler", zap.Error(err))
	}

	app := handlers.NewApp(handlers.Routes{
		Notifications: handlers.NewNotificationHandler(manager, deliveries),
		DeviceTokens:  handlers.NewDeviceTokenHandler(tokens),
		Campaigns:     handlers.NewCampaignHandler(scheduler),
		JWTSecret:     jwtSecret,
		RateLimit:     cfg.API.RateLimit,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("Shutting down server...")
		scheduler.Stop()
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			zlog.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.API.Port)
	zlog.Info("Starting notification API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zlog.Error("Server stopped", zap.Error(err))
	}
}
