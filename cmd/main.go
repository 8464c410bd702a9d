package main

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"

	"flood-geoservice/internal/api"
	"flood-geoservice/internal/cache"
	capalert "flood-geoservice/internal/cap"
	"flood-geoservice/internal/config"
	"flood-geoservice/internal/db"
	"flood-geoservice/internal/format"
	"flood-geoservice/internal/logging"
	"flood-geoservice/internal/observability"
	"flood-geoservice/internal/watch"
	"flood-geoservice/internal/ws"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	loc, err := cfg.Location()
	if err != nil {
		logger.Errorf("Failed to resolve reference timezone: %v", err)
		log.Fatalf("Timezone setup failed: %v", err)
	}

	states, err := cfg.StateTable()
	if err != nil {
		logger.Errorf("Failed to load state table: %v", err)
		log.Fatalf("State table load failed: %v", err)
	}

	// Connect to database
	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	// Supervise connectivity; exhausting retries is fatal by design.
	monitor := db.NewMonitor(dbConn, logger, metrics, clock,
		cfg.DB.PingInterval, cfg.DB.RetryDelay, cfg.DB.MaxRetries)
	go monitor.Run(context.Background())

	// Response pipeline
	builder := capalert.NewBuilder(states, cfg.Alert.Sender, cfg.Alert.ExpiryHorizon, loc, clock)
	feed := capalert.NewFeedSerializer(builder, cfg.Alert.FeedTitle, logger, metrics)
	responses := format.NewBuilder(feed, loc, clock)
	respCache := cache.New(cfg.Cache.TTL, clock, metrics)

	// Alert dispatch channels
	hub := ws.NewHub(logger)
	publishers := []watch.Publisher{watch.NewSocketPublisher(hub)}
	if cfg.Kafka.Broker != "" && cfg.Kafka.Topic != "" {
		kp := watch.NewKafkaPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic)
		defer kp.Close()
		publishers = append(publishers, kp)
		logger.Infof("Kafka alert publishing enabled on topic %s", cfg.Kafka.Topic)
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tp, err := watch.NewTelegramPublisher(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.RatePerSecond)
		if err != nil {
			logger.Errorf("Failed to init Telegram publisher: %v", err)
		} else {
			publishers = append(publishers, tp)
			logger.Infof("Telegram alert publishing enabled for chat %d", cfg.Telegram.ChatID)
		}
	}
	watcher := watch.New(dbConn, builder, logger, metrics, publishers...)

	// Background jobs: alert watch and cache sweep
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(cfg.Alert.WatchInterval).Do(func() {
		watcher.Check(context.Background())
	}); err != nil {
		logger.Errorf("Failed to schedule alert watch: %v", err)
	}
	if _, err := scheduler.Every(cfg.Cache.SweepInterval).Do(func() {
		if dropped := respCache.Sweep(); dropped > 0 {
			logger.Infof("Cache sweep dropped %d expired entries", dropped)
		}
	}); err != nil {
		logger.Errorf("Failed to schedule cache sweep: %v", err)
	}
	scheduler.StartAsync()

	// Start API server
	handler := api.NewHandler(dbConn, respCache, responses, hub, logger, metrics)
	router := api.NewRouter(handler, logger, cfg)
	logger.Infof("Starting API server on %s", cfg.API.Port)
	if err := router.Run(cfg.API.Port); err != nil {
		logger.Errorf("API server failed: %v", err)
	}
}
