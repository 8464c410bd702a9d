package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"flood-geoservice/internal/models"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN          string
		PingInterval time.Duration
		RetryDelay   time.Duration
		MaxRetries   int
	}
	API struct {
		Port     string
		BasePath string
	}
	Cache struct {
		TTL           time.Duration
		SweepInterval time.Duration
	}
	Alert struct {
		Sender         string
		FeedTitle      string
		ExpiryHorizon  time.Duration
		ReferenceTZ    string
		StateTablePath string
		WatchInterval  time.Duration
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	Telegram struct {
		BotToken      string
		ChatID        int64
		RatePerSecond int
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")
	cfg.DB.PingInterval = envDuration("DB_PING_INTERVAL", 15*time.Second)
	cfg.DB.RetryDelay = envDuration("DB_RETRY_DELAY", 5*time.Second)
	cfg.DB.MaxRetries = envInt("DB_MAX_RETRIES", 5)

	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	cfg.Cache.TTL = envDuration("CACHE_TTL", 5*time.Minute)
	cfg.Cache.SweepInterval = envDuration("CACHE_SWEEP_INTERVAL", 10*time.Minute)

	cfg.Alert.Sender = os.Getenv("ALERT_SENDER")
	cfg.Alert.FeedTitle = os.Getenv("FEED_TITLE")
	cfg.Alert.ExpiryHorizon = envDuration("ALERT_EXPIRY", 6*time.Hour)
	cfg.Alert.ReferenceTZ = os.Getenv("REFERENCE_TZ")
	cfg.Alert.StateTablePath = os.Getenv("STATE_TABLE_PATH")
	cfg.Alert.WatchInterval = envDuration("ALERT_WATCH_INTERVAL", 5*time.Minute)

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}
	cfg.Telegram.RatePerSecond = envInt("TELEGRAM_RATE_LIMIT", 1)

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v1"
	}
	if cfg.Alert.Sender == "" {
		cfg.Alert.Sender = "flood-geoservice"
	}
	if cfg.Alert.FeedTitle == "" {
		cfg.Alert.FeedTitle = "Flood situation alerts"
	}
	if cfg.Alert.ReferenceTZ == "" {
		cfg.Alert.ReferenceTZ = "Asia/Bangkok"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Location resolves the reference timezone used for QueryTime stamps and CAP
// timestamps.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Alert.ReferenceTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid REFERENCE_TZ %q: %w", c.Alert.ReferenceTZ, err)
	}
	return loc, nil
}

// StateTable loads the flood-state classification table from the configured
// JSON file, or returns the built-in default table when no path is set. The
// table contents are deployment configuration, not core logic.
func (c Config) StateTable() (map[int]models.StateClass, error) {
	if c.Alert.StateTablePath == "" {
		return DefaultStateTable(), nil
	}

	raw, err := os.ReadFile(c.Alert.StateTablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read state table: %w", err)
	}

	table := map[int]models.StateClass{}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to parse state table: %w", err)
	}
	return table, nil
}

// DefaultStateTable is the fallback classification used when no table file is
// configured.
func DefaultStateTable() map[int]models.StateClass {
	return map[int]models.StateClass{
		1: {
			Event:       "Flood watch",
			Severity:    "Minor",
			Urgency:     "Future",
			Certainty:   "Possible",
			Headline:    "Flood watch",
			Description: "Water levels are rising. Monitor the situation and prepare to act.",
		},
		2: {
			Event:       "Flood warning",
			Severity:    "Moderate",
			Urgency:     "Expected",
			Certainty:   "Likely",
			Headline:    "Flood warning",
			Description: "Flooding is expected. Move property to higher ground and avoid low-lying routes.",
		},
		3: {
			Event:       "Severe flooding",
			Severity:    "Severe",
			Urgency:     "Immediate",
			Certainty:   "Observed",
			Headline:    "Severe flooding",
			Description: "Severe flooding is in progress. Follow evacuation guidance immediately.",
		},
	}
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
