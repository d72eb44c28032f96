package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Sink backends
const (
	SinkLog      = "log"
	SinkFirebase = "firebase"
	SinkRedis    = "redis"
	SinkMongo    = "mongo"
	SinkSQLite   = "sqlite"
)

// Config holds the bot settings. Values come from the environment and may be
// overridden by command line flags.
type Config struct {
	BotToken    string
	CatalogPath string
	LogLevel    string

	Sink                string
	FirebaseKeyPath     string
	FirebaseDatabaseURL string
	RedisAddr           string
	RedisTTL            time.Duration
	MongoURI            string
	SQLitePath          string

	HTTPAddr      string
	WebhookURL    string
	WebhookSecret string
}

// FromEnv reads the configuration from environment variables
func FromEnv() Config {
	return Config{
		BotToken:            os.Getenv("BOT_TOKEN"),
		CatalogPath:         os.Getenv("QUIZ_CATALOG"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		Sink:                getEnvOrDefault("QUIZ_SINK", SinkLog),
		FirebaseKeyPath:     os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH"),
		FirebaseDatabaseURL: os.Getenv("FIREBASE_DATABASE_URL"),
		RedisAddr:           getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisTTL:            getDurationOrDefault("REDIS_TTL", 30*24*time.Hour),
		MongoURI:            getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		SQLitePath:          getEnvOrDefault("SQLITE_PATH", "data/answers.db"),
		HTTPAddr:            os.Getenv("WEBHOOK_ADDR"),
		WebhookURL:          os.Getenv("WEBHOOK_URL"),
		WebhookSecret:       os.Getenv("WEBHOOK_SECRET"),
	}
}

// Validate checks the settings needed to run the bot.
func (c Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN environment variable not set"))
	}
	errs = append(errs, c.ValidateSink())
	if c.WebhookURL != "" && c.HTTPAddr == "" {
		errs = append(errs, errors.New("WEBHOOK_URL requires WEBHOOK_ADDR"))
	}
	return errors.Join(errs...)
}

// ValidateSink checks only the answer sink settings.
func (c Config) ValidateSink() error {
	switch c.Sink {
	case SinkLog:
	case SinkFirebase:
		if c.FirebaseKeyPath == "" {
			return errors.New("FIREBASE_SERVICE_ACCOUNT_KEY_PATH environment variable not set")
		}
		if c.FirebaseDatabaseURL == "" {
			return errors.New("FIREBASE_DATABASE_URL environment variable not set")
		}
	case SinkRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR environment variable not set")
		}
	case SinkMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI environment variable not set")
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH environment variable not set")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	return nil
}

// WebhookMode reports whether updates arrive by webhook instead of long polling.
func (c Config) WebhookMode() bool {
	return c.WebhookURL != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
