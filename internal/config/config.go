// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/sirupsen/logrus"
)

// Config holds every environment setting read by the server and the historian.
type Config struct {
	Port     string `env:"UNO_SERVICE_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`

	HistorianQueue         string        `env:"HISTORIAN_QUEUE_NAME" envDefault:"uno_actions"`
	HistorianBatchSize     int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlushInterval time.Duration `env:"HISTORIAN_FLUSH_INTERVAL" envDefault:"500ms"`

	TokenExpireTime   time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"168h"`
	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH"`

	TurnTimeout             time.Duration `env:"TURN_TIMEOUT" envDefault:"30s"`
	DisconnectedTurnTimeout time.Duration `env:"DISCONNECTED_TURN_TIMEOUT" envDefault:"10s"`
	FinishedRoomTTL         time.Duration `env:"FINISHED_ROOM_TTL" envDefault:"5m"`
	DefaultMaxPlayers       int           `env:"DEFAULT_MAX_PLAYERS" envDefault:"4"`

	IntentRatePerSec float64 `env:"INTENT_RATE_PER_SEC" envDefault:"10"`
	IntentBurst      int     `env:"INTENT_BURST" envDefault:"20"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HistorianBatchSize <= 0 {
		return nil, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.HistorianBatchSize)
	}
	if (cfg.JWTPrivateKeyPath == "") != (cfg.JWTPublicKeyPath == "") {
		return nil, fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together")
	}
	return &cfg, nil
}

// HasKeyFiles reports whether tokens are signed with keys from disk rather than
// a key pair generated at startup.
func (c *Config) HasKeyFiles() bool {
	return c.JWTPrivateKeyPath != "" && c.JWTPublicKeyPath != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// RoomOptions builds the defaults handed to every room the registry creates.
// Sink, Actions and Logger are left for the caller.
func (c *Config) RoomOptions() room.Options {
	return room.Options{
		MaxPlayers:              c.DefaultMaxPlayers,
		TurnTimeout:             c.TurnTimeout,
		DisconnectedTurnTimeout: c.DisconnectedTurnTimeout,
		FinishedTTL:             c.FinishedRoomTTL,
	}
}

// NewLogger returns a text logger at the configured level, falling back to info.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Warnf("Unknown LOG_LEVEL %q, using info.", c.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
