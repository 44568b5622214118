// Package config loads the bot configuration from the environment.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Database selects the store. The admin CLI loads it on its own.
type Database struct {
	Driver string `env:"DB_DRIVER,default=sqlite"`
	DSN    string `env:"DB_DSN,default=users.db"`
}

type Config struct {
	Env      string `env:"ENV,default=dev"`
	BotToken string `env:"BOT_TOKEN,required"`
	AdminID  int64  `env:"ADMIN_ID,required"`
	Port     string `env:"PORT,default=8080"`

	Database Database
	RedisURL string `env:"REDIS_URL"`

	DefaultLanguage string `env:"DEFAULT_LANGUAGE,default=uk"`

	ReconnectDelay time.Duration `env:"RECONNECT_DELAY,default=15s"`
	PollTimeout    int           `env:"POLL_TIMEOUT,default=60"`
	PendingTTL     time.Duration `env:"PENDING_TTL,default=0s"`

	SubmitRatePerMinute float64 `env:"SUBMIT_RATE_PER_MINUTE,default=0"`
	SubmitBurst         int     `env:"SUBMIT_BURST,default=3"`

	Log struct {
		Level  string `env:"LOG_LEVEL,default=info"`
		Format string `env:"LOG_FORMAT,default=text"`
		File   string `env:"LOG_FILE,default=bot.log"`
	}
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadWith(envconfig.OsLookuper())
}

// LoadWith reads the configuration through l.
func LoadWith(l envconfig.Lookuper) (*Config, error) {
	config := &Config{}
	if err := envconfig.ProcessWith(context.Background(), config, l); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	if config.AdminID == 0 {
		return nil, fmt.Errorf("parsing env vars: ADMIN_ID must be a non-zero Telegram user id")
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = DefaultPollTimeout
	}
	return config, nil
}

// LoadDatabase reads only the database settings from the process environment.
func LoadDatabase() (*Database, error) {
	return LoadDatabaseWith(envconfig.OsLookuper())
}

// LoadDatabaseWith reads only the database settings through l.
func LoadDatabaseWith(l envconfig.Lookuper) (*Database, error) {
	db := &Database{}
	if err := envconfig.ProcessWith(context.Background(), db, l); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return db, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}
