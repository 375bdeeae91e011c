package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration. Tunables come
// from the YAML file; the bot token and database credentials come from the
// environment only.
type Config struct {
	Bot        BotConfig        `yaml:"bot"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Poller     PollerConfig     `yaml:"poller"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`

	Secrets Secrets `yaml:"-"`
}

// Secrets is the environment-only part of the configuration. All four
// values are required; a missing one is a fatal startup error.
type Secrets struct {
	BotToken   string `envconfig:"BOT_TOKEN" required:"true"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBConnect  string `envconfig:"DB_CONNECT" required:"true"`
}

// BotConfig holds the chat-platform settings.
type BotConfig struct {
	// LaundryChatID is the chat that receives status messages and scheduled
	// completion announcements.
	LaundryChatID    int64  `yaml:"laundry_chat_id"`
	Timezone         string `yaml:"timezone"`
	AvailableBanner  string `yaml:"available_banner"`
	InProgressBanner string `yaml:"in_progress_banner"`
	Debug            bool   `yaml:"debug"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database pool configuration. Credentials live in
// Secrets, not here.
type DatabaseConfig struct {
	SSLMode                string `yaml:"ssl_mode"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PollerConfig holds the two polling intervals and the notification batch
// size.
type PollerConfig struct {
	NotificationIntervalSeconds int           `yaml:"notification_interval_seconds"`
	PresenceIntervalSeconds     int           `yaml:"presence_interval_seconds"`
	NotificationBatch           int           `yaml:"notification_batch"`
	NotificationInterval        time.Duration `yaml:"-"`
	PresenceInterval            time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications. Push is
// optional; with empty keys the fanout is disabled.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the web push worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the YAML file at path, applies defaults, and overlays the
// required secrets from LAUNDRY_* environment variables.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := envconfig.Process("laundry", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("missing required environment configuration: %w", err)
	}

	if cfg.Poller.NotificationIntervalSeconds <= 0 {
		cfg.Poller.NotificationIntervalSeconds = 15
	}
	if cfg.Poller.PresenceIntervalSeconds <= 0 {
		cfg.Poller.PresenceIntervalSeconds = 30
	}
	if cfg.Poller.NotificationBatch <= 0 {
		cfg.Poller.NotificationBatch = 10
	}
	cfg.Poller.NotificationInterval = time.Duration(cfg.Poller.NotificationIntervalSeconds) * time.Second
	cfg.Poller.PresenceInterval = time.Duration(cfg.Poller.PresenceIntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		log.Printf("[CONFIG] worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 15
	}

	return &cfg, nil
}

// Location resolves the configured timezone, falling back to the system
// local zone.
func (c *Config) Location() *time.Location {
	if c.Bot.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Bot.Timezone)
	if err != nil {
		log.Printf("[CONFIG] invalid timezone %q, falling back to local: %v", c.Bot.Timezone, err)
		return time.Local
	}
	return loc
}

// DSN builds the postgres connection string from the environment secrets.
// DBConnect uses the host:port/dbname shape.
func (d *DatabaseConfig) DSN(s Secrets) (string, error) {
	hostPort, dbName, ok := strings.Cut(s.DBConnect, "/")
	if !ok || dbName == "" {
		return "", fmt.Errorf("LAUNDRY_DB_CONNECT must look like host:port/dbname, got %q", s.DBConnect)
	}
	host, port, found := strings.Cut(hostPort, ":")
	if !found {
		host, port = hostPort, "5432"
	}
	if host == "" {
		return "", fmt.Errorf("LAUNDRY_DB_CONNECT must look like host:port/dbname, got %q", s.DBConnect)
	}

	mode := d.SSLMode
	if mode == "" {
		mode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, s.DBUser, s.DBPassword, dbName, mode), nil
}
