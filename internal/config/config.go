package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config holds application configuration loaded from environment variables.
// Credentials used by the request handlers are optional here: a handler that
// needs a missing value answers with a configuration error instead of the
// process refusing to start.
type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port               int      `env:"PORT" envDefault:"8080"`
		CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Telegram struct {
		BotToken      string `env:"BOT_TOKEN"`
		APIBaseURL    string `env:"TELEGRAM_API_BASE_URL" envDefault:"https://api.telegram.org"`
		ChannelID     string `env:"TELEGRAM_CHANNEL_ID"`
		WebhookSecret string `env:"TELEGRAM_WEBHOOK_SECRET"`
		// Domain hosting the Mini App, e.g. "contests.example.com".
		ProjectDomain string `env:"PROJECT_DOMAIN"`
	}

	Identity struct {
		URL    string `env:"IDENTITY_URL"`
		APIKey string `env:"IDENTITY_API_KEY"`
	}

	Admins AdminAllowlist `env:"ADMIN_ALLOWLIST" envDefault:"[]"`

	Storage struct {
		Driver        string `env:"STORAGE_DRIVER" envDefault:"redis"`
		RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
		RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
		SQLitePath    string `env:"SQLITE_PATH" envDefault:"contests.db"`
	}

	Workers struct {
		SyncInterval             time.Duration `env:"SYNC_INTERVAL" envDefault:"0s"`
		ParticipantStreamEnabled bool          `env:"PARTICIPANT_STREAM_ENABLED" envDefault:"false"`
	}

	Membership struct {
		RequireInitData bool          `env:"MEMBERSHIP_REQUIRE_INIT_DATA" envDefault:"false"`
		InitDataTTL     time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
	}

	LogFile string `env:"LOG_FILE"`
}

// AdminEntry is one allowlisted administrator. Both fields must match the
// caller's resolved identity together.
type AdminEntry struct {
	Email string `json:"email"`
	ID    string `json:"id"`
}

// AdminAllowlist is parsed from a JSON array, e.g.
// [{"email":"owner@example.com","id":"8c1f..."}].
type AdminAllowlist []AdminEntry

// UnmarshalText implements encoding.TextUnmarshaler so env can decode the
// variable directly. Malformed entries fail the whole load.
func (a *AdminAllowlist) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*a = AdminAllowlist{}
		return nil
	}

	var entries []AdminEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fmt.Errorf("admin allowlist must be a JSON array of {email,id}: %w", err)
	}
	for i, e := range entries {
		e.Email = strings.TrimSpace(e.Email)
		e.ID = strings.TrimSpace(e.ID)
		if e.Email == "" || e.ID == "" {
			return fmt.Errorf("admin allowlist entry %d: email and id are required", i)
		}
		entries[i] = e
	}
	*a = entries
	return nil
}

// Load reads .env (if present) and the process environment into Config.
func Load() (*Config, error) {
	// .env is optional; in production variables are set directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: must be %q or %q", c.Storage.Driver, StorageRedis, StorageSQLite)
	}
	if c.Workers.SyncInterval < 0 {
		return fmt.Errorf("invalid SYNC_INTERVAL: must not be negative")
	}
	if c.Workers.ParticipantStreamEnabled && c.Storage.Driver != StorageRedis {
		return fmt.Errorf("PARTICIPANT_STREAM_ENABLED requires the redis storage driver")
	}
	return nil
}

// WebAppHost returns the project domain without scheme or trailing slash.
func (c *Config) WebAppHost() string {
	host := strings.TrimSpace(c.Telegram.ProjectDomain)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}
