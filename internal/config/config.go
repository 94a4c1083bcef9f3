package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// MUSICREWARD_REWARD_AMOUNT.
const EnvPrefix = "MUSICREWARD"

// Policy defaults. Each is overridable through the matching config key.
const (
	RewardThresholdSeconds = 30   // reward.threshold_seconds
	RewardAmount           = 5    // reward.amount, rupiah
	WithdrawMinimum        = 100  // withdraw.minimum, rupiah
	RequireAdminAuth       = true // auth.require_admin
	SessionTTL             = 24 * time.Hour
)

// Config is the complete runtime configuration of the MusicReward server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Reward   RewardConfig   `mapstructure:"reward" yaml:"reward"`
	Withdraw WithdrawConfig `mapstructure:"withdraw" yaml:"withdraw"`
	YouTube  YouTubeConfig  `mapstructure:"youtube" yaml:"youtube"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	MaxBodySize     int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
	LoginRateLimit  int           `mapstructure:"login_rate_limit" yaml:"login_rate_limit"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"`
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// AuthConfig controls admin authentication.
type AuthConfig struct {
	RequireAdmin bool          `mapstructure:"require_admin" yaml:"require_admin"`
	SessionTTL   time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	SeedUsername string        `mapstructure:"seed_username" yaml:"seed_username"`
	SeedPassword string        `mapstructure:"seed_password" yaml:"seed_password"`
}

// RewardConfig is the listening reward policy.
type RewardConfig struct {
	ThresholdSeconds int           `mapstructure:"threshold_seconds" yaml:"threshold_seconds"`
	Amount           int64         `mapstructure:"amount" yaml:"amount"`
	Repeating        bool          `mapstructure:"repeating" yaml:"repeating"`
	ServerAttested   bool          `mapstructure:"server_attested" yaml:"server_attested"`
	TokenSecret      string        `mapstructure:"token_secret" yaml:"token_secret"`
	MaxHeartbeatGap  time.Duration `mapstructure:"max_heartbeat_gap" yaml:"max_heartbeat_gap"`
	SessionIdle      time.Duration `mapstructure:"session_idle" yaml:"session_idle"`
}

// WithdrawConfig is the withdrawal policy.
type WithdrawConfig struct {
	Minimum int64 `mapstructure:"minimum" yaml:"minimum"`
}

// YouTubeConfig configures the YouTube Data API client. An empty APIKey
// disables external lookups.
type YouTubeConfig struct {
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Region            string        `mapstructure:"region" yaml:"region"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			MaxBodySize:     1 << 20,
			LoginRateLimit:  10,
		},
		Storage: StorageConfig{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
		},
		Auth: AuthConfig{
			RequireAdmin: RequireAdminAuth,
			SessionTTL:   SessionTTL,
			SeedUsername: "admin",
			SeedPassword: "audio",
		},
		Reward: RewardConfig{
			ThresholdSeconds: RewardThresholdSeconds,
			Amount:           RewardAmount,
			MaxHeartbeatGap:  15 * time.Second,
			SessionIdle:      10 * time.Minute,
		},
		Withdraw: WithdrawConfig{
			Minimum: WithdrawMinimum,
		},
		YouTube: YouTubeConfig{
			BaseURL:           "https://www.googleapis.com/youtube/v3",
			Region:            "ID",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every default with v so that environment variables
// and config files can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	v.SetDefault("server.login_rate_limit", d.Server.LoginRateLimit)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.max_open_conns", d.Storage.MaxOpenConns)
	v.SetDefault("storage.max_idle_conns", d.Storage.MaxIdleConns)
	v.SetDefault("storage.conn_max_lifetime", d.Storage.ConnMaxLifetime)
	v.SetDefault("storage.connect_timeout", d.Storage.ConnectTimeout)

	v.SetDefault("auth.require_admin", d.Auth.RequireAdmin)
	v.SetDefault("auth.session_ttl", d.Auth.SessionTTL)
	v.SetDefault("auth.seed_username", d.Auth.SeedUsername)
	v.SetDefault("auth.seed_password", d.Auth.SeedPassword)

	v.SetDefault("reward.threshold_seconds", d.Reward.ThresholdSeconds)
	v.SetDefault("reward.amount", d.Reward.Amount)
	v.SetDefault("reward.repeating", d.Reward.Repeating)
	v.SetDefault("reward.server_attested", d.Reward.ServerAttested)
	v.SetDefault("reward.token_secret", d.Reward.TokenSecret)
	v.SetDefault("reward.max_heartbeat_gap", d.Reward.MaxHeartbeatGap)
	v.SetDefault("reward.session_idle", d.Reward.SessionIdle)

	v.SetDefault("withdraw.minimum", d.Withdraw.Minimum)

	v.SetDefault("youtube.api_key", d.YouTube.APIKey)
	v.SetDefault("youtube.base_url", d.YouTube.BaseURL)
	v.SetDefault("youtube.region", d.YouTube.Region)
	v.SetDefault("youtube.timeout", d.YouTube.Timeout)
	v.SetDefault("youtube.requests_per_second", d.YouTube.RequestsPerSecond)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// BindEnv wires MUSICREWARD_* environment variables onto v. Nested keys use
// underscores: storage.dsn becomes MUSICREWARD_STORAGE_DSN.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the policy values for consistency.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("storage.driver: unsupported driver %q (use memory, sqlite, postgres or mysql)", c.Storage.Driver)
	}
	if c.Storage.Driver != "memory" && c.Storage.Driver != "sqlite" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Reward.ThresholdSeconds <= 0 {
		return fmt.Errorf("reward.threshold_seconds must be positive")
	}
	if c.Reward.Amount <= 0 {
		return fmt.Errorf("reward.amount must be positive")
	}
	if c.Withdraw.Minimum < 0 {
		return fmt.Errorf("withdraw.minimum must not be negative")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
