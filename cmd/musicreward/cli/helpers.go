package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/musicreward/musicreward/internal/config"
	"github.com/musicreward/musicreward/internal/lookup"
	"github.com/musicreward/musicreward/internal/store"
	"github.com/musicreward/musicreward/internal/store/memory"
	"github.com/musicreward/musicreward/internal/store/sqlstore"
)

// breakerCooldown is how long the YouTube circuit stays open before probing.
const breakerCooldown = 30 * time.Second

// flagKeys maps command-line flags onto config keys. Only flags defined on
// the running command are bound.
var flagKeys = map[string]string{
	"driver":     "storage.driver",
	"dsn":        "storage.dsn",
	"host":       "server.host",
	"port":       "server.port",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// newViper returns a viper instance with defaults, the optional config file
// and MUSICREWARD_* environment overrides loaded.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("musicreward")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.musicreward")
		v.AddConfigPath("/etc/musicreward")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// loadConfig resolves the effective configuration for cmd: defaults, config
// file, environment, then any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, *viper.Viper, error) {
	v, err := newViper()
	if err != nil {
		return nil, nil, err
	}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// newRegistry creates a storage registry with every supported backend.
func newRegistry() *store.Registry {
	registry := store.NewRegistry()
	registry.RegisterDriver("memory", memory.Open)
	registry.RegisterDriver("sqlite", sqlstore.Opener(sqlstore.SQLite))
	registry.RegisterDriver("postgres", sqlstore.Opener(sqlstore.Postgres))
	registry.RegisterDriver("mysql", sqlstore.Opener(sqlstore.MySQL))
	return registry
}

// openStore opens the configured storage backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return newRegistry().Open(ctx, store.Options{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		ConnectTimeout:  cfg.Storage.ConnectTimeout,
	})
}

// newLogger builds the slog logger described by cfg. dev forces debug.
func newLogger(cfg config.LogConfig, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newUpstream builds the YouTube client behind its circuit breaker. Without
// an API key the client is disabled and lookups use the catalog.
func newUpstream(cfg config.YouTubeConfig, logger *slog.Logger) *lookup.BreakerClient {
	client := lookup.NewClient(lookup.ClientConfig{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	return lookup.NewBreakerClient(client, breakerCooldown, logger)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
