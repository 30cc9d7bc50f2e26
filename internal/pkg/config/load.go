package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WAUTH_STORE_DRIVER.
const EnvPrefix = "WAUTH"

// ErrConfigNotFound is returned when an explicitly requested config file is missing.
var ErrConfigNotFound = errors.New("config file not found")

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// Path is an explicit config file (--config / WAUTH_CONFIG). It must exist.
	Path string
	// WorkDir is used for development-mode detection. Defaults to the current directory.
	WorkDir string
	// HomeDir is used to locate ~/.config/wauth. Defaults to os.UserHomeDir.
	HomeDir string
	// Watch reloads the file on change. Only long running processes need it.
	Watch bool
	// Overrides take precedence over every other source.
	Overrides map[string]any
}

// legacy environment variables bound next to their WAUTH_ equivalent.
var legacyEnv = map[string]string{
	"store.dynamodb.profile": "AWS_PROFILE",
	"store.dynamodb.table":   "DYNAMODB_TABLE_NAME",
}

// legacy flat file keys from the original config.toml layout.
var legacyKeys = map[string]string{
	"aws_profile":         "store.dynamodb.profile",
	"dynamodb_table_name": "store.dynamodb.table",
}

// Load resolves configuration in this order: the explicit path, then the
// development layout (.env plus ./config/config.yaml) when running inside a
// source checkout, then ~/.config/wauth/config.toml. Environment variables
// always win over file values. A missing optional file is not an error.
func Load(opts LoadOptions) (*Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	path := opts.Path
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}

	switch {
	case path != "":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
	case IsDevelopment(workDir):
		if err := godotenv.Load(filepath.Join(workDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		path = firstExisting(filepath.Join(workDir, "config", "config.yaml"))
	default:
		home := opts.HomeDir
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		if home != "" {
			dir := filepath.Join(home, ".config", "wauth")
			path = firstExisting(filepath.Join(dir, "config.toml"), filepath.Join(dir, "config.yaml"))
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		applyLegacyKeys(v)

		if opts.Watch {
			v.OnConfigChange(func(_ fsnotify.Event) {
				slog.Info("config success reloaded", "path", path)
			})
			v.WatchConfig()
		}
	}

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	return &Viper{v: v, file: path}, nil
}

// IsDevelopment reports whether wauth runs from a source checkout. WAUTH_DEV
// decides when set; otherwise a go.mod in dir or any parent means development.
func IsDevelopment(dir string) bool {
	if val, ok := os.LookupEnv(EnvPrefix + "_DEV"); ok {
		return strings.EqualFold(strings.TrimSpace(val), "true")
	}

	for dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return false
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyLegacyKeys maps flat keys onto their nested names. They are registered
// as defaults so that nested file keys and environment variables still win.
func applyLegacyKeys(v *viper.Viper) {
	for legacy, key := range legacyKeys {
		if v.InConfig(legacy) && !v.InConfig(key) {
			v.SetDefault(key, v.Get(legacy))
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wauth")
	v.SetDefault("app.env", "production")
	v.SetDefault("app.log_level", "warn")
	v.SetDefault("app.max_goroutine", 0)
	v.SetDefault("app.maintenance.endpoints", []string{})
	v.SetDefault("app.maintenance.retry_after_seconds", 60)

	v.SetDefault("store.driver", "dynamodb")
	v.SetDefault("store.timeout", 10)
	v.SetDefault("store.ready_retries", 5)
	v.SetDefault("store.dynamodb.region", "")
	v.SetDefault("store.dynamodb.profile", "")
	v.SetDefault("store.dynamodb.table", "")
	v.SetDefault("store.redis.key", "wauth:sites")
	v.SetDefault("store.postgres.table", "wauth_sites")
	v.SetDefault("store.postgres.migrate", true)
	v.SetDefault("store.object.prefix", "sites/")

	v.SetDefault("vault.strict_uniqueness", false)
	v.SetDefault("vault.issuer", "wauth")

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.topic", "wauth.sites")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 5)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors.allowed_origins", "*")
	v.SetDefault("server.idempotency.redis_url", "")
	v.SetDefault("server.idempotency.lock_seconds", 30)
	v.SetDefault("server.idempotency.ttl_seconds", 86400)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.issuer", "wauth")
	v.SetDefault("auth.audience", "wauth-api")
	v.SetDefault("auth.ttl", 60)
	v.SetDefault("auth.secret", "")

	v.SetDefault("instrument.enabled", false)
	v.SetDefault("instrument.trace_sample_ratio", 1.0)
	v.SetDefault("instrument.metric_interval_seconds", 60)
}
