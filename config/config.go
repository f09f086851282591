// Package config loads the daemon configuration from file, environment and
// flags, in that order of increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Backoff       BackoffConfig       `mapstructure:"backoff"`
	Queue         QueueConfig         `mapstructure:"queue"`
	History       HistoryConfig       `mapstructure:"history"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Presence      PresenceConfig      `mapstructure:"presence"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Diagnostics   DiagnosticsConfig   `mapstructure:"diagnostics"`
}

type ServerConfig struct {
	// URL is the websocket endpoint of the chat backend, e.g.
	// wss://chat.example.com/realtime.
	URL string `mapstructure:"url"`
	// HandshakeTimeout bounds a single dial attempt.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// AuthConfig carries the session identity the daemon connects with.
// Typically injected via RTM_AUTH_TOKEN / RTM_AUTH_USER_ID rather than the
// config file. Empty credentials leave the channel offline until a host
// application drives Connect itself.
type AuthConfig struct {
	Token  string `mapstructure:"token"`
	UserID string `mapstructure:"user_id"`
}

type BackoffConfig struct {
	Floor       time.Duration `mapstructure:"floor"`
	Cap         time.Duration `mapstructure:"cap"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type QueueConfig struct {
	// MaxPending caps the in-memory outbound queue; zero means unbounded.
	MaxPending int `mapstructure:"max_pending"`
}

type HistoryConfig struct {
	Cap int `mapstructure:"cap"`
}

type NotificationsConfig struct {
	// SettingsURL is the base URL of the Settings API. Empty keeps the
	// defaults-on settings snapshot.
	SettingsURL string `mapstructure:"settings_url"`
	// OverridesFile is an optional device-local JSON file with notification
	// switches written by the settings screen; watched for changes.
	OverridesFile string `mapstructure:"overrides_file"`
	// SoundMinInterval is the floor between two audible alerts.
	SoundMinInterval time.Duration `mapstructure:"sound_min_interval"`
	// DedupSize bounds the seen-event-ID cache.
	DedupSize int `mapstructure:"dedup_size"`
}

type PresenceConfig struct {
	// TypingTTL expires a typing indicator when the stop signal is lost.
	TypingTTL time.Duration `mapstructure:"typing_ttl"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type DiagnosticsConfig struct {
	// Addr is the local listen address for /healthz, /stats and /metrics.
	// Empty disables the listener.
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.handshake_timeout", 10*time.Second)
	// Registered empty so RTM_AUTH_* environment overrides are picked up.
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.user_id", "")
	v.SetDefault("backoff.floor", time.Second)
	v.SetDefault("backoff.cap", 30*time.Second)
	v.SetDefault("backoff.max_attempts", 5)
	v.SetDefault("queue.max_pending", 0)
	v.SetDefault("history.cap", 100)
	v.SetDefault("notifications.sound_min_interval", 2*time.Second)
	v.SetDefault("notifications.dedup_size", 4096)
	v.SetDefault("presence.typing_ttl", 10*time.Second)
	v.SetDefault("storage.path", "realtime.db")
	v.SetDefault("diagnostics.addr", "")
}

// LoadConfig reads the optional config file (RTM_CONFIG_FILE or
// --config_file), then applies RTM_* environment overrides.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RTM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("config: server.url is required")
	}
	if cfg.History.Cap <= 0 {
		cfg.History.Cap = 100
	}
	return &cfg, nil
}
