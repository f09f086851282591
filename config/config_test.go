package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func flagsWithURL(url string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config_file", "", "")
	fs.String("server.url", "", "")
	_ = fs.Set("server.url", url)
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(flagsWithURL("wss://chat.example.com/realtime"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.URL != "wss://chat.example.com/realtime" {
		t.Errorf("url = %q", cfg.Server.URL)
	}
	if cfg.Backoff.Floor != time.Second || cfg.Backoff.Cap != 30*time.Second || cfg.Backoff.MaxAttempts != 5 {
		t.Errorf("backoff defaults = %+v", cfg.Backoff)
	}
	if cfg.History.Cap != 100 {
		t.Errorf("history cap = %d, want 100", cfg.History.Cap)
	}
	if cfg.Notifications.SoundMinInterval != 2*time.Second {
		t.Errorf("sound interval = %v", cfg.Notifications.SoundMinInterval)
	}
	if cfg.Presence.TypingTTL != 10*time.Second {
		t.Errorf("typing ttl = %v", cfg.Presence.TypingTTL)
	}
	if cfg.Diagnostics.Addr != "" {
		t.Errorf("diagnostics enabled by default: %q", cfg.Diagnostics.Addr)
	}
}

func TestLoadConfig_RequiresServerURL(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config_file", "", "")
	if _, err := LoadConfig(fs); err == nil {
		t.Error("LoadConfig without server.url succeeded")
	}
}

func TestLoadConfig_FileAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  url: wss://file.example.com/rt
backoff:
  max_attempts: 7
history:
  cap: 25
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config_file", "", "")
	fs.String("server.url", "", "")
	_ = fs.Set("config_file", path)

	cfg, err := LoadConfig(fs)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.URL != "wss://file.example.com/rt" {
		t.Errorf("url = %q", cfg.Server.URL)
	}
	if cfg.Backoff.MaxAttempts != 7 || cfg.History.Cap != 25 {
		t.Errorf("file values not applied: %+v %+v", cfg.Backoff, cfg.History)
	}

	// A changed flag wins over the file.
	_ = fs.Set("server.url", "wss://flag.example.com/rt")
	cfg, err = LoadConfig(fs)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.URL != "wss://flag.example.com/rt" {
		t.Errorf("flag did not win: %q", cfg.Server.URL)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("RTM_QUEUE_MAX_PENDING", "64")

	cfg, err := LoadConfig(flagsWithURL("wss://chat.example.com/realtime"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Queue.MaxPending != 64 {
		t.Errorf("max_pending = %d, want 64 from env", cfg.Queue.MaxPending)
	}
}

func TestLoadConfig_AuthFromEnv(t *testing.T) {
	t.Setenv("RTM_AUTH_TOKEN", "tok-env")
	t.Setenv("RTM_AUTH_USER_ID", "user-env")

	cfg, err := LoadConfig(flagsWithURL("wss://chat.example.com/realtime"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Auth.Token != "tok-env" || cfg.Auth.UserID != "user-env" {
		t.Errorf("auth = %+v, want env credentials", cfg.Auth)
	}
}
