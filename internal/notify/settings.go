package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sony/gobreaker"

	"github.com/talkio/realtime-client/internal/metrics"
)

// Settings are the user's notification switches as owned by the external
// Settings API. One global switch plus per-category switches.
type Settings struct {
	PushNotifications bool `json:"push_notifications"`
	Messages          bool `json:"messages"`
	FriendRequests    bool `json:"friend_requests"`
	PromotionsRewards bool `json:"promotions_rewards"`
}

// DefaultSettings is the everything-on state used until the first
// successful fetch.
func DefaultSettings() Settings {
	return Settings{
		PushNotifications: true,
		Messages:          true,
		FriendRequests:    true,
		PromotionsRewards: true,
	}
}

// SettingsAPI is the external collaborator owning notification settings.
type SettingsAPI interface {
	NotificationSettings(ctx context.Context) (Settings, error)
}

// Overrides are device-local switch overrides written by the settings
// screen; nil fields inherit the API value.
type Overrides struct {
	PushNotifications *bool `json:"push_notifications,omitempty"`
	Messages          *bool `json:"messages,omitempty"`
	FriendRequests    *bool `json:"friend_requests,omitempty"`
	PromotionsRewards *bool `json:"promotions_rewards,omitempty"`
}

// SettingsProvider is the read-through accessor consulted on every inbound
// event. It is deliberately never memoized for the session: the user can
// flip a switch mid-session and the very next event must honor it. A
// circuit breaker keeps a flapping Settings API from stalling delivery;
// while it is open the last good snapshot is served.
type SettingsProvider struct {
	api     SettingsAPI
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
	metrics *metrics.Set

	mu        sync.Mutex
	last      Settings
	overrides Overrides
	path      string
}

func NewSettingsProvider(api SettingsAPI, overridesPath string, logger *slog.Logger, m *metrics.Set) *SettingsProvider {
	p := &SettingsProvider{
		api:     api,
		logger:  logger,
		metrics: m,
		last:    DefaultSettings(),
		path:    overridesPath,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "settings-api",
	})
	p.loadOverrides()
	return p
}

// Current fetches the live settings, falling back to the last snapshot when
// the API or the breaker refuses, then applies device-local overrides.
func (p *SettingsProvider) Current(ctx context.Context) Settings {
	res, err := p.breaker.Execute(func() (any, error) {
		return p.api.NotificationSettings(ctx)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.metrics.SettingsFetchFails.Inc()
		p.logger.Debug("settings fetch failed, serving last snapshot", "error", err)
	} else {
		p.last = res.(Settings)
	}
	return applyOverrides(p.last, p.overrides)
}

func applyOverrides(s Settings, o Overrides) Settings {
	if o.PushNotifications != nil {
		s.PushNotifications = *o.PushNotifications
	}
	if o.Messages != nil {
		s.Messages = *o.Messages
	}
	if o.FriendRequests != nil {
		s.FriendRequests = *o.FriendRequests
	}
	if o.PromotionsRewards != nil {
		s.PromotionsRewards = *o.PromotionsRewards
	}
	return s
}

func (p *SettingsProvider) loadOverrides() {
	if p.path == "" {
		return
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("settings overrides unreadable", "path", p.path, "error", err)
		}
		return
	}
	var o Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		p.logger.Warn("settings overrides corrupt, ignoring", "path", p.path, "error", err)
		return
	}
	p.mu.Lock()
	p.overrides = o
	p.mu.Unlock()
}

// Watch reloads the overrides file whenever the settings screen rewrites
// it. Blocks until the context ends; no-op without a configured path.
func (p *SettingsProvider) Watch(ctx context.Context) error {
	if p.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors and atomic writers replace the file,
	// which would orphan a per-file watch.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name == p.path && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				p.loadOverrides()
				p.logger.Debug("settings overrides reloaded", "path", p.path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("settings watcher error", "error", err)
		}
	}
}

