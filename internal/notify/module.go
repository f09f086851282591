package notify

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
	"github.com/talkio/realtime-client/internal/history"
	"github.com/talkio/realtime-client/internal/metrics"
	"github.com/talkio/realtime-client/internal/storage"
)

var Module = fx.Module("notify",
	fx.Provide(
		fx.Annotate(
			func(logger *slog.Logger) Presenter { return &LogPresenter{Logger: logger} },
			fx.As(new(Presenter)),
		),
		func(api SettingsAPI, cfg *config.Config, logger *slog.Logger, m *metrics.Set) *SettingsProvider {
			return NewSettingsProvider(api, cfg.Notifications.OverridesFile, logger, m)
		},
		func(kv storage.KV, cfg *config.Config, logger *slog.Logger) *SoundGate {
			return NewSoundGate(kv, cfg.Notifications.SoundMinInterval, logger)
		},
		func(settings *SettingsProvider, hist *history.Store, presenter Presenter, sound *SoundGate, cfg *config.Config, logger *slog.Logger, m *metrics.Set) *Router {
			return NewRouter(settings, hist, presenter, sound, cfg.Notifications.DedupSize, logger, m)
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, p *SettingsProvider, logger *slog.Logger) {
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					if err := p.Watch(ctx); err != nil {
						logger.Warn("settings watcher stopped", "error", err)
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)
