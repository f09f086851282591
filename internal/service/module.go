package service

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		fx.Annotate(
			NewRealtimeService,
			fx.As(new(Realtimer)),
		),
	),

	fx.Invoke(Autoconnect),
)

// Autoconnect brings the channel up on application start with the configured
// session. Without credentials the daemon still runs (bus, watchers,
// diagnostics) and waits for a host application to drive Connect.
func Autoconnect(lc fx.Lifecycle, svc Realtimer, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Auth.Token == "" || cfg.Auth.UserID == "" {
				logger.Warn("NO_SESSION_CREDENTIALS", "hint", "set auth.token and auth.user_id")
				return nil
			}
			return svc.Connect(ctx, cfg.Auth.Token, cfg.Auth.UserID)
		},
		OnStop: func(context.Context) error {
			svc.Disconnect()
			return nil
		},
	})
}
