package presence

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
	"github.com/talkio/realtime-client/internal/channel"
)

var Module = fx.Module("presence",
	fx.Provide(
		func(ch channel.Channeler, cfg *config.Config, logger *slog.Logger) *Relay {
			return New(ch, cfg.Presence.TypingTTL, logger)
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, r *Relay) {
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go r.Run(ctx)
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)
