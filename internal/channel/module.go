package channel

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
	"github.com/talkio/realtime-client/internal/metrics"
)

var Module = fx.Module("channel",
	fx.Provide(
		func(cfg *config.Config, bus *gochannel.GoChannel, logger *slog.Logger, m *metrics.Set) *Channel {
			return New(Config{
				URL:              cfg.Server.URL,
				HandshakeTimeout: cfg.Server.HandshakeTimeout,
				BackoffFloor:     cfg.Backoff.Floor,
				BackoffCap:       cfg.Backoff.Cap,
				MaxAttempts:      cfg.Backoff.MaxAttempts,
			}, bus, logger, m)
		},
		fx.Annotate(
			func(c *Channel) Channeler { return c },
			fx.As(new(Channeler)),
		),
		func(c *Channel) *Registry { return c.Registry() },
	),
)
