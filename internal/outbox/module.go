package outbox

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
	"github.com/talkio/realtime-client/internal/channel"
	"github.com/talkio/realtime-client/internal/metrics"
)

var Module = fx.Module("outbox",
	fx.Provide(
		func(ch channel.Channeler, bus *gochannel.GoChannel, cfg *config.Config, logger *slog.Logger, m *metrics.Set) *Outbox {
			return New(ch, bus, cfg.Queue.MaxPending, logger, m)
		},
	),
)
