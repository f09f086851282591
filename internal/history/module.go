package history

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
	"github.com/talkio/realtime-client/internal/metrics"
	"github.com/talkio/realtime-client/internal/storage"
)

var Module = fx.Module("history",
	fx.Provide(
		func(kv storage.KV, cfg *config.Config, logger *slog.Logger, m *metrics.Set) *Store {
			return New(kv, cfg.History.Cap, logger, m)
		},
	),
)
