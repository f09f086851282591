package storage

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
)

var Module = fx.Module("storage",
	fx.Provide(
		fx.Annotate(
			func(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) KV {
				kv, err := OpenSQLite(context.Background(), cfg.Storage.Path)
				if err != nil {
					// Persistence failure is never fatal: fall back to the
					// in-memory view and keep the session usable.
					logger.Error("device store unavailable, using in-memory fallback",
						"path", cfg.Storage.Path, "error", err)
					return NewMemoryKV()
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error { return kv.Close() },
				})
				return kv
			},
		),
	),
)
