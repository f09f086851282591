package cmd

import (
	"log/slog"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/talkio/realtime-client/config"
	"github.com/talkio/realtime-client/internal/adapter/pubsub"
	"github.com/talkio/realtime-client/internal/adapter/settingsapi"
	"github.com/talkio/realtime-client/internal/channel"
	busdi "github.com/talkio/realtime-client/internal/handler/bus"
	"github.com/talkio/realtime-client/internal/handler/httpapi"
	"github.com/talkio/realtime-client/internal/history"
	"github.com/talkio/realtime-client/internal/metrics"
	"github.com/talkio/realtime-client/internal/notify"
	"github.com/talkio/realtime-client/internal/outbox"
	"github.com/talkio/realtime-client/internal/presence"
	"github.com/talkio/realtime-client/internal/service"
	"github.com/talkio/realtime-client/internal/storage"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			pubsub.NewBusLogger,
			pubsub.NewBus,
			metrics.New,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		storage.Module,
		channel.Module,
		outbox.Module,
		presence.Module,
		history.Module,
		settingsapi.Module,
		notify.Module,
		service.Module,
		busdi.Module,
		httpapi.Module,
	)
}

func ProvideLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)
	return logger
}
