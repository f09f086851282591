package settingsapi

import (
	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
	"github.com/talkio/realtime-client/internal/notify"
)

var Module = fx.Module("settingsapi",
	fx.Provide(
		func(cfg *config.Config) *Client {
			return NewClient(cfg.Notifications.SettingsURL)
		},
		fx.Annotate(
			func(c *Client) notify.SettingsAPI { return c },
			fx.As(new(notify.SettingsAPI)),
		),
		fx.Annotate(
			func(c *Client) Credentialer { return c },
			fx.As(new(Credentialer)),
		),
	),
)
