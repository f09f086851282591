package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/talkio/realtime-client/config"
)

const ServiceName = "realtime-client"

func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Realtime messaging and notification delivery daemon",
		Commands: []*cli.Command{
			daemonCmd(),
		},
	}

	return app.Run(os.Args)
}

func daemonCmd() *cli.Command {
	return &cli.Command{
		Name:    "daemon",
		Aliases: []string{"d"},
		Usage:   "Run the realtime delivery daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
			&cli.StringFlag{
				Name:  "server_url",
				Usage: "Websocket endpoint of the chat backend",
			},
			&cli.StringFlag{
				Name:  "diagnostics_addr",
				Usage: "Local diagnostics listen address (empty disables)",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Session token to authenticate the channel with",
				EnvVars: []string{"RTM_AUTH_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "user_id",
				Usage:   "User id the session belongs to",
				EnvVars: []string{"RTM_AUTH_USER_ID"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(cliFlags(c))
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			return app.Stop(context.Background())
		},
	}
}

// cliFlags bridges the CLI arguments into the viper-bindable flag set. Only
// flags actually passed on the command line are marked changed, so config
// file and environment keep their precedence for the rest.
func cliFlags(c *cli.Context) *pflag.FlagSet {
	fs := pflag.NewFlagSet(ServiceName, pflag.ContinueOnError)
	fs.String("config_file", "", "path to the configuration file")
	fs.String("server.url", "", "websocket endpoint of the chat backend")
	fs.String("diagnostics.addr", "", "local diagnostics listen address")
	fs.String("auth.token", "", "session token")
	fs.String("auth.user_id", "", "session user id")

	if v := c.String("config_file"); v != "" {
		_ = fs.Set("config_file", v)
	}
	if v := c.String("server_url"); v != "" {
		_ = fs.Set("server.url", v)
	}
	if v := c.String("diagnostics_addr"); v != "" {
		_ = fs.Set("diagnostics.addr", v)
	}
	if v := c.String("token"); v != "" {
		_ = fs.Set("auth.token", v)
	}
	if v := c.String("user_id"); v != "" {
		_ = fs.Set("auth.user_id", v)
	}
	return fs
}
