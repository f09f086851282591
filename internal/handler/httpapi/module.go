package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/talkio/realtime-client/config"
)

var Module = fx.Module("httpapi-handler",
	fx.Provide(NewDiagnosticsHandler),
	fx.Invoke(Serve),
)

// Serve starts the diagnostics listener when configured. An empty address
// disables the surface entirely; embedded deployments run without it.
func Serve(lc fx.Lifecycle, cfg *config.Config, h *DiagnosticsHandler, logger *slog.Logger) {
	addr := cfg.Diagnostics.Addr
	if addr == "" {
		logger.Info("DIAGNOSTICS_DISABLED")
		return
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				logger.Info("DIAGNOSTICS_LISTENING", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("DIAGNOSTICS_SERVER_FAILED", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
