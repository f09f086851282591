package bus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/fx"
)

var Module = fx.Module("bus-handler",
	fx.Provide(
		NewEventHandler,
		NewBusRouter,
	),

	fx.Invoke(Run),
)

// Run registers all consumers and drives the router for the lifetime of the
// application.
func Run(lc fx.Lifecycle, h *EventHandler, router *message.Router, bus *gochannel.GoChannel) error {
	if err := h.RegisterHandlers(router, bus); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(runCtx); err != nil {
					h.logger.Error("BUS_ROUTER_STOPPED", "err", err)
				}
			}()

			// Block startup until every consumer is attached so no early
			// frame slips past an unregistered handler.
			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return router.Close()
		},
	})

	return nil
}
