// Package pubsub provides the in-process event bus: a Watermill gochannel
// Pub/Sub that carries every inbound and local frame, topic per event name.
package pubsub

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewBus builds the shared Pub/Sub. Non-persistent: a frame published with
// no subscriber is dropped, which matches the perishable nature of realtime
// events (durable state lives in the outbox and the history store).
func NewBus(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
}

// NewBusLogger bridges the application slog logger into Watermill.
func NewBusLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}
