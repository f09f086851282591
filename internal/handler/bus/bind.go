package bus

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/talkio/realtime-client/internal/domain/model"
)

// DomainHandler defines the functional signature for business logic.
type DomainHandler[T any] func(ctx context.Context, frame *model.Frame, payload *T)

// [INFRASTRUCTURE_BRIDGE]
// Bind connects Watermill to domain logic, handling Panic Recovery and decoding.
func Bind[T any](h *EventHandler, fn DomainHandler[T]) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		// [PANIC_RECOVERY]
		// Safely handle runtime panics to keep the consumer alive.
		defer func() {
			if r := recover(); r != nil {
				h.metrics.HandlerPanics.Inc()
				h.logger.Error("PANIC_RECOVERED",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
			}
		}()

		frame, ok := h.decodeFrame(msg)
		if !ok {
			return nil // ACK: Poison Pill protection.
		}

		// [DECODING]
		payload := new(T)
		if err := frame.Decode(payload); err != nil {
			h.logger.Error("PAYLOAD_DECODE_FAILED", "err", err, "event", frame.Event, "msg_id", msg.UUID)
			return nil // ACK: Malformed payload is a terminal state.
		}

		fn(msg.Context(), frame, payload)
		return nil
	}
}

// Fanout mirrors a bus frame to the subscriber registry untouched. The
// registry owns its own per-handler recovery.
func (h *EventHandler) Fanout() message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		frame, ok := h.decodeFrame(msg)
		if !ok {
			return nil
		}
		h.registry.Dispatch(frame)
		return nil
	}
}

func (h *EventHandler) decodeFrame(msg *message.Message) (*model.Frame, bool) {
	frame := new(model.Frame)
	if err := json.Unmarshal(msg.Payload, frame); err != nil {
		h.logger.Error("FRAME_DECODE_FAILED", "err", err, "msg_id", msg.UUID)
		return nil, false
	}
	return frame, true
}
