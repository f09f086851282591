package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Frame is the wire envelope for every packet crossing the duplex channel,
// in both directions. The payload stays raw until a consumer that knows the
// topic shape decodes it.
type Frame struct {
	Event   string          `json:"event"`
	ID      string          `json:"id"`
	SentAt  int64           `json:"sent_at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame wraps a payload for transmission. Marshal failures are reported
// to the caller instead of producing a half-built frame.
func NewFrame(event string, payload any) (*Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("frame %q: marshal payload: %w", event, err)
	}
	return &Frame{
		Event:   event,
		ID:      uuid.NewString(),
		SentAt:  time.Now().UnixMilli(),
		Payload: raw,
	}, nil
}

// Decode unmarshals the raw payload into dst.
func (f *Frame) Decode(dst any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("frame %q: empty payload", f.Event)
	}
	if err := json.Unmarshal(f.Payload, dst); err != nil {
		return fmt.Errorf("frame %q: decode payload: %w", f.Event, err)
	}
	return nil
}

// ConnectedPayload is delivered locally when the channel (re)establishes.
type ConnectedPayload struct {
	Ok           bool   `json:"ok"`
	ConnectionID string `json:"connection_id"`
	Resumed      bool   `json:"resumed"`
}

// DisconnectedPayload is delivered locally before the channel gives up or
// tears down. Code is one of "SHUTDOWN", "AUTH", "EXHAUSTED", "REMOTE".
type DisconnectedPayload struct {
	Reason string `json:"reason"`
	Code   string `json:"code,omitempty"`
}
