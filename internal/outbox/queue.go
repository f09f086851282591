// Package outbox gives every outbound message an immediate optimistic local
// representation and guarantees at-least-once transmission for the lifetime
// of the session: sends that fail while disconnected are queued in memory
// and flushed in FIFO order on reconnect.
package outbox

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/oklog/ulid"

	"github.com/talkio/realtime-client/internal/domain/model"
	"github.com/talkio/realtime-client/internal/metrics"
)

// Emitter is the slice of the channel the outbox needs.
type Emitter interface {
	Emit(event string, payload any) error
	Connected() bool
}

type Outbox struct {
	emitter Emitter
	pub     message.Publisher
	logger  *slog.Logger
	metrics *metrics.Set

	mu      sync.Mutex
	pending []*model.OutboundMessage
	tracked map[string]*model.OutboundMessage // keyed by local AND server ID
	entropy io.Reader // monotonic; reads are serialized by mu
	maxPend int
	now     func() time.Time
}

func New(emitter Emitter, pub message.Publisher, maxPending int, logger *slog.Logger, m *metrics.Set) *Outbox {
	return &Outbox{
		emitter: emitter,
		pub:     pub,
		logger:  logger,
		metrics: m,
		tracked: make(map[string]*model.OutboundMessage),
		entropy: ulid.Monotonic(rand.Reader, 0),
		maxPend: maxPending,
		now:     time.Now,
	}
}

// newLocalID derives a unique id from timestamp + random suffix; unlike a
// counter it stays unique across reconnects and process restarts.
func (o *Outbox) newLocalID() string {
	return ulid.MustNew(ulid.Timestamp(o.now()), o.entropy).String()
}

// Send creates the optimistic echo and attempts immediate transmission.
// The returned copy always carries status sending: it is the echo the UI
// renders right away, while the tracked message advances to sent or failed
// with the outcome of the first attempt.
func (o *Outbox) Send(conversationID string, draft model.Draft) *model.OutboundMessage {
	o.mu.Lock()
	msg := &model.OutboundMessage{
		LocalID:        o.newLocalID(),
		ConversationID: conversationID,
		Type:           draft.Type,
		Text:           draft.Text,
		MediaID:        draft.MediaID,
		CreatedAt:      o.now().UnixMilli(),
		Status:         model.StatusSending,
	}
	o.tracked[msg.LocalID] = msg
	echo := *msg
	o.mu.Unlock()

	o.attempt(msg)
	return &echo
}

// attempt emits the message and advances its status by the outcome; on
// failure the message joins the FIFO queue and a local message:queued event
// tells the UI the item is pending, not lost.
func (o *Outbox) attempt(msg *model.OutboundMessage) {
	err := o.emitter.Emit(model.EventMessageSend, msg)

	o.mu.Lock()
	if err != nil {
		o.advanceLocked(msg, model.StatusFailed)
		if o.maxPend > 0 && len(o.pending) >= o.maxPend {
			// Oldest-first eviction keeps the bound; the dropped message
			// stays visible as failed so the user can retry it manually.
			dropped := o.pending[0]
			o.pending = o.pending[1:]
			o.logger.Warn("outbox full, dropping oldest queued message",
				"local_id", dropped.LocalID)
		}
		o.pending = append(o.pending, msg)
		depth := len(o.pending)
		o.mu.Unlock()

		o.metrics.QueueDepth.Set(float64(depth))
		o.publishLocal(model.EventMessageQueued, msg)
		return
	}
	o.advanceLocked(msg, model.StatusSent)
	o.mu.Unlock()
}

// Flush drains the queue strictly oldest-first. Each item is emitted at
// most once per pass; an item whose emit fails (the channel dropped again)
// is re-queued together with everything behind it, order preserved.
func (o *Outbox) Flush() {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()

	for i, msg := range batch {
		o.mu.Lock()
		o.advanceLocked(msg, model.StatusSending)
		o.mu.Unlock()

		if err := o.emitter.Emit(model.EventMessageSend, msg); err != nil {
			o.mu.Lock()
			o.advanceLocked(msg, model.StatusFailed)
			o.pending = append(batch[i:], o.pending...)
			depth := len(o.pending)
			o.mu.Unlock()
			o.metrics.QueueDepth.Set(float64(depth))
			o.logger.Warn("flush interrupted, messages requeued",
				"requeued", len(batch)-i, "error", err)
			return
		}
		o.mu.Lock()
		o.advanceLocked(msg, model.StatusSent)
		o.mu.Unlock()
		o.metrics.QueueFlushed.Inc()
	}
	o.metrics.QueueDepth.Set(0)
}

// Discard drops all queued-but-unsent messages. Called on explicit
// disconnect; callers must not assume queued messages survive it.
func (o *Outbox) Discard() {
	o.mu.Lock()
	n := len(o.pending)
	o.pending = nil
	o.mu.Unlock()
	if n > 0 {
		o.logger.Info("outbox discarded", "dropped", n)
	}
	o.metrics.QueueDepth.Set(0)
}

// BindServerID registers the server-assigned id of a confirmed echo so
// later receipts can match by either identifier.
func (o *Outbox) BindServerID(localID, serverID string) {
	if serverID == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if msg, ok := o.tracked[localID]; ok {
		o.tracked[serverID] = msg
	}
}

// OnDelivered advances matched messages to delivered.
func (o *Outbox) OnDelivered(ids []string) { o.onReceipt(ids, model.StatusDelivered) }

// OnRead advances matched messages to read. A read receipt with no prior
// delivery receipt still moves the message straight to read.
func (o *Outbox) OnRead(ids []string) { o.onReceipt(ids, model.StatusRead) }

func (o *Outbox) onReceipt(ids []string, target model.MessageStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		if msg, ok := o.tracked[id]; ok {
			o.advanceLocked(msg, target)
		}
	}
}

// advanceLocked moves the status forward only; receipts arriving out of
// order can never regress a message.
func (o *Outbox) advanceLocked(msg *model.OutboundMessage, target model.MessageStatus) {
	if target.Rank() > msg.Status.Rank() ||
		(target == model.StatusFailed && msg.Status == model.StatusSending) ||
		(target == model.StatusSending && msg.Status == model.StatusFailed) {
		msg.Status = target
	}
}

// Message returns a copy of the tracked message, if any.
func (o *Outbox) Message(id string) (model.OutboundMessage, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if msg, ok := o.tracked[id]; ok {
		return *msg, true
	}
	return model.OutboundMessage{}, false
}

func (o *Outbox) Stats() model.QueueStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return model.QueueStats{Pending: len(o.pending), Tracked: len(o.tracked)}
}

func (o *Outbox) publishLocal(event string, payload any) {
	frame, err := model.NewFrame(event, payload)
	if err != nil {
		o.logger.Error("local frame build failed", "event", event, "error", err)
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	msg := message.NewMessage(frame.ID, data)
	msg.Metadata.Set("event", frame.Event)
	if err := o.pub.Publish(event, msg); err != nil {
		o.logger.Error("bus publish failed", "event", event, "error", err)
	}
}
