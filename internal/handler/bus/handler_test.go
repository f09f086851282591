package bus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/talkio/realtime-client/internal/channel"
	"github.com/talkio/realtime-client/internal/domain/model"
	"github.com/talkio/realtime-client/internal/history"
	"github.com/talkio/realtime-client/internal/metrics"
	"github.com/talkio/realtime-client/internal/notify"
	"github.com/talkio/realtime-client/internal/outbox"
	"github.com/talkio/realtime-client/internal/presence"
	"github.com/talkio/realtime-client/internal/storage"
)

type fakeEmitter struct {
	mu  sync.Mutex
	err error
	n   int
}

func (f *fakeEmitter) Emit(string, any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.n++
	return nil
}

func (f *fakeEmitter) Connected() bool { return true }

func (f *fakeEmitter) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakePresenter struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (f *fakePresenter) Present(_ context.Context, a notify.Alert) error {
	f.mu.Lock()
	f.alerts = append(f.alerts, a)
	f.mu.Unlock()
	return nil
}

func (f *fakePresenter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

type allOnAPI struct{}

func (allOnAPI) NotificationSettings(context.Context) (notify.Settings, error) {
	return notify.DefaultSettings(), nil
}

type testRig struct {
	handler   *EventHandler
	registry  *channel.Registry
	outbox    *outbox.Outbox
	emitter   *fakeEmitter
	relay     *presence.Relay
	presenter *fakePresenter
	history   *history.Store
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()

	registry := channel.NewRegistry(logger)
	emitter := &fakeEmitter{}
	ob := outbox.New(emitter, &noopPublisher{}, 0, logger, m)
	relay := presence.New(emitter, 10*time.Second, logger)
	hist := history.New(storage.NewMemoryKV(), 100, logger, m)
	presenter := &fakePresenter{}
	settings := notify.NewSettingsProvider(allOnAPI{}, "", logger, m)
	sound := notify.NewSoundGate(storage.NewMemoryKV(), time.Second, logger)
	notifier := notify.NewRouter(settings, hist, presenter, sound, 64, logger, m)

	return &testRig{
		handler:   NewEventHandler(registry, ob, relay, notifier, logger, m),
		registry:  registry,
		outbox:    ob,
		emitter:   emitter,
		relay:     relay,
		presenter: presenter,
		history:   hist,
	}
}

type noopPublisher struct{}

func (*noopPublisher) Publish(string, ...*message.Message) error { return nil }
func (*noopPublisher) Close() error                              { return nil }

func frameMessage(t *testing.T, event string, payload any) *message.Message {
	t.Helper()
	frame, err := model.NewFrame(event, payload)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatal(err)
	}
	msg := message.NewMessage(frame.ID, data)
	msg.Metadata.Set("event", frame.Event)
	return msg
}

func TestBind_DecodesAndInvokes(t *testing.T) {
	rig := newTestRig(t)

	var got *model.TypingSignal
	h := Bind(rig.handler, func(_ context.Context, _ *model.Frame, p *model.TypingSignal) {
		got = p
	})

	msg := frameMessage(t, model.EventTypingStart, &model.TypingSignal{
		UserID: "u1", ConversationID: "conv-1", IsTyping: true,
	})
	if err := h(msg); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got == nil || got.UserID != "u1" || !got.IsTyping {
		t.Errorf("decoded payload = %+v", got)
	}
}

func TestBind_MalformedFrameIsAcked(t *testing.T) {
	rig := newTestRig(t)

	called := false
	h := Bind(rig.handler, func(context.Context, *model.Frame, *model.TypingSignal) {
		called = true
	})

	msg := message.NewMessage("m1", []byte("{not a frame"))
	if err := h(msg); err != nil {
		t.Fatalf("poison frame returned error (would redeliver): %v", err)
	}
	if called {
		t.Error("domain handler invoked for malformed frame")
	}
}

func TestBind_MalformedPayloadIsAcked(t *testing.T) {
	rig := newTestRig(t)

	called := false
	h := Bind(rig.handler, func(context.Context, *model.Frame, *model.TypingSignal) {
		called = true
	})

	msg := frameMessage(t, model.EventTypingStart, []string{"wrong", "shape"})
	if err := h(msg); err != nil {
		t.Fatalf("poison payload returned error: %v", err)
	}
	if called {
		t.Error("domain handler invoked for malformed payload")
	}
}

func TestBind_PanicRecovered(t *testing.T) {
	rig := newTestRig(t)

	h := Bind(rig.handler, func(context.Context, *model.Frame, *model.TypingSignal) {
		panic("handler bug")
	})

	msg := frameMessage(t, model.EventTypingStart, &model.TypingSignal{UserID: "u1"})
	if err := h(msg); err != nil {
		t.Fatalf("recovered panic surfaced as error: %v", err)
	}
}

func TestFanout_DispatchesToRegistry(t *testing.T) {
	rig := newTestRig(t)

	var seen []string
	rig.registry.On(model.EventMessageNew, func(f *model.Frame) {
		seen = append(seen, f.Event)
	})

	h := rig.handler.Fanout()
	msg := frameMessage(t, model.EventMessageNew, &model.InboundMessage{ID: "m1"})
	if err := h(msg); err != nil {
		t.Fatalf("fanout error: %v", err)
	}
	if len(seen) != 1 || seen[0] != model.EventMessageNew {
		t.Errorf("registry saw %v", seen)
	}
}

func TestListeners_ReceiptsAdvanceOutbox(t *testing.T) {
	rig := newTestRig(t)

	sent := rig.outbox.Send("conv-1", model.Draft{Type: model.MessageText, Text: "hi"})
	rig.handler.OnDeliveredReceipt(context.Background(), nil, &model.ReceiptPayload{IDs: []string{sent.LocalID}})

	got, _ := rig.outbox.Message(sent.LocalID)
	if got.Status != model.StatusDelivered {
		t.Errorf("status = %v, want delivered", got.Status)
	}

	rig.handler.OnReadReceipt(context.Background(), nil, &model.ReceiptPayload{IDs: []string{sent.LocalID}})
	got, _ = rig.outbox.Message(sent.LocalID)
	if got.Status != model.StatusRead {
		t.Errorf("status = %v, want read", got.Status)
	}
}

func TestListeners_MessageNewBindsEcho(t *testing.T) {
	rig := newTestRig(t)

	sent := rig.outbox.Send("conv-1", model.Draft{Type: model.MessageText, Text: "hi"})
	rig.handler.OnMessageNew(context.Background(), nil, &model.InboundMessage{
		ID:      "srv-9",
		LocalID: sent.LocalID,
		Type:    model.MessageText,
		Text:    "hi",
	})

	// Receipts addressed by server id now resolve.
	rig.handler.OnDeliveredReceipt(context.Background(), nil, &model.ReceiptPayload{IDs: []string{"srv-9"}})
	got, _ := rig.outbox.Message(sent.LocalID)
	if got.Status != model.StatusDelivered {
		t.Errorf("status = %v, want delivered via server id", got.Status)
	}
}

func TestRouter_EndToEnd(t *testing.T) {
	rig := newTestRig(t)
	logger := watermill.NopLogger{}
	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, logger)

	router, err := NewBusRouter(logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.handler.RegisterHandlers(router, bus); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router never started")
	}
	defer router.Close()

	// Queue a message while "offline", then let a connected event flush it.
	rig.emitter.setErr(errors.New("not connected"))
	rig.outbox.Send("conv-1", model.Draft{Type: model.MessageText, Text: "queued"})
	if rig.outbox.Stats().Pending != 1 {
		t.Fatal("message not queued")
	}
	rig.emitter.setErr(nil)

	if err := bus.Publish(model.EventConnected, frameMessage(t, model.EventConnected, &model.ConnectedPayload{
		Ok: true, ConnectionID: "c1",
	})); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return rig.outbox.Stats().Pending == 0 }, "outbox flushed")

	// An inbound chat message raises an alert and lands in history.
	if err := bus.Publish(model.EventMessageNew, frameMessage(t, model.EventMessageNew, &model.InboundMessage{
		ID: "m1", ConversationID: "conv-2", SenderID: "u2", SenderName: "Alice",
		Type: model.MessageText, Text: "hello",
	})); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return rig.presenter.count() == 1 }, "alert surfaced")
	waitFor(t, func() bool { return rig.history.UnreadCount() == 1 }, "history recorded")

	// Typing events reach the relay.
	if err := bus.Publish(model.EventTypingStart, frameMessage(t, model.EventTypingStart, &model.TypingSignal{
		UserID: "u2", ConversationID: "conv-2", IsTyping: true,
	})); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return rig.relay.IsTyping("u2", "conv-2") }, "typing relayed")
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
