package channel

import (
	"io"
	"log/slog"
	"testing"

	"github.com/talkio/realtime-client/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_FanOutInOrder(t *testing.T) {
	r := NewRegistry(testLogger())

	var order []int
	r.On("message:new", func(*model.Frame) { order = append(order, 1) })
	r.On("message:new", func(*model.Frame) { order = append(order, 2) })
	r.On("message:new", func(*model.Frame) { order = append(order, 3) })

	r.Dispatch(&model.Frame{Event: "message:new"})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("dispatch order = %v, want [1 2 3]", order)
	}
}

func TestRegistry_OffRemovesOnlyThatHandler(t *testing.T) {
	r := NewRegistry(testLogger())

	var a, b int
	idA := r.On("typing:start", func(*model.Frame) { a++ })
	r.On("typing:start", func(*model.Frame) { b++ })

	r.Dispatch(&model.Frame{Event: "typing:start"})
	r.Off("typing:start", idA)
	r.Dispatch(&model.Frame{Event: "typing:start"})

	if a != 1 {
		t.Errorf("removed handler fired %d times, want 1", a)
	}
	if b != 2 {
		t.Errorf("remaining handler fired %d times, want 2", b)
	}
}

func TestRegistry_PanicDoesNotBreakFanOut(t *testing.T) {
	r := NewRegistry(testLogger())

	var after bool
	r.On("message:new", func(*model.Frame) { panic("handler bug") })
	r.On("message:new", func(*model.Frame) { after = true })

	r.Dispatch(&model.Frame{Event: "message:new"})

	if !after {
		t.Error("handler behind the panicking one never ran")
	}
}

func TestRegistry_UnknownEventIsNoop(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Dispatch(&model.Frame{Event: "nobody:listens"}) // must not panic
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry(testLogger())

	fired := false
	r.On("message:new", func(*model.Frame) { fired = true })
	r.Clear()
	r.Dispatch(&model.Frame{Event: "message:new"})

	if fired {
		t.Error("handler fired after Clear")
	}
	if got := r.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}
