package model

import (
	"encoding/json"
	"testing"
)

func TestNewFrame_WrapsPayload(t *testing.T) {
	frame, err := NewFrame(EventTypingStart, &TypingSignal{
		UserID: "u1", ConversationID: "conv-1", IsTyping: true,
	})
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if frame.Event != EventTypingStart || frame.ID == "" || frame.SentAt == 0 {
		t.Errorf("frame = %+v", frame)
	}

	var sig TypingSignal
	if err := frame.Decode(&sig); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sig.UserID != "u1" || !sig.IsTyping {
		t.Errorf("decoded = %+v", sig)
	}
}

func TestNewFrame_UnmarshalableFails(t *testing.T) {
	if _, err := NewFrame("bad", func() {}); err == nil {
		t.Error("NewFrame accepted an unmarshalable payload")
	}
}

func TestFrame_RoundtripsOverJSON(t *testing.T) {
	frame, err := NewFrame(EventMessageNew, &InboundMessage{ID: "m1", Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatal(err)
	}

	var back Frame
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	var msg InboundMessage
	if err := back.Decode(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.ID != "m1" || msg.Text != "hi" {
		t.Errorf("roundtripped = %+v", msg)
	}
}

func TestDecode_EmptyPayload(t *testing.T) {
	frame := &Frame{Event: "x"}
	var dst TypingSignal
	if err := frame.Decode(&dst); err == nil {
		t.Error("Decode of empty payload succeeded")
	}
}

func TestStatusRank_Ordering(t *testing.T) {
	order := []MessageStatus{StatusFailed, StatusSending, StatusSent, StatusDelivered, StatusRead}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s rank %d not above %s rank %d",
				order[i], order[i].Rank(), order[i-1], order[i-1].Rank())
		}
	}
}

func TestCategoryChannel_Mapping(t *testing.T) {
	cases := map[Category]string{
		CategoryMessage:        "messages",
		CategoryCreditTransfer: "credits",
		CategoryClaim:          "credits",
		CategoryPromotion:      "promotions",
		CategoryFriendRequest:  "friends",
		CategoryFriendAccepted: "friends",
		CategoryBroadcast:      "broadcasts",
		Category("unknown"):    "default",
	}
	for cat, want := range cases {
		if got := cat.Channel(); got != want {
			t.Errorf("Channel(%s) = %q, want %q", cat, got, want)
		}
	}
}

func TestConnState_String(t *testing.T) {
	cases := map[ConnState]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		ConnState(0):      "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("String(%d) = %q, want %q", s, got, want)
		}
	}
}
