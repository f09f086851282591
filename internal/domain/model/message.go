package model

// MessageType discriminates the content kind of a chat message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVoice MessageType = "voice"
	MessageFile  MessageType = "file"
)

// MessageStatus is the delivery state of an outbound message. Transitions are
// monotonic in the order sending < sent < delivered < read; failed is a
// visible-to-user pending state, not a terminal error.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// statusRank orders statuses for monotonic advancement. failed sits below
// sent so a queued message can still move forward on flush.
var statusRank = map[MessageStatus]int{
	StatusFailed:    0,
	StatusSending:   1,
	StatusSent:      2,
	StatusDelivered: 3,
	StatusRead:      4,
}

// Rank returns the ordering weight of the status; unknown statuses rank lowest.
func (s MessageStatus) Rank() int { return statusRank[s] }

// Draft carries the user-submitted content of a send action.
type Draft struct {
	Type    MessageType `json:"type"`
	Text    string      `json:"text,omitempty"`
	MediaID string      `json:"media_id,omitempty"`
}

// OutboundMessage is the optimistic local echo of a send action. It is
// visible in the UI before any server acknowledgement.
type OutboundMessage struct {
	LocalID        string        `json:"local_id"`
	ConversationID string        `json:"conversation_id"`
	Type           MessageType   `json:"type"`
	Text           string        `json:"text,omitempty"`
	MediaID        string        `json:"media_id,omitempty"`
	CreatedAt      int64         `json:"created_at"`
	Status         MessageStatus `json:"status"`
}

// InboundMessage is a server-pushed chat message (message:new payload).
type InboundMessage struct {
	ID             string      `json:"id"`
	LocalID        string      `json:"local_id,omitempty"` // echo correlation
	ConversationID string      `json:"conversation_id"`
	SenderID       string      `json:"sender_id"`
	SenderName     string      `json:"sender_name,omitempty"`
	Type           MessageType `json:"type"`
	Text           string      `json:"text,omitempty"`
	CreatedAt      int64       `json:"created_at"`
}

// ReceiptPayload carries delivery / read acknowledgements in either
// direction, matched against outbound messages by ID.
type ReceiptPayload struct {
	IDs []string `json:"ids"`
}
