package model

// TypingSignal is an ephemeral typing indicator. Never persisted; the relay
// keeps it last-write-wins per (UserID, ConversationID).
type TypingSignal struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

// PresencePayload is the user:online / user:offline event body.
type PresencePayload struct {
	UserID string `json:"user_id"`
}

// RoomPayload is the room:joined / room:left event body.
type RoomPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}
