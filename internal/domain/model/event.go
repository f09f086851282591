package model

// Event topics flowing through the realtime channel. Inbound topics are
// produced by the server push stream; local topics are synthesized by the
// subsystem itself and never leave the process.
const (
	// ------------------- LOCAL (SYNTHETIC) --------------------
	EventConnected     = "connected"
	EventDisconnected  = "disconnected"
	EventMessageQueued = "message:queued"

	// ------------------- MESSAGING ----------------------------
	EventMessageNew       = "message:new"
	EventMessageUpdated   = "message:updated"
	EventMessageDeleted   = "message:deleted"
	EventMessageDelivered = "message:delivered"
	EventMessageRead      = "message:read"

	// ------------------- EPHEMERAL SIGNALS --------------------
	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"
	EventUserOnline  = "user:online"
	EventUserOffline = "user:offline"

	// ------------------- ROOMS / BROADCAST --------------------
	EventRoomJoined   = "room:joined"
	EventRoomLeft     = "room:left"
	EventBroadcastNew = "broadcast:new"

	// ------------------- NOTIFICATION SOURCES -----------------
	EventCreditTransfer = "credit:transfer"
	EventFriendRequest  = "friend:request"
	EventFriendAccepted = "friend:accepted"
	EventPromotionNew   = "promotion:new"
	EventClaimNew       = "claim:new"
	EventSystemNotice   = "system:notice"

	// ------------------- OUTBOUND (CLIENT → SERVER) -----------
	EventMessageSend       = "message:send"
	EventReceiptsDelivered = "receipt:delivered"
	EventReceiptsRead      = "receipt:read"
)

// InboundTopics lists every server-pushed topic the channel republishes onto
// the internal bus. Used for table-driven handler registration.
var InboundTopics = []string{
	EventMessageNew,
	EventMessageUpdated,
	EventMessageDeleted,
	EventMessageDelivered,
	EventMessageRead,
	EventTypingStart,
	EventTypingStop,
	EventUserOnline,
	EventUserOffline,
	EventRoomJoined,
	EventRoomLeft,
	EventBroadcastNew,
	EventCreditTransfer,
	EventFriendRequest,
	EventFriendAccepted,
	EventPromotionNew,
	EventClaimNew,
	EventSystemNotice,
}

type ConnState int32

const (
	// [ZERO_VALUE_GUARD] Start from 1 to distinguish from uninitialized data.
	StateDisconnected ConnState = iota + 1
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
