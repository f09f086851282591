package model

// Category classifies a surfaced notification. Closed set.
type Category string

const (
	CategoryMessage        Category = "message"
	CategoryCreditTransfer Category = "credit_transfer"
	CategoryFriendRequest  Category = "friend_request"
	CategoryFriendAccepted Category = "friend_accepted"
	CategoryPromotion      Category = "promotion"
	CategoryBroadcast      Category = "broadcast"
	CategoryClaim          Category = "claim"
	CategorySystem         Category = "system"
)

// Channel resolves the platform-level grouping channel for the category.
func (c Category) Channel() string {
	switch c {
	case CategoryMessage:
		return "messages"
	case CategoryCreditTransfer, CategoryClaim:
		return "credits"
	case CategoryPromotion:
		return "promotions"
	case CategoryFriendRequest, CategoryFriendAccepted:
		return "friends"
	case CategoryBroadcast:
		return "broadcasts"
	default:
		return "default"
	}
}

// NotificationRecord is one surfaced alert as kept by the history store.
type NotificationRecord struct {
	ID        string            `json:"id"`
	Category  Category          `json:"category"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp int64             `json:"timestamp"`
	IsRead    bool              `json:"is_read"`
}

// CreditTransferPayload is the credit:transfer event body.
type CreditTransferPayload struct {
	TransferID string  `json:"transfer_id"`
	SenderID   string  `json:"sender_id"`
	SenderName string  `json:"sender_name,omitempty"`
	Amount     float64 `json:"amount"`
	Incoming   bool    `json:"incoming"`
}

// FriendPayload covers friend:request and friend:accepted bodies.
type FriendPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// AnnouncementPayload covers promotion:new, broadcast:new, claim:new and
// system:notice bodies.
type AnnouncementPayload struct {
	ID       string            `json:"id"`
	SenderID string            `json:"sender_id,omitempty"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}
