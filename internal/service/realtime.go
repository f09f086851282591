package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talkio/realtime-client/internal/adapter/settingsapi"
	"github.com/talkio/realtime-client/internal/channel"
	"github.com/talkio/realtime-client/internal/domain/model"
	"github.com/talkio/realtime-client/internal/history"
	"github.com/talkio/realtime-client/internal/notify"
	"github.com/talkio/realtime-client/internal/outbox"
	"github.com/talkio/realtime-client/internal/presence"
)

// [REALTIME_SERVICE] PRIMARY INTERFACE FOR HOST APPLICATIONS
type Realtimer interface {
	Connect(ctx context.Context, token, userID string) error
	Disconnect()
	Connected() bool

	On(event string, h channel.Handler) uuid.UUID
	Off(event string, id uuid.UUID)

	SendMessage(conversationID string, draft model.Draft) *model.OutboundMessage
	Message(id string) (model.OutboundMessage, bool)
	MarkAsDelivered(messageIDs []string)
	MarkAsRead(messageIDs []string)

	SendTyping(conversationID string)
	SendStopTyping(conversationID string)
	IsTyping(userID, conversationID string) bool
	TypingIn(conversationID string) []string
	IsOnline(userID string) bool

	SetActiveConversation(conversationID string)
	ShowNotification(title, body string, category model.Category, data map[string]string)
	Notifications() []model.NotificationRecord
	MarkNotificationRead(id string)
	MarkAllNotificationsRead()
	ClearNotifications()
	UnreadCount() int

	Stats() model.Stats
}

// [IMPLEMENTATION] PRIVATE TO ENFORCE INTERFACE USAGE
type RealtimeService struct {
	channel  channel.Channeler
	outbox   *outbox.Outbox
	relay    *presence.Relay
	notifier *notify.Router
	history  *history.Store
	creds    settingsapi.Credentialer
	logger   *slog.Logger
}

func NewRealtimeService(
	ch channel.Channeler,
	ob *outbox.Outbox,
	relay *presence.Relay,
	notifier *notify.Router,
	hist *history.Store,
	creds settingsapi.Credentialer,
	logger *slog.Logger,
) *RealtimeService {
	return &RealtimeService{
		channel:  ch,
		outbox:   ob,
		relay:    relay,
		notifier: notifier,
		history:  hist,
		creds:    creds,
		logger:   logger,
	}
}

// Connect opens the event channel for the given identity. The identity also
// seeds own-echo suppression in the notification router.
func (s *RealtimeService) Connect(ctx context.Context, token, userID string) error {
	s.notifier.SetSelfUser(userID)
	s.creds.SetCredentials(token)
	return s.channel.Connect(ctx, token, userID)
}

// Disconnect tears the channel down deliberately. Pending optimistic sends
// are discarded rather than kept for a future identity.
func (s *RealtimeService) Disconnect() {
	s.outbox.Discard()
	s.channel.Disconnect()
}

func (s *RealtimeService) Connected() bool { return s.channel.Connected() }

func (s *RealtimeService) On(event string, h channel.Handler) uuid.UUID {
	return s.channel.Registry().On(event, h)
}

func (s *RealtimeService) Off(event string, id uuid.UUID) {
	s.channel.Registry().Off(event, id)
}

func (s *RealtimeService) SendMessage(conversationID string, draft model.Draft) *model.OutboundMessage {
	return s.outbox.Send(conversationID, draft)
}

func (s *RealtimeService) Message(id string) (model.OutboundMessage, bool) {
	return s.outbox.Message(id)
}

// MarkAsDelivered reports received server messages back as a delivery
// receipt. Best-effort: a downed channel drops the receipt, the server
// re-derives delivery state on the next resume.
func (s *RealtimeService) MarkAsDelivered(messageIDs []string) {
	s.emitReceipt(model.EventReceiptsDelivered, messageIDs)
}

func (s *RealtimeService) MarkAsRead(messageIDs []string) {
	s.emitReceipt(model.EventReceiptsRead, messageIDs)
}

func (s *RealtimeService) emitReceipt(event string, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.channel.Emit(event, &model.ReceiptPayload{IDs: ids}); err != nil {
		s.logger.Debug("RECEIPT_DROPPED", "event", event, "count", len(ids), "err", err)
	}
}

func (s *RealtimeService) SendTyping(conversationID string)     { s.relay.SendTyping(conversationID) }
func (s *RealtimeService) SendStopTyping(conversationID string) { s.relay.SendStopTyping(conversationID) }

func (s *RealtimeService) IsTyping(userID, conversationID string) bool {
	return s.relay.IsTyping(userID, conversationID)
}

func (s *RealtimeService) TypingIn(conversationID string) []string {
	return s.relay.TypingIn(conversationID)
}

func (s *RealtimeService) IsOnline(userID string) bool { return s.relay.IsOnline(userID) }

func (s *RealtimeService) SetActiveConversation(conversationID string) {
	s.notifier.SetActiveConversation(conversationID)
}

func (s *RealtimeService) ShowNotification(title, body string, category model.Category, data map[string]string) {
	s.notifier.Show(title, body, category, data)
}

func (s *RealtimeService) Notifications() []model.NotificationRecord { return s.history.History() }
func (s *RealtimeService) MarkNotificationRead(id string)            { s.history.MarkAsRead(id) }
func (s *RealtimeService) MarkAllNotificationsRead()                 { s.history.MarkAllAsRead() }
func (s *RealtimeService) ClearNotifications()                       { s.history.Clear() }
func (s *RealtimeService) UnreadCount() int                          { return s.history.UnreadCount() }

func (s *RealtimeService) Stats() model.Stats {
	return model.Stats{
		Channel: s.channel.Stats(),
		Queue:   s.outbox.Stats(),
		History: s.history.Stats(),
	}
}
