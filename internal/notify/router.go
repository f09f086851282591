// Package notify turns inbound server events into locally visible alerts:
// it classifies them, enforces settings gating, active-conversation
// suppression and sound rate-limiting, and records every surfaced alert in
// the history store.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lithammer/shortuuid/v3"

	"github.com/talkio/realtime-client/internal/domain/model"
	"github.com/talkio/realtime-client/internal/history"
	"github.com/talkio/realtime-client/internal/metrics"
)

// Alert is what the platform layer is asked to render. The subsystem only
// decides what to show; the OS decides how.
type Alert struct {
	Title    string
	Body     string
	Category model.Category
	Channel  string
	Data     map[string]string
	Sound    bool
}

// Presenter is the host-platform rendering collaborator.
type Presenter interface {
	Present(ctx context.Context, alert Alert) error
}

// LogPresenter is the daemon default: it only logs the alert.
type LogPresenter struct {
	Logger *slog.Logger
}

func (p *LogPresenter) Present(_ context.Context, alert Alert) error {
	p.Logger.Info("alert surfaced",
		"category", alert.Category,
		"channel", alert.Channel,
		"title", alert.Title,
		"sound", alert.Sound,
	)
	return nil
}

type Router struct {
	settings  *SettingsProvider
	history   *history.Store
	presenter Presenter
	sound     *SoundGate
	dedup     *lru.Cache[string, struct{}]
	logger    *slog.Logger
	metrics   *metrics.Set
	now       func() time.Time

	mu                 sync.Mutex
	activeConversation string
	selfUserID         string
}

func NewRouter(settings *SettingsProvider, hist *history.Store, presenter Presenter, sound *SoundGate, dedupSize int, logger *slog.Logger, m *metrics.Set) *Router {
	if dedupSize <= 0 {
		dedupSize = 4096
	}
	dedup, _ := lru.New[string, struct{}](dedupSize)
	return &Router{
		settings:  settings,
		history:   hist,
		presenter: presenter,
		sound:     sound,
		dedup:     dedup,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// SetActiveConversation marks the conversation the UI is currently showing
// live; inbound messages from it are not alerted. Empty clears the marker.
func (r *Router) SetActiveConversation(conversationID string) {
	r.mu.Lock()
	r.activeConversation = conversationID
	r.mu.Unlock()
}

// SetSelfUser records the logged-in user so echoes of own sends are never
// alerted. Set once per connect.
func (r *Router) SetSelfUser(userID string) {
	r.mu.Lock()
	r.selfUserID = userID
	r.mu.Unlock()
}

// OnMessage handles a message:new event.
func (r *Router) OnMessage(ctx context.Context, msg *model.InboundMessage) {
	if r.seen(msg.ID) {
		return
	}
	s := r.settings.Current(ctx)
	if !s.PushNotifications || !s.Messages {
		r.suppressed("settings")
		return
	}

	r.mu.Lock()
	active := r.activeConversation
	self := r.selfUserID
	r.mu.Unlock()

	// The UI already shows the open conversation live; alerting it again
	// would double-notify. Own echoes are never alerted.
	if msg.SenderID != "" && msg.SenderID == self {
		r.suppressed("own_echo")
		return
	}
	if active != "" && (msg.SenderID == active || msg.ConversationID == active) {
		r.suppressed("active_conversation")
		return
	}

	title := msg.SenderName
	if title == "" {
		title = "New message"
	}
	r.surface(Alert{
		Title:    title,
		Body:     messageBody(msg),
		Category: model.CategoryMessage,
		Data: map[string]string{
			"conversation_id": msg.ConversationID,
			"sender_id":       msg.SenderID,
			"message_id":      msg.ID,
		},
	})
}

func messageBody(msg *model.InboundMessage) string {
	switch msg.Type {
	case model.MessageVoice:
		return "🎤 Voice message"
	case model.MessageImage:
		return "📷 Photo"
	case model.MessageFile:
		return "📎 File"
	default:
		return msg.Text
	}
}

// OnCreditTransfer handles a credit:transfer event. Only the global switch
// gates it; credits have no per-category setting.
func (r *Router) OnCreditTransfer(ctx context.Context, p *model.CreditTransferPayload) {
	if r.seen(p.TransferID) {
		return
	}
	if !r.settings.Current(ctx).PushNotifications {
		r.suppressed("settings")
		return
	}
	body := fmt.Sprintf("You sent %.0f credits", p.Amount)
	title := "Credits sent"
	if p.Incoming {
		title = "Credits received"
		body = fmt.Sprintf("%s sent you %.0f credits", senderLabel(p.SenderName), p.Amount)
	}
	r.surface(Alert{
		Title:    title,
		Body:     body,
		Category: model.CategoryCreditTransfer,
		Data:     map[string]string{"transfer_id": p.TransferID, "sender_id": p.SenderID},
	})
}

func senderLabel(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}

// OnFriendRequest handles friend:request.
func (r *Router) OnFriendRequest(ctx context.Context, p *model.FriendPayload) {
	r.onFriend(ctx, p, model.CategoryFriendRequest,
		"Friend request", fmt.Sprintf("%s wants to be your friend", senderLabel(p.Username)))
}

// OnFriendAccepted handles friend:accepted.
func (r *Router) OnFriendAccepted(ctx context.Context, p *model.FriendPayload) {
	r.onFriend(ctx, p, model.CategoryFriendAccepted,
		"Friend request accepted", fmt.Sprintf("%s accepted your friend request", senderLabel(p.Username)))
}

func (r *Router) onFriend(ctx context.Context, p *model.FriendPayload, cat model.Category, title, body string) {
	if r.seen(string(cat) + ":" + p.UserID) {
		return
	}
	s := r.settings.Current(ctx)
	if !s.PushNotifications || !s.FriendRequests {
		r.suppressed("settings")
		return
	}
	r.surface(Alert{
		Title:    title,
		Body:     body,
		Category: cat,
		Data:     map[string]string{"user_id": p.UserID},
	})
}

// OnAnnouncement handles promotion:new, broadcast:new, claim:new and
// system:notice. No active-conversation suppression applies: none of these
// are tied to a single open screen.
func (r *Router) OnAnnouncement(ctx context.Context, cat model.Category, p *model.AnnouncementPayload) {
	if r.seen(p.ID) {
		return
	}
	s := r.settings.Current(ctx)
	if !s.PushNotifications {
		r.suppressed("settings")
		return
	}
	if (cat == model.CategoryPromotion || cat == model.CategoryClaim) && !s.PromotionsRewards {
		r.suppressed("settings")
		return
	}
	r.surface(Alert{
		Title:    p.Title,
		Body:     p.Body,
		Category: cat,
		Data:     p.Data,
	})
}

// Show is the direct surfacing path for alerts that do not originate from
// the channel. The caller already decided to surface; no gating applies.
func (r *Router) Show(title, body string, category model.Category, data map[string]string) {
	r.surface(Alert{Title: title, Body: body, Category: category, Data: data})
}

// seen reports whether the event id was already processed. The transport is
// at-least-once; a redelivered push must not double-notify.
func (r *Router) seen(id string) bool {
	if id == "" {
		return false
	}
	if _, dup := r.dedup.Get(id); dup {
		r.suppressed("duplicate")
		return true
	}
	r.dedup.Add(id, struct{}{})
	return false
}

func (r *Router) suppressed(reason string) {
	r.metrics.AlertsSuppressed.WithLabelValues(reason).Inc()
}

// surface records the alert in history unconditionally and asks the
// presenter to render it. Only the sound is ever rate-limited; history and
// the visual alert are not.
func (r *Router) surface(alert Alert) {
	now := r.now()
	alert.Channel = alert.Category.Channel()
	alert.Sound = r.sound.AllowAt(now)

	r.history.Append(model.NotificationRecord{
		ID:        shortuuid.New(),
		Category:  alert.Category,
		Title:     alert.Title,
		Body:      alert.Body,
		Data:      alert.Data,
		Timestamp: now.UnixMilli(),
	})

	r.metrics.AlertsSurfaced.WithLabelValues(string(alert.Category)).Inc()
	if alert.Sound {
		r.metrics.SoundsPlayed.Inc()
	}
	if err := r.presenter.Present(context.Background(), alert); err != nil {
		r.logger.Warn("presenter failed", "category", alert.Category, "error", err)
	}
}
