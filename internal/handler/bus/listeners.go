package bus

import (
	"context"

	"github.com/talkio/realtime-client/internal/domain/model"
)

// [ON_CONNECTED]
// A (re)established connection drains whatever accumulated while offline.
func (h *EventHandler) OnConnected(ctx context.Context, _ *model.Frame, p *model.ConnectedPayload) {
	h.logger.Info("CHANNEL_ESTABLISHED", "connection_id", p.ConnectionID, "resumed", p.Resumed)
	h.outbox.Flush()
}

// [ON_MESSAGE_NEW]
// Incoming messages carry echo correlation: a non-empty local_id means this
// frame confirms one of our own optimistic sends.
func (h *EventHandler) OnMessageNew(ctx context.Context, _ *model.Frame, msg *model.InboundMessage) {
	if msg.LocalID != "" {
		h.outbox.BindServerID(msg.LocalID, msg.ID)
	}
	h.notifier.OnMessage(ctx, msg)
}

func (h *EventHandler) OnDeliveredReceipt(_ context.Context, _ *model.Frame, p *model.ReceiptPayload) {
	h.outbox.OnDelivered(p.IDs)
}

func (h *EventHandler) OnReadReceipt(_ context.Context, _ *model.Frame, p *model.ReceiptPayload) {
	h.outbox.OnRead(p.IDs)
}

func (h *EventHandler) OnTypingStart(_ context.Context, _ *model.Frame, sig *model.TypingSignal) {
	h.relay.OnTypingStart(*sig)
}

func (h *EventHandler) OnTypingStop(_ context.Context, _ *model.Frame, sig *model.TypingSignal) {
	h.relay.OnTypingStop(*sig)
}

func (h *EventHandler) OnUserOnline(_ context.Context, _ *model.Frame, p *model.PresencePayload) {
	h.relay.OnOnline(p.UserID)
}

func (h *EventHandler) OnUserOffline(_ context.Context, _ *model.Frame, p *model.PresencePayload) {
	h.relay.OnOffline(p.UserID)
}

func (h *EventHandler) OnCreditTransfer(ctx context.Context, _ *model.Frame, p *model.CreditTransferPayload) {
	h.notifier.OnCreditTransfer(ctx, p)
}

func (h *EventHandler) OnFriendRequest(ctx context.Context, _ *model.Frame, p *model.FriendPayload) {
	h.notifier.OnFriendRequest(ctx, p)
}

func (h *EventHandler) OnFriendAccepted(ctx context.Context, _ *model.Frame, p *model.FriendPayload) {
	h.notifier.OnFriendAccepted(ctx, p)
}

func (h *EventHandler) OnBroadcast(ctx context.Context, _ *model.Frame, p *model.AnnouncementPayload) {
	h.notifier.OnAnnouncement(ctx, model.CategoryBroadcast, p)
}

func (h *EventHandler) OnPromotion(ctx context.Context, _ *model.Frame, p *model.AnnouncementPayload) {
	h.notifier.OnAnnouncement(ctx, model.CategoryPromotion, p)
}

func (h *EventHandler) OnClaim(ctx context.Context, _ *model.Frame, p *model.AnnouncementPayload) {
	h.notifier.OnAnnouncement(ctx, model.CategoryClaim, p)
}

func (h *EventHandler) OnSystemNotice(ctx context.Context, _ *model.Frame, p *model.AnnouncementPayload) {
	h.notifier.OnAnnouncement(ctx, model.CategorySystem, p)
}
