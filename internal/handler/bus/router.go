package bus

import (
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/talkio/realtime-client/internal/channel"
	"github.com/talkio/realtime-client/internal/domain/model"
	"github.com/talkio/realtime-client/internal/metrics"
	"github.com/talkio/realtime-client/internal/notify"
	"github.com/talkio/realtime-client/internal/outbox"
	"github.com/talkio/realtime-client/internal/presence"
)

// EventHandler consumes bus frames and drives the domain subsystems.
type EventHandler struct {
	registry *channel.Registry
	outbox   *outbox.Outbox
	relay    *presence.Relay
	notifier *notify.Router
	logger   *slog.Logger
	metrics  *metrics.Set
}

func NewEventHandler(
	registry *channel.Registry,
	ob *outbox.Outbox,
	relay *presence.Relay,
	notifier *notify.Router,
	logger *slog.Logger,
	m *metrics.Set,
) *EventHandler {
	return &EventHandler{registry, ob, relay, notifier, logger, m}
}

func NewBusRouter(logger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{
		CloseTimeout: 10 * time.Second,
	}, logger)
}

// [REGISTRATION_PIPELINE]
func (h *EventHandler) RegisterHandlers(router *message.Router, bus *gochannel.GoChannel) error {
	configs := []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		// Lifecycle.
		{"ON_CONNECTED", model.EventConnected, Bind(h, h.OnConnected)},

		// Messaging.
		{"ON_MSG_NEW", model.EventMessageNew, Bind(h, h.OnMessageNew)},
		{"ON_RECEIPT_DELIVERED", model.EventMessageDelivered, Bind(h, h.OnDeliveredReceipt)},
		{"ON_RECEIPT_READ", model.EventMessageRead, Bind(h, h.OnReadReceipt)},

		// Ephemeral signals.
		{"ON_TYPING_START", model.EventTypingStart, Bind(h, h.OnTypingStart)},
		{"ON_TYPING_STOP", model.EventTypingStop, Bind(h, h.OnTypingStop)},
		{"ON_USER_ONLINE", model.EventUserOnline, Bind(h, h.OnUserOnline)},
		{"ON_USER_OFFLINE", model.EventUserOffline, Bind(h, h.OnUserOffline)},

		// Notification sources.
		{"ON_CREDIT_TRANSFER", model.EventCreditTransfer, Bind(h, h.OnCreditTransfer)},
		{"ON_FRIEND_REQUEST", model.EventFriendRequest, Bind(h, h.OnFriendRequest)},
		{"ON_FRIEND_ACCEPTED", model.EventFriendAccepted, Bind(h, h.OnFriendAccepted)},
		{"ON_BROADCAST_NEW", model.EventBroadcastNew, Bind(h, h.OnBroadcast)},
		{"ON_PROMOTION_NEW", model.EventPromotionNew, Bind(h, h.OnPromotion)},
		{"ON_CLAIM_NEW", model.EventClaimNew, Bind(h, h.OnClaim)},
		{"ON_SYSTEM_NOTICE", model.EventSystemNotice, Bind(h, h.OnSystemNotice)},
	}

	for _, c := range configs {
		router.AddConsumerHandler(c.name, c.topic, bus, c.handler).AddMiddleware(
			LoggingMiddleware(h.logger),
			middleware.Timeout(time.Second*30),
		)
	}

	// [SUBSCRIBER_FAN_OUT]
	// Every topic, including locally synthesized ones, is mirrored to the
	// application-facing registry so On/Off callbacks observe the full stream.
	fanned := make([]string, 0, len(model.InboundTopics)+3)
	fanned = append(fanned, model.InboundTopics...)
	fanned = append(fanned, model.EventConnected, model.EventDisconnected, model.EventMessageQueued)
	for _, topic := range fanned {
		router.AddConsumerHandler("FANOUT_"+topic, topic, bus, h.Fanout())
	}

	h.logger.Info("BUS_PIPELINE_READY", "handlers", len(configs), "fanout_topics", len(fanned))
	return nil
}
