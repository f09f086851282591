// Package presence relays ephemeral online/typing signals. Nothing here is
// persisted: outbound signals are dropped when the channel is down (typing
// is inherently perishable) and inbound state lives in a transient map.
package presence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/talkio/realtime-client/internal/channel"
	"github.com/talkio/realtime-client/internal/domain/model"
)

// Emitter is the slice of the channel the relay needs.
type Emitter interface {
	Emit(event string, payload any) error
	Connected() bool
}

type typingKey struct {
	userID         string
	conversationID string
}

type Relay struct {
	emitter Emitter
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	mu     sync.Mutex
	typing map[typingKey]time.Time // last-write-wins, value = last seen
	online map[string]struct{}
}

func New(emitter Emitter, ttl time.Duration, logger *slog.Logger) *Relay {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Relay{
		emitter: emitter,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
		typing:  make(map[typingKey]time.Time),
		online:  make(map[string]struct{}),
	}
}

// SendTyping signals typing into the target conversation. Silently dropped
// while disconnected; a stale typing signal delivered late is worse than a
// missing one.
func (r *Relay) SendTyping(conversationID string) {
	r.send(model.EventTypingStart, conversationID)
}

// SendStopTyping clears the signal.
func (r *Relay) SendStopTyping(conversationID string) {
	r.send(model.EventTypingStop, conversationID)
}

func (r *Relay) send(event, conversationID string) {
	err := r.emitter.Emit(event, &model.TypingSignal{
		ConversationID: conversationID,
		IsTyping:       event == model.EventTypingStart,
	})
	if err != nil && !errors.Is(err, channel.ErrNotConnected) {
		r.logger.Debug("typing signal dropped", "event", event, "error", err)
	}
}

// OnTypingStart records the inbound signal.
func (r *Relay) OnTypingStart(sig model.TypingSignal) {
	r.mu.Lock()
	r.typing[typingKey{sig.UserID, sig.ConversationID}] = r.now()
	r.mu.Unlock()
}

// OnTypingStop removes the entry; unknown entries are a no-op.
func (r *Relay) OnTypingStop(sig model.TypingSignal) {
	r.mu.Lock()
	delete(r.typing, typingKey{sig.UserID, sig.ConversationID})
	r.mu.Unlock()
}

func (r *Relay) OnOnline(userID string) {
	r.mu.Lock()
	r.online[userID] = struct{}{}
	r.mu.Unlock()
}

func (r *Relay) OnOffline(userID string) {
	r.mu.Lock()
	delete(r.online, userID)
	// A user going offline cannot still be typing.
	for k := range r.typing {
		if k.userID == userID {
			delete(r.typing, k)
		}
	}
	r.mu.Unlock()
}

// IsTyping reports whether the user is typing in the conversation. Entries
// older than the TTL count as stopped even if the stop signal was lost.
func (r *Relay) IsTyping(userID, conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen, ok := r.typing[typingKey{userID, conversationID}]
	return ok && r.now().Sub(seen) < r.ttl
}

// TypingIn lists users currently typing in the conversation.
func (r *Relay) TypingIn(conversationID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []string
	cutoff := r.now().Add(-r.ttl)
	for k, seen := range r.typing {
		if k.conversationID == conversationID && seen.After(cutoff) {
			users = append(users, k.userID)
		}
	}
	return users
}

func (r *Relay) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.online[userID]
	return ok
}

// Run sweeps expired typing entries until the context ends. The sweep is a
// safety net for lost stop signals; reads already filter by TTL.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.expire()
		}
	}
}

func (r *Relay) expire() {
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	for k, seen := range r.typing {
		if seen.Before(cutoff) {
			delete(r.typing, k)
		}
	}
	r.mu.Unlock()
}
