package notify

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/talkio/realtime-client/internal/storage"
)

const soundKey = "sound_enabled"

// SoundGate decides whether a surfaced alert may play sound: the user's
// persisted sound preference must be on AND the module-wide rate limit (one
// sound per interval) must have a token. Bursts of events stay visible but
// go quiet.
type SoundGate struct {
	limiter *rate.Limiter
	kv      storage.KV
	logger  *slog.Logger

	mu      sync.Mutex
	enabled bool
}

func NewSoundGate(kv storage.KV, minInterval time.Duration, logger *slog.Logger) *SoundGate {
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	g := &SoundGate{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		kv:      kv,
		logger:  logger,
		enabled: true,
	}
	if data, ok, err := kv.Get(context.Background(), soundKey); err == nil && ok {
		if v, perr := strconv.ParseBool(string(data)); perr == nil {
			g.enabled = v
		}
	}
	return g
}

// AllowAt consumes a sound token for the alert fired at now.
func (g *SoundGate) AllowAt(now time.Time) bool {
	g.mu.Lock()
	enabled := g.enabled
	g.mu.Unlock()
	if !enabled {
		return false
	}
	return g.limiter.AllowN(now, 1)
}

func (g *SoundGate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// SetEnabled flips and persists the preference.
func (g *SoundGate) SetEnabled(enabled bool) {
	g.mu.Lock()
	g.enabled = enabled
	g.mu.Unlock()
	if err := g.kv.Put(context.Background(), soundKey, []byte(strconv.FormatBool(enabled))); err != nil {
		g.logger.Error("sound preference persist failed", "error", err)
	}
}
