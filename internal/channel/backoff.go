package channel

import (
	"sync"
	"time"
)

// Backoff implements the application-level reconnect delay policy: the delay
// starts at the floor, doubles on every failed attempt and is capped; any
// successful connect resets it to the floor.
type Backoff struct {
	mu       sync.Mutex
	floor    time.Duration
	cap      time.Duration
	current  time.Duration
	attempts int
}

func NewBackoff(floor, cap time.Duration) *Backoff {
	if floor <= 0 {
		floor = time.Second
	}
	if cap < floor {
		cap = floor
	}
	return &Backoff{floor: floor, cap: cap, current: floor}
}

// Next returns the delay to wait before the upcoming attempt and advances
// the policy as if that attempt failed.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.current
	b.attempts++
	b.current *= 2
	if b.current > b.cap {
		b.current = b.cap
	}
	return d
}

// Reset returns the policy to its floor. Called on every successful connect.
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.current = b.floor
	b.attempts = 0
	b.mu.Unlock()
}

// Attempts reports consecutive failures since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current exposes the next delay without advancing; diagnostics only.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
