package channel

import (
	"testing"
	"time"
)

func TestBackoff_DoublesUpToCap(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // capped
		30 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i+1, got, w)
		}
	}
	if got := b.Attempts(); got != len(want) {
		t.Errorf("Attempts() = %d, want %d", got, len(want))
	}
}

func TestBackoff_ResetReturnsToFloor(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second)

	b.Next()
	b.Next()
	b.Next()
	b.Reset()

	if got := b.Next(); got != time.Second {
		t.Errorf("Next() after reset = %v, want %v", got, time.Second)
	}
	if got := b.Attempts(); got != 1 {
		t.Errorf("Attempts() after reset+next = %d, want 1", got)
	}
}

func TestBackoff_DefensiveDefaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if got := b.Next(); got != time.Second {
		t.Errorf("Next() with zero floor = %v, want %v", got, time.Second)
	}

	// Cap below floor clamps to the floor.
	b = NewBackoff(5*time.Second, time.Second)
	if got := b.Next(); got != 5*time.Second {
		t.Errorf("Next() = %v, want %v", got, 5*time.Second)
	}
	if got := b.Next(); got != 5*time.Second {
		t.Errorf("Next() = %v, want cap clamped to %v", got, 5*time.Second)
	}
}
