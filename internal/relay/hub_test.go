package relay

import (
	"testing"
	"time"

	"github.com/tinycan/slcan-adapter/internal/canframe"
)

func TestHub_Broadcast_DropDoesNotBlock(t *testing.T) {
	h := New()
	cl := &Client{Out: make(chan canframe.Frame, 4), Closed: make(chan struct{})}
	h.Add(cl)
	defer h.Remove(cl)

	start := time.Now()
	for i := 0; i < 1000; i++ {
		h.Broadcast(canframe.Frame{ID: 0x123})
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Broadcast took too long: %s", elapsed)
	}
	if len(cl.Out) != cap(cl.Out) {
		t.Fatalf("expected client buffer full, got len=%d cap=%d", len(cl.Out), cap(cl.Out))
	}
}

func TestHub_Broadcast_DropKeepsOthersFlowing(t *testing.T) {
	h := New()
	slow := &Client{Out: make(chan canframe.Frame, 1), Closed: make(chan struct{})}
	fast := &Client{Out: make(chan canframe.Frame, 16), Closed: make(chan struct{})}
	h.Add(slow)
	h.Add(fast)
	defer h.Remove(slow)
	defer h.Remove(fast)

	h.Broadcast(canframe.Frame{ID: 0x1})
	for i := 0; i < 10; i++ {
		h.Broadcast(canframe.Frame{ID: 0x2})
	}

	got := 0
	timeout := time.After(200 * time.Millisecond)
loop:
	for {
		select {
		case <-fast.Out:
			got++
			if got >= 5 {
				break loop
			}
		case <-timeout:
			break loop
		}
	}
	if got == 0 {
		t.Fatalf("fast client received nothing while slow was backpressured")
	}
}

func TestHub_AddRemove_Count(t *testing.T) {
	h := New()
	c1 := &Client{Out: make(chan canframe.Frame, 1), Closed: make(chan struct{})}
	c2 := &Client{Out: make(chan canframe.Frame, 1), Closed: make(chan struct{})}
	h.Add(c1)
	h.Add(c2)
	if h.Count() != 2 {
		t.Fatalf("count = %d, want 2", h.Count())
	}
	h.Remove(c1)
	if h.Count() != 1 {
		t.Fatalf("count = %d, want 1", h.Count())
	}
	h.Remove(c1) // idempotent
	if h.Count() != 1 {
		t.Fatalf("count = %d, want 1 after double remove", h.Count())
	}
}
