package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualEveryFiresPerPeriod(t *testing.T) {
	m := NewManual()
	var n int
	cancel := m.Every(10*time.Second, func() { n++ })

	m.Advance(9 * time.Second)
	if n != 0 {
		t.Fatalf("expected no fire before period, got %d", n)
	}
	m.Advance(25 * time.Second)
	if n != 3 {
		t.Fatalf("expected 3 fires after 34s, got %d", n)
	}

	cancel()
	cancel()
	m.Advance(time.Minute)
	if n != 3 {
		t.Fatalf("expected no fires after cancel, got %d", n)
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", m.Pending())
	}
}

func TestManualAfterOrdering(t *testing.T) {
	m := NewManual()
	var order []string
	m.After(2*time.Second, func() { order = append(order, "b") })
	m.After(1*time.Second, func() { order = append(order, "a") })
	m.After(2*time.Second, func() { order = append(order, "c") })

	m.Advance(3 * time.Second)
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected order %v", order)
	}
	if m.Pending() != 0 {
		t.Fatalf("one-shot timers should be gone, %d pending", m.Pending())
	}
}

func TestManualTimerScheduledFromCallback(t *testing.T) {
	m := NewManual()
	var fired bool
	m.After(time.Second, func() {
		m.After(time.Second, func() { fired = true })
	})
	m.Advance(2 * time.Second)
	if !fired {
		t.Fatal("expected nested timer to fire within the same Advance")
	}
}

func TestTickerSchedulerCancel(t *testing.T) {
	var n atomic.Int32
	cancel := TickerScheduler{}.Every(5*time.Millisecond, func() { n.Add(1) })
	time.Sleep(30 * time.Millisecond)
	cancel()
	seen := n.Load()
	if seen == 0 {
		t.Fatal("expected ticker to fire at least once")
	}
	time.Sleep(20 * time.Millisecond)
	if n.Load() > seen+1 {
		t.Fatalf("ticker kept firing after cancel: %d -> %d", seen, n.Load())
	}
}
