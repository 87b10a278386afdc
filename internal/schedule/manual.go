package schedule

import (
	"sync"
	"time"
)

// Manual is a Scheduler whose clock only moves when Advance is called.
// Callbacks run synchronously on the goroutine calling Advance.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	id    int
	due   time.Duration
	every time.Duration
	fn    func()
}

func NewManual() *Manual {
	return &Manual{timers: make(map[int]*manualTimer)}
}

func (m *Manual) Every(d time.Duration, fn func()) Cancel {
	if d <= 0 {
		return func() {}
	}
	return m.add(d, d, fn)
}

func (m *Manual) After(d time.Duration, fn func()) Cancel {
	return m.add(d, 0, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.timers[id] = &manualTimer{id: id, due: m.now + d, every: every, fn: fn}
	return func() {
		m.mu.Lock()
		delete(m.timers, id)
		m.mu.Unlock()
	}
}

// Advance moves the clock forward by d, firing every timer that falls due
// in order. Periodic timers fire once per elapsed period.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var next *manualTimer
		for _, t := range m.timers {
			if t.due > target {
				continue
			}
			if next == nil || t.due < next.due || (t.due == next.due && t.id < next.id) {
				next = t
			}
		}
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.every > 0 {
			next.due += next.every
		} else {
			delete(m.timers, next.id)
		}
		fn := next.fn
		m.mu.Unlock()
		fn()
	}
}

// Pending is the number of scheduled jobs not yet fired or cancelled
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
