// Package schedule abstracts timers so refresh cadences can be swapped and
// driven by hand in tests.
package schedule

import (
	"sync"
	"time"
)

// Cancel stops a scheduled job. Calling it more than once is safe.
type Cancel func()

// Scheduler runs callbacks later or periodically
type Scheduler interface {
	Every(d time.Duration, fn func()) Cancel
	After(d time.Duration, fn func()) Cancel
}

// TickerScheduler is backed by real timers
type TickerScheduler struct{}

func (TickerScheduler) Every(d time.Duration, fn func()) Cancel {
	if d <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(d)
	stop := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

func (TickerScheduler) After(d time.Duration, fn func()) Cancel {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
