package checkin

import (
	"context"
	"log"
	"sync"
	"time"

	"tripcrew/internal/schedule"
)

// Poller refetches the roster on a fixed interval
type Poller struct {
	coord    *Coordinator
	sched    schedule.Scheduler
	interval time.Duration

	mu     sync.Mutex
	cancel schedule.Cancel
}

func NewPoller(coord *Coordinator, sched schedule.Scheduler, interval time.Duration) *Poller {
	if sched == nil {
		sched = schedule.TickerScheduler{}
	}
	return &Poller{coord: coord, sched: sched, interval: interval}
}

// Start begins polling. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	p.cancel = p.sched.Every(p.interval, func() {
		if _, err := p.coord.Refresh(ctx); err != nil {
			log.Printf("⚠️  Check-in poll failed: %v", err)
		}
	})
	log.Printf("🔄 Polling check-in status every %s", p.interval)
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
