package poller

import (
	"context"
	"log"
	"time"
)

// PresenceLoop refreshes the bot's visible status text on a fixed interval.
// The refresher itself deduplicates unchanged text and swallows errors, so
// the loop only schedules ticks.
type PresenceLoop struct {
	presence PresenceRefresher
	interval time.Duration
}

func NewPresenceLoop(presence PresenceRefresher, interval time.Duration) *PresenceLoop {
	return &PresenceLoop{presence: presence, interval: interval}
}

// Run refreshes once immediately, then on every tick until ctx is
// cancelled. Like the notifier, ticks never overlap.
func (p *PresenceLoop) Run(ctx context.Context) {
	log.Println("[PRESENCE] Starting presence poller...")

	p.presence.Refresh(ctx)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[PRESENCE] Presence poller shutting down.")
			return
		case <-timer.C:
			p.presence.Refresh(ctx)
			timer.Reset(p.interval)
		}
	}
}
