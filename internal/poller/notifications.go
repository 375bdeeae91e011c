// Package poller contains the two fixed-interval loops: the completion
// notification poller and the presence poller. Each tick runs to completion
// before the timer is rearmed, so ticks never overlap.
package poller

import (
	"context"
	"log"
	"time"

	"laundry-bot/internal/metrics"
	"laundry-bot/internal/model"
)

// Store is the slice of the data layer the notification poller needs.
type Store interface {
	PendingNotificationsDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
	MarkCompleted(ctx context.Context, updatedByName string) error
	MarkNotificationSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkNotificationFailed(ctx context.Context, id int64, note string, failedAt time.Time) error
}

// StatusPoster posts a fresh status message to a chat, replacing the
// previous one. Implemented by the bot.
type StatusPoster interface {
	PostStatus(ctx context.Context, chatID int64, prefix string) error
}

// PresenceRefresher re-derives and applies the bot presence. Implemented by
// the bot's presence state.
type PresenceRefresher interface {
	Refresh(ctx context.Context)
}

// Broadcaster fans the completion announcement out to web push subscribers.
type Broadcaster interface {
	Dispatch(message string)
}

// Notifier completes forgotten laundry cycles: when a scheduled
// notification comes due, the machine is marked available and the
// completion is announced in the notification's chat.
type Notifier struct {
	store    Store
	poster   StatusPoster
	presence PresenceRefresher
	push     Broadcaster
	interval time.Duration
	batch    int
	now      func() time.Time
}

func NewNotifier(st Store, poster StatusPoster, presence PresenceRefresher, push Broadcaster, interval time.Duration, batch int) *Notifier {
	return &Notifier{
		store:    st,
		poster:   poster,
		presence: presence,
		push:     push,
		interval: interval,
		batch:    batch,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled. The timer is rearmed only after a tick
// finishes, so a slow tick cannot overlap the next one.
func (n *Notifier) Run(ctx context.Context) {
	log.Println("[NOTIFIER] Starting notification poller...")

	timer := time.NewTimer(n.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[NOTIFIER] Notification poller shutting down.")
			return
		case <-timer.C:
			n.PollOnce(ctx)
			timer.Reset(n.interval)
		}
	}
}

// PollOnce processes one batch of due notifications. A failure on one
// notification is recorded against that notification and never aborts the
// rest of the batch; there is no retry beyond this terminal mark.
func (n *Notifier) PollOnce(ctx context.Context) {
	now := n.now()
	pending, err := n.store.PendingNotificationsDue(ctx, now, n.batch)
	if err != nil {
		log.Printf("[NOTIFIER] Failed to fetch due notifications: %v", err)
		return
	}

	for _, notification := range pending {
		if notification.ChatID == 0 {
			n.fail(ctx, notification.ID, "Chat not found or not configured.")
			continue
		}

		if err := n.deliver(ctx, notification); err != nil {
			n.fail(ctx, notification.ID, err.Error())
			continue
		}

		if err := n.store.MarkNotificationSent(ctx, notification.ID, n.now()); err != nil {
			log.Printf("[NOTIFIER] Failed to mark notification %d sent: %v", notification.ID, err)
			continue
		}
		metrics.RecordNotification("sent")
		log.Printf("[NOTIFIER] Notification %d delivered to chat %d", notification.ID, notification.ChatID)

		n.presence.Refresh(ctx)
		if n.push != nil {
			n.push.Dispatch("Laundry cycle has completed!")
		}
	}
}

// deliver auto-completes the cycle and announces it.
func (n *Notifier) deliver(ctx context.Context, notification model.Notification) error {
	if err := n.store.MarkCompleted(ctx, ""); err != nil {
		return err
	}
	return n.poster.PostStatus(ctx, notification.ChatID, "Laundry cycle has completed!")
}

func (n *Notifier) fail(ctx context.Context, id int64, note string) {
	if err := n.store.MarkNotificationFailed(ctx, id, note, n.now()); err != nil {
		log.Printf("[NOTIFIER] Failed to mark notification %d failed: %v", id, err)
		return
	}
	metrics.RecordNotification("failed")
	log.Printf("[NOTIFIER] Notification %d failed: %s", id, note)
}
