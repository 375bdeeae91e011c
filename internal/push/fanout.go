// Package push fans laundry completion announcements out to browser push
// subscribers.
package push

import (
	"context"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"laundry-bot/internal/metrics"
	"laundry-bot/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation using the webpush library.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Pool manages a pool of workers delivering completion broadcasts.
type Pool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewPool creates a new worker pool. The returned pool is idle until Start
// is called.
func NewPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *Pool {
	return &Pool{
		size:    size,
		jobs:    make(chan string, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	log.Printf("[PUSH] Worker %d started", id)
	for {
		select {
		case message := <-p.jobs:
			p.broadcast(ctx, message)
		case <-ctx.Done():
			log.Printf("[PUSH] Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues one broadcast. Delivery is best-effort; a full queue
// drops the broadcast rather than blocking the caller.
func (p *Pool) Dispatch(message string) {
	select {
	case p.jobs <- message:
	default:
		log.Printf("[PUSH] Job queue full, dropping broadcast %q", message)
	}
}

// broadcast sends message to every registered subscription.
func (p *Pool) broadcast(ctx context.Context, message string) {
	var subscriptions []model.PushSubscription
	if err := p.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("[PUSH] Error fetching subscriptions: %v", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	log.Printf("[PUSH] Broadcasting to %d subscriptions", len(subscriptions))
	for _, sub := range subscriptions {
		p.send(ctx, sub, []byte(message))
	}
}

func (p *Pool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.webpush)
	if err != nil {
		log.Printf("[PUSH] Error sending to %s: %v", sub.Endpoint, err)
		metrics.RecordWebPush("error")
		return
	}
	defer resp.Body.Close()

	// An endpoint that is gone never comes back; drop the subscription.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("[PUSH] Subscription %s expired, deleting", sub.Endpoint)
		if err := p.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("[PUSH] Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		metrics.RecordWebPush("expired")
		return
	}

	metrics.RecordWebPush("sent")
}
