package bot

import (
	"context"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"laundry-bot/internal/laundry"
	"laundry-bot/internal/metrics"
	"laundry-bot/internal/store"
)

// Presence maintains the bot's publicly visible status text, applied as the
// laundry chat's description. The last-applied text is kept in memory so
// unchanged ticks skip the external call; it resets on restart and is
// written nowhere else.
type Presence struct {
	api    API
	store  store.Store
	chatID int64
	loc    *time.Location

	mu   sync.Mutex
	last string
}

func NewPresence(api API, st store.Store, chatID int64, loc *time.Location) *Presence {
	return &Presence{api: api, store: st, chatID: chatID, loc: loc}
}

// Refresh recomputes the presence text and applies it if it changed.
// Presence is best-effort: every failure is logged and swallowed.
func (p *Presence) Refresh(ctx context.Context) {
	if p.chatID == 0 {
		return
	}

	row, err := p.store.GetStatus(ctx)
	if err != nil {
		log.Printf("[PRESENCE] Failed to fetch status: %v", err)
		return
	}
	text := laundry.PresenceText(laundry.Summarize(row, p.loc), p.loc)

	p.mu.Lock()
	unchanged := text == p.last
	p.mu.Unlock()
	if unchanged {
		return
	}

	_, err = p.api.SetChatDescription(tgbotapi.SetChatDescriptionConfig{
		ChatID:      p.chatID,
		Description: text,
	})
	if err != nil {
		log.Printf("[PRESENCE] Failed to update chat description: %v", err)
		return
	}

	p.mu.Lock()
	p.last = text
	p.mu.Unlock()
	metrics.RecordPresenceUpdate()
	log.Printf("[PRESENCE] Applied %q", text)
}
