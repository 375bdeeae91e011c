// Package bot wires the Telegram update stream to the laundry store: the
// /laundry command, the status-message buttons, and the help menus.
package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"laundry-bot/config"
	"laundry-bot/internal/laundry"
	"laundry-bot/internal/metrics"
	"laundry-bot/internal/store"
	"laundry-bot/internal/ui"
)

// CompletionBroadcaster fans a completion announcement out to web push
// subscribers. Nil disables the fanout.
type CompletionBroadcaster interface {
	Dispatch(message string)
}

// Bot handles commands and component interactions.
type Bot struct {
	api      API
	store    store.Store
	presence *Presence
	push     CompletionBroadcaster
	registry *Registry
	loc      *time.Location

	// laundryChatID is where status messages and scheduled notifications
	// land. Zero falls back to the chat the interaction came from.
	laundryChatID    int64
	availableBanner  string
	inProgressBanner string

	// lastStatusMsg remembers the latest bot-authored status message per
	// chat so a replacement can delete it first. In-memory only; after a
	// restart the previous message is simply left behind.
	mu            sync.Mutex
	lastStatusMsg map[int64]int
}

func New(api API, st store.Store, presence *Presence, push CompletionBroadcaster, cfg *config.Config) *Bot {
	b := &Bot{
		api:              api,
		store:            st,
		presence:         presence,
		push:             push,
		registry:         NewRegistry(),
		loc:              cfg.Location(),
		laundryChatID:    cfg.Bot.LaundryChatID,
		availableBanner:  cfg.Bot.AvailableBanner,
		inProgressBanner: cfg.Bot.InProgressBanner,
		lastStatusMsg:    make(map[int64]int),
	}

	b.registry.Command("laundry", b.handleLaundryCommand)
	b.registry.Callback(ui.CallbackFlip, b.handleFlip)
	b.registry.Callback(ui.CallbackHelp, b.handleHelp)
	b.registry.Callback(ui.CallbackHelpDone, b.handleHelpDone)
	b.registry.Callback(ui.CallbackComplete, b.handleComplete)
	b.registry.CallbackPrefix("laundry_help_select", b.handleHelpSelect)
	b.registry.CallbackPrefix("laundry_help_done_select", b.handleHelpDoneSelect)

	return b
}

// Registry exposes the dispatch table, mainly for tests.
func (b *Bot) Registry() *Registry {
	return b.registry
}

// Run consumes the update stream until ctx is cancelled. Each update is
// handled in its own goroutine; the system imposes no mutual exclusion
// across handlers beyond the database's own transactions.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	log.Println("[BOT] Handling updates...")
	for {
		select {
		case <-ctx.Done():
			log.Println("[BOT] Update loop shutting down.")
			return
		case update, ok := <-updates:
			if !ok {
				log.Println("[BOT] Update channel closed.")
				return
			}
			go b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update through the registry.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil && update.Message.IsCommand() {
		name := update.Message.Command()
		fn, ok := b.registry.LookupCommand(name)
		if !ok {
			return
		}
		metrics.RecordCommand(name)
		if err := fn(ctx, update.Message); err != nil {
			log.Printf("[BOT] Command /%s failed: %v", name, err)
			b.sendText(update.Message.Chat.ID, "Something went wrong. Please try again.")
		}
		return
	}

	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		fn, arg, ok := b.registry.LookupCallback(cb.Data)
		if !ok {
			log.Printf("[BOT] No handler for callback %q", cb.Data)
			return
		}
		metrics.RecordCallback(callbackMetricID(cb.Data))
		if err := fn(ctx, cb, arg); err != nil {
			log.Printf("[BOT] Callback %q failed: %v", cb.Data, err)
			b.answer(cb, "Something went wrong. Please try again.")
		}
	}
}

func callbackMetricID(data string) string {
	for i := 0; i < len(data); i++ {
		if data[i] == ':' {
			return data[:i]
		}
	}
	return data
}

func (b *Bot) handleLaundryCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.PostStatus(ctx, msg.Chat.ID, ""); err != nil {
		return err
	}
	b.presence.Refresh(ctx)
	return nil
}

func (b *Bot) handleFlip(ctx context.Context, cb *tgbotapi.CallbackQuery, _ string) error {
	chatID := b.targetChat(cb)
	result, err := b.store.MarkStarted(ctx, userID(cb.From), displayName(cb.From), chatID)
	if err != nil {
		return err
	}

	prefix := fmt.Sprintf("%s flipped the laundry!", displayName(cb.From))
	if err := b.PostStatus(ctx, chatID, prefix); err != nil {
		return err
	}
	b.presence.Refresh(ctx)

	b.answer(cb, fmt.Sprintf("Laundry started. Estimated done: %s.",
		laundry.FormatTimestamp(&result.ExpectedDoneAt, b.loc)))
	return nil
}

func (b *Bot) handleHelp(_ context.Context, cb *tgbotapi.CallbackQuery, _ string) error {
	prompt := tgbotapi.NewMessage(cb.Message.Chat.ID, "What do you need help with?")
	prompt.ReplyMarkup = ui.HelpSelectKeyboard(cb.Message.MessageID)
	if _, err := b.api.Send(prompt); err != nil {
		return fmt.Errorf("failed to send help menu: %w", err)
	}
	b.answer(cb, "")
	return nil
}

func (b *Bot) handleHelpDone(ctx context.Context, cb *tgbotapi.CallbackQuery, _ string) error {
	helpRequests, err := b.store.ActiveHelpRequests(ctx)
	if err != nil {
		return err
	}
	if len(helpRequests) == 0 {
		b.answer(cb, "No active help requests right now.")
		return nil
	}

	prompt := tgbotapi.NewMessage(cb.Message.Chat.ID, "Select the help requests you completed.")
	prompt.ReplyMarkup = ui.HelpDoneKeyboard(cb.Message.MessageID, helpRequests)
	if _, err := b.api.Send(prompt); err != nil {
		return fmt.Errorf("failed to send help completion menu: %w", err)
	}
	b.answer(cb, "")
	return nil
}

func (b *Bot) handleHelpSelect(ctx context.Context, cb *tgbotapi.CallbackQuery, _ string) error {
	_, value, ok := ui.ParseHelpSelect(cb.Data)
	if !ok {
		b.answer(cb, "")
		return nil
	}
	// Callback data is client-supplied; only catalogue chores are accepted.
	if !laundry.IsHelpType(value) {
		log.Printf("[BOT] Rejecting unknown help type %q", value)
		b.answer(cb, "")
		return nil
	}

	name := displayName(cb.From)
	if err := b.store.CreateHelpRequests(ctx, userID(cb.From), name, []string{value}); err != nil {
		return err
	}

	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	prefix := fmt.Sprintf("%s requested help! See details below.", name)
	if err := b.PostStatus(ctx, b.statusChat(cb), prefix); err != nil {
		return err
	}
	b.presence.Refresh(ctx)

	b.answer(cb, "Thanks! Your help request has been posted.")
	return nil
}

func (b *Bot) handleHelpDoneSelect(ctx context.Context, cb *tgbotapi.CallbackQuery, _ string) error {
	_, requestID, ok := ui.ParseHelpDoneSelect(cb.Data)
	if !ok {
		b.answer(cb, "")
		return nil
	}

	// Look the label up before resolving; a request another user already
	// resolved simply drops out and nothing is reposted for it.
	active, err := b.store.ActiveHelpRequests(ctx)
	if err != nil {
		return err
	}
	completedLabel := ""
	for _, request := range active {
		if request.ID == requestID {
			completedLabel = laundry.HelpLabel(request.RequestType)
			break
		}
	}

	if err := b.store.ResolveHelpRequests(ctx, []int64{requestID}); err != nil {
		return err
	}

	b.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)
	if completedLabel != "" {
		prefix := fmt.Sprintf("%s helped by completing: %s", displayName(cb.From), completedLabel)
		if err := b.PostStatus(ctx, b.statusChat(cb), prefix); err != nil {
			return err
		}
	}
	b.presence.Refresh(ctx)

	b.answer(cb, "Thanks! Marked those requests as completed.")
	return nil
}

func (b *Bot) handleComplete(ctx context.Context, cb *tgbotapi.CallbackQuery, _ string) error {
	if err := b.store.MarkCompleted(ctx, displayName(cb.From)); err != nil {
		return err
	}
	if err := b.store.CancelPendingNotifications(ctx, "Cancelled: laundry marked completed manually."); err != nil {
		return err
	}

	if err := b.PostStatus(ctx, b.statusChat(cb), "Laundry cycle has been completed!"); err != nil {
		return err
	}
	b.presence.Refresh(ctx)
	if b.push != nil {
		b.push.Dispatch("Laundry cycle has completed!")
	}

	b.answer(cb, "Laundry marked as completed.")
	return nil
}

// targetChat is where a started cycle's completion notification should be
// announced: the configured laundry chat, or the interaction's chat when
// none is configured.
func (b *Bot) targetChat(cb *tgbotapi.CallbackQuery) int64 {
	if b.laundryChatID != 0 {
		return b.laundryChatID
	}
	return b.statusChat(cb)
}

func (b *Bot) statusChat(cb *tgbotapi.CallbackQuery) int64 {
	if cb.Message != nil {
		return cb.Message.Chat.ID
	}
	return b.laundryChatID
}

// answer acknowledges the interaction with an optional short confirmation.
// An already-expired interaction is a silent no-op.
func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	_, err := b.api.AnswerCallbackQuery(tgbotapi.NewCallback(cb.ID, text))
	if err != nil && !isExpiredCallback(err) {
		log.Printf("[BOT] Failed to answer callback %s: %v", cb.ID, err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("[BOT] Failed to send message to chat %d: %v", chatID, err)
	}
}
