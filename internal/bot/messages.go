package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"laundry-bot/internal/laundry"
	"laundry-bot/internal/metrics"
	"laundry-bot/internal/ui"
)

// PostStatus renders the current status plus active help requests and posts
// it to chatID, deleting the previous status message first so at most one
// live status message exists per chat.
func (b *Bot) PostStatus(ctx context.Context, chatID int64, prefix string) error {
	if chatID == 0 {
		return fmt.Errorf("no chat to post status message to")
	}

	row, err := b.store.GetStatus(ctx)
	if err != nil {
		return err
	}
	helpRequests, err := b.store.ActiveHelpRequests(ctx)
	if err != nil {
		return err
	}

	sum := laundry.Summarize(row, b.loc)
	text := ui.StatusText(sum, helpRequests, prefix, time.Now(), b.loc)
	keyboard := ui.StatusKeyboard(sum, helpRequests)

	b.deleteLastStatus(chatID)

	var sent tgbotapi.Message
	if banner := b.bannerFor(sum.Key); banner != "" {
		photo := tgbotapi.NewPhotoUpload(chatID, banner)
		photo.Caption = text
		photo.ReplyMarkup = keyboard
		sent, err = b.api.Send(photo)
	} else {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = keyboard
		sent, err = b.api.Send(msg)
	}
	if err != nil {
		return fmt.Errorf("failed to post status message: %w", err)
	}

	b.mu.Lock()
	b.lastStatusMsg[chatID] = sent.MessageID
	b.mu.Unlock()
	metrics.RecordStatusMessage()
	return nil
}

// bannerFor returns the banner file for a status category, or empty when
// none is configured or the file is missing.
func (b *Bot) bannerFor(key laundry.StatusKey) string {
	banner := ui.BannerPath(key, b.availableBanner, b.inProgressBanner)
	if banner == "" {
		return ""
	}
	if _, err := os.Stat(banner); err != nil {
		log.Printf("[BOT] Banner %s not readable, sending text only: %v", banner, err)
		return ""
	}
	return banner
}

// deleteLastStatus removes the previously posted status message, if any is
// remembered for the chat. A message that is already gone is not an error.
func (b *Bot) deleteLastStatus(chatID int64) {
	b.mu.Lock()
	messageID, ok := b.lastStatusMsg[chatID]
	delete(b.lastStatusMsg, chatID)
	b.mu.Unlock()
	if !ok {
		return
	}
	b.deleteMessage(chatID, messageID)
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	_, err := b.api.DeleteMessage(tgbotapi.DeleteMessageConfig{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		log.Printf("[BOT] Failed to delete message %d in chat %d: %v", messageID, chatID, err)
	}
}
