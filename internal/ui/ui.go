// Package ui renders the laundry summary and help requests into chat
// message payloads: the status text block, the inline keyboards, and the
// banner selection.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"laundry-bot/internal/laundry"
	"laundry-bot/internal/model"
)

// Fixed interaction component ids. The select ids additionally embed the
// status message id they were spawned from.
const (
	CallbackFlip     = "laundry_flip"
	CallbackHelp     = "laundry_help"
	CallbackHelpDone = "laundry_help_done"
	CallbackComplete = "laundry_complete"

	helpSelectPrefix     = "laundry_help_select"
	helpDoneSelectPrefix = "laundry_help_done_select"
)

// StatusText builds the status message body.
func StatusText(sum laundry.Summary, helpRequests []model.HelpRequest, prefix string, now time.Time, loc *time.Location) string {
	var blocks []string
	if prefix != "" {
		blocks = append(blocks, prefix)
	}
	if sum.Key == laundry.KeyAvailable {
		blocks = append(blocks, `Is there laundry to do? Get it started and click the "I Flipped It" button.`)
	}
	if sum.StatusLine != "" {
		blocks = append(blocks, sum.StatusLine)
	}
	if len(blocks) == 0 {
		blocks = append(blocks, "Laundry status update.")
	}

	if len(helpRequests) > 0 {
		blocks = append(blocks, "Help Requests\n"+laundry.FormatHelpRequests(helpRequests))
	}

	blocks = append(blocks, footerText(sum, now, loc))
	return strings.Join(blocks, "\n\n")
}

func footerText(sum laundry.Summary, now time.Time, loc *time.Location) string {
	if sum.LastUpdatedAt == nil {
		return "Last updated"
	}
	footerTime := laundry.FooterTime(sum.LastUpdatedAt, now, loc)
	if sum.UpdatedByName == "Unknown" {
		return fmt.Sprintf("Last updated at %s", footerTime)
	}
	return fmt.Sprintf("Last updated at %s by %s.", footerTime, sum.UpdatedByName)
}

// StatusKeyboard builds the action buttons attached to a status message.
func StatusKeyboard(sum laundry.Summary, helpRequests []model.HelpRequest) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if sum.Key != laundry.KeyBusy {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("I Flipped It", CallbackFlip),
		))
	}
	if sum.Key == laundry.KeyBusy {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Mark Laundry Completed", CallbackComplete),
		))
	}

	helpRow := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Request Help", CallbackHelp),
	}
	if len(helpRequests) > 0 {
		helpRow = append(helpRow, tgbotapi.NewInlineKeyboardButtonData("I Helped", CallbackHelpDone))
	}
	rows = append(rows, helpRow)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// HelpSelectKeyboard builds the chore menu shown after "Request Help". Each
// button submits one chore; messageID ties the selection back to the status
// message it was spawned from.
func HelpSelectKeyboard(messageID int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(laundry.HelpOptions))
	for _, option := range laundry.HelpOptions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option.Label, HelpSelectData(messageID, option.Value)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// HelpDoneKeyboard builds the completion menu listing every active help
// request, oldest first.
func HelpDoneKeyboard(messageID int, helpRequests []model.HelpRequest) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(helpRequests))
	for _, request := range helpRequests {
		label := fmt.Sprintf("%s: %s", request.UserName, laundry.HelpLabel(request.RequestType))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, HelpDoneSelectData(messageID, request.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// HelpSelectData builds a parameterized help-select callback id.
func HelpSelectData(messageID int, value string) string {
	return fmt.Sprintf("%s:%d:%s", helpSelectPrefix, messageID, value)
}

// HelpDoneSelectData builds a parameterized help-completion callback id.
func HelpDoneSelectData(messageID int, requestID int64) string {
	return fmt.Sprintf("%s:%d:%d", helpDoneSelectPrefix, messageID, requestID)
}

// ParseHelpSelect extracts the status message id and chore value from a
// help-select callback id.
func ParseHelpSelect(data string) (messageID int, value string, ok bool) {
	return parseSelect(data, helpSelectPrefix)
}

// ParseHelpDoneSelect extracts the status message id and help request id
// from a help-completion callback id.
func ParseHelpDoneSelect(data string) (messageID int, requestID int64, ok bool) {
	messageID, raw, ok := parseSelect(data, helpDoneSelectPrefix)
	if !ok {
		return 0, 0, false
	}
	requestID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return messageID, requestID, true
}

func parseSelect(data, prefix string) (int, string, bool) {
	rest, found := strings.CutPrefix(data, prefix+":")
	if !found {
		return 0, "", false
	}
	rawID, value, found := strings.Cut(rest, ":")
	if !found || value == "" {
		return 0, "", false
	}
	messageID, err := strconv.Atoi(rawID)
	if err != nil {
		return 0, "", false
	}
	return messageID, value, true
}

// BannerPath picks the banner image for a status category. Empty means no
// banner is configured for that category.
func BannerPath(key laundry.StatusKey, availableBanner, inProgressBanner string) string {
	switch key {
	case laundry.KeyBusy:
		return inProgressBanner
	case laundry.KeyAvailable:
		return availableBanner
	default:
		return ""
	}
}
