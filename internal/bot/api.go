package bot

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// API is the subset of the Telegram client used by the bot and the pollers.
// Narrowed so tests can substitute a recording fake.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	DeleteMessage(config tgbotapi.DeleteMessageConfig) (tgbotapi.APIResponse, error)
	AnswerCallbackQuery(config tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error)
	SetChatDescription(config tgbotapi.SetChatDescriptionConfig) (tgbotapi.APIResponse, error)
}

// isExpiredCallback reports whether the error means the platform already
// discarded the interaction. There is nothing useful to do at that point,
// so callers treat it as a silent no-op.
func isExpiredCallback(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	return strings.Contains(text, "query is too old") ||
		strings.Contains(text, "QUERY_ID_INVALID") ||
		strings.Contains(text, "response timeout expired")
}

// displayName picks the best human label for a Telegram user.
func displayName(user *tgbotapi.User) string {
	if user == nil {
		return "Unknown"
	}
	if user.UserName != "" {
		return user.UserName
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return strconv.Itoa(user.ID)
}

func userID(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	return strconv.Itoa(user.ID)
}
