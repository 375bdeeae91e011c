package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"laundry-bot/config"
	"laundry-bot/internal/db"
	"laundry-bot/internal/model"
	"laundry-bot/internal/store"
	"laundry-bot/internal/ui"
)

// fakeAPI records every outbound Telegram call.
type fakeAPI struct {
	mu           sync.Mutex
	sent         []tgbotapi.Chattable
	deleted      []tgbotapi.DeleteMessageConfig
	answers      []tgbotapi.CallbackConfig
	descriptions []string
	sendErr      error
	nextID       int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) DeleteMessage(config tgbotapi.DeleteMessageConfig) (tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, config)
	return tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) AnswerCallbackQuery(config tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, config)
	return tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) SetChatDescription(config tgbotapi.SetChatDescriptionConfig) (tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.descriptions = append(f.descriptions, config.Description)
	return tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text or caption of every sent message, in order.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.PhotoConfig:
			out = append(out, m.Caption)
		}
	}
	return out
}

func (f *fakeAPI) lastAnswer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.answers) == 0 {
		return ""
	}
	return f.answers[len(f.answers)-1].Text
}

type fakeBroadcaster struct{ messages []string }

func (b *fakeBroadcaster) Dispatch(message string) { b.messages = append(b.messages, message) }

var botDBSeq atomic.Int64

func newBotTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:bot_test_%d?mode=memory&cache=shared", botDBSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return store.NewGormStore(gdb)
}

func newTestBot(t *testing.T, laundryChatID int64, push CompletionBroadcaster) (*Bot, *fakeAPI, store.Store) {
	t.Helper()
	api := &fakeAPI{}
	st := newBotTestStore(t)
	cfg := &config.Config{Bot: config.BotConfig{LaundryChatID: laundryChatID, Timezone: "UTC"}}
	presence := NewPresence(api, st, laundryChatID, cfg.Location())
	return New(api, st, presence, push, cfg), api, st
}

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	entities := []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Text:      text,
		Entities:  &entities,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: 7, UserName: "pia"},
	}}
}

func callbackUpdate(chatID int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 7, UserName: "pia"},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func TestBot_LaundryCommand_PostsStatus(t *testing.T) {
	b, api, _ := newTestBot(t, 0, nil)

	b.HandleUpdate(context.Background(), commandUpdate(100, "/laundry"))

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "No laundry status recorded yet.")

	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, ui.CallbackFlip, *kb.InlineKeyboard[0][0].CallbackData)
}

func TestBot_Flip_StartsCycle(t *testing.T) {
	b, api, st := newTestBot(t, 100, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, callbackUpdate(100, 5, ui.CallbackFlip))

	row, err := st.GetStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, model.StatusInUse, row.Status)
	require.NotNil(t, row.CurrentUserName)
	assert.Equal(t, "pia", *row.CurrentUserName)

	var notifications []model.Notification
	require.NoError(t, st.DB().Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, int64(100), notifications[0].ChatID)

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "pia flipped the laundry!")
	assert.Contains(t, texts[0], "should be complete by")

	assert.Contains(t, api.lastAnswer(), "Laundry started. Estimated done: ")
	require.Len(t, api.descriptions, 1)
	assert.Contains(t, api.descriptions[0], "Laundry: in progress - ETA ")
}

func TestBot_PostStatus_ReplacesPreviousMessage(t *testing.T) {
	b, api, _ := newTestBot(t, 0, nil)
	ctx := context.Background()

	require.NoError(t, b.PostStatus(ctx, 100, ""))
	require.NoError(t, b.PostStatus(ctx, 100, ""))

	require.Len(t, api.deleted, 1)
	assert.Equal(t, int64(100), api.deleted[0].ChatID)
	assert.Equal(t, 1, api.deleted[0].MessageID)
}

func TestBot_PostStatus_RequiresChat(t *testing.T) {
	b, _, _ := newTestBot(t, 0, nil)
	assert.Error(t, b.PostStatus(context.Background(), 0, ""))
}

func TestBot_HelpFlow(t *testing.T) {
	b, api, st := newTestBot(t, 0, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, callbackUpdate(100, 5, ui.CallbackHelp))

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "What do you need help with?", texts[0])

	prompt, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	kb, ok := prompt.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, kb.InlineKeyboard, 6)

	// The prompt was message 1; selecting a chore posts the request and
	// removes the prompt.
	b.HandleUpdate(ctx, callbackUpdate(100, 1, ui.HelpSelectData(5, "folding")))

	active, err := st.ActiveHelpRequests(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "folding", active[0].RequestType)
	assert.Equal(t, "pia", active[0].UserName)

	require.Len(t, api.deleted, 1)
	assert.Equal(t, 1, api.deleted[0].MessageID)

	texts = api.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "pia requested help! See details below.")
	assert.Contains(t, texts[1], "pia asked for help with: Folding")
	assert.Equal(t, "Thanks! Your help request has been posted.", api.lastAnswer())
}

func TestBot_HelpSelect_RejectsUnknownChore(t *testing.T) {
	b, api, st := newTestBot(t, 0, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, callbackUpdate(100, 1, ui.HelpSelectData(5, "sweeping_the_chimney")))

	active, err := st.ActiveHelpRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, active, "only catalogue chores may be stored")
	assert.Empty(t, api.sent)
	assert.Empty(t, api.deleted)
}

func TestBot_HelpDone_NoActiveRequests(t *testing.T) {
	b, api, _ := newTestBot(t, 0, nil)

	b.HandleUpdate(context.Background(), callbackUpdate(100, 5, ui.CallbackHelpDone))

	assert.Empty(t, api.sent)
	assert.Equal(t, "No active help requests right now.", api.lastAnswer())
}

func TestBot_HelpDoneSelect_ResolvesAndAnnounces(t *testing.T) {
	b, api, st := newTestBot(t, 0, nil)
	ctx := context.Background()

	require.NoError(t, st.CreateHelpRequests(ctx, "9", "leo", []string{"folding"}))
	active, err := st.ActiveHelpRequests(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	b.HandleUpdate(ctx, callbackUpdate(100, 3, ui.HelpDoneSelectData(5, active[0].ID)))

	remaining, err := st.ActiveHelpRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "pia helped by completing: Folding")
	assert.Equal(t, "Thanks! Marked those requests as completed.", api.lastAnswer())
}

func TestBot_HelpDoneSelect_AlreadyResolvedSkipsAnnouncement(t *testing.T) {
	b, api, _ := newTestBot(t, 0, nil)

	b.HandleUpdate(context.Background(), callbackUpdate(100, 3, ui.HelpDoneSelectData(5, 999)))

	assert.Empty(t, api.texts(), "nothing to announce for an unknown request")
	assert.Equal(t, "Thanks! Marked those requests as completed.", api.lastAnswer())
}

func TestBot_Complete_CancelsPendingNotifications(t *testing.T) {
	push := &fakeBroadcaster{}
	b, api, st := newTestBot(t, 100, push)
	ctx := context.Background()

	_, err := st.MarkStarted(ctx, "7", "pia", 100)
	require.NoError(t, err)

	b.HandleUpdate(ctx, callbackUpdate(100, 5, ui.CallbackComplete))

	row, err := st.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, row.Status)

	var notifications []model.Notification
	require.NoError(t, st.DB().Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationFailed, notifications[0].Status)
	require.NotNil(t, notifications[0].Notes)
	assert.Equal(t, "Cancelled: laundry marked completed manually.", *notifications[0].Notes)

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Laundry cycle has been completed!")
	assert.Equal(t, "Laundry marked as completed.", api.lastAnswer())
	assert.Equal(t, []string{"Laundry cycle has completed!"}, push.messages)
}

func TestBot_UnknownCallbackIgnored(t *testing.T) {
	b, api, _ := newTestBot(t, 0, nil)

	b.HandleUpdate(context.Background(), callbackUpdate(100, 5, "something_else"))

	assert.Empty(t, api.sent)
	assert.Empty(t, api.answers)
}

func TestIsExpiredCallback(t *testing.T) {
	assert.False(t, isExpiredCallback(nil))
	assert.False(t, isExpiredCallback(fmt.Errorf("network unreachable")))
	assert.True(t, isExpiredCallback(fmt.Errorf("Bad Request: query is too old and response timeout expired")))
	assert.True(t, isExpiredCallback(fmt.Errorf("QUERY_ID_INVALID")))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Unknown", displayName(nil))
	assert.Equal(t, "pia", displayName(&tgbotapi.User{ID: 7, UserName: "pia"}))
	assert.Equal(t, "Pia", displayName(&tgbotapi.User{ID: 7, FirstName: "Pia"}))
	assert.Equal(t, "7", displayName(&tgbotapi.User{ID: 7}))
}

func TestBot_Run_StopsOnCancel(t *testing.T) {
	b, _, _ := newTestBot(t, 0, nil)

	updates := make(chan tgbotapi.Update)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx, updates)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("update loop did not stop after context cancellation")
	}
}
