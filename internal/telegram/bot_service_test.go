package telegram

import (
	"anonrelay/backend/internal/models"
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu        sync.Mutex
	messages  []models.Inbound
	callbacks []models.Callback
	panicOn   string
}

func (h *recordingHandler) HandleMessage(_ context.Context, in models.Inbound) {
	if in.Text() != "" && in.Text() == h.panicOn {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, in)
}

func (h *recordingHandler) HandleCallback(_ context.Context, cb models.Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, cb)
}

func (h *recordingHandler) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages), len(h.callbacks)
}

func textMessage(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 7,
		Chat:      tgbotapi.Chat{ID: from},
		From:      &tgbotapi.User{ID: from, FirstName: "Ann", UserName: "anon_fan", LanguageCode: "en"},
		Text:      text,
	}
}

func TestToInbound_Text(t *testing.T) {
	in := toInbound(textMessage(111, "help me"))

	assert.Equal(t, int64(111), in.ChatID)
	assert.Equal(t, 7, in.MessageID)
	assert.Equal(t, models.Sender{ID: 111, FirstName: "Ann", Username: "anon_fan", LanguageCode: "en"}, in.Sender)
	assert.Equal(t, models.Text{Body: "help me"}, in.Content)
	assert.Empty(t, in.Command)
}

func TestToInbound_Command(t *testing.T) {
	msg := textMessage(111, "/start")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}

	assert.Equal(t, "start", toInbound(msg).Command)
}

func TestToInbound_Media(t *testing.T) {
	photo := textMessage(111, "")
	photo.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
	photo.Caption = "look"
	assert.Equal(t, models.Photo{FileID: "large", Caption: "look"}, toInbound(photo).Content)

	doc := textMessage(111, "")
	doc.Document = &tgbotapi.Document{FileID: "doc", FileName: "a.pdf"}
	assert.Equal(t, models.Document{FileID: "doc", FileName: "a.pdf"}, toInbound(doc).Content)

	sticker := textMessage(111, "")
	sticker.Sticker = &tgbotapi.Sticker{FileID: "st"}
	assert.Equal(t, models.Unknown{Kind: "sticker"}, toInbound(sticker).Content)
}

func TestToCallback(t *testing.T) {
	cb := toCallback(&tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: 984209612},
		Data: "reply_AB12CD34",
	})
	assert.Equal(t, "cb-1", cb.ID)
	assert.Equal(t, int64(984209612), cb.Sender.ID)
	assert.Equal(t, int64(984209612), cb.ChatID)
	assert.Equal(t, "reply_AB12CD34", cb.Data)
}

func TestRun_DispatchesAndReconnects(t *testing.T) {
	api := &fakeAPI{}
	h := &recordingHandler{panicOn: "boom"}
	s := NewBotService(api, h, nil)
	s.ReconnectDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return api.streams() == 1 }, time.Second, 5*time.Millisecond)
	first, _ := api.stream(0)
	first <- tgbotapi.Update{Message: textMessage(111, "hello")}
	first <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "cb", From: &tgbotapi.User{ID: 1}, Data: "done_X"}}
	first <- tgbotapi.Update{Message: textMessage(111, "boom")}

	// The panic ends the first stream; polling resumes on a new one.
	require.Eventually(t, func() bool { return api.streams() == 2 }, time.Second, 5*time.Millisecond)
	second, _ := api.stream(1)
	second <- tgbotapi.Update{Message: textMessage(111, "after")}

	require.Eventually(t, func() bool {
		m, c := h.counts()
		return m == 2 && c == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ClosedStreamReconnects(t *testing.T) {
	api := &fakeAPI{}
	s := NewBotService(api, &recordingHandler{}, nil)
	s.ReconnectDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool { return api.streams() == 1 }, time.Second, 5*time.Millisecond)
	first, _ := api.stream(0)
	close(first)

	require.Eventually(t, func() bool { return api.streams() == 2 }, time.Second, 5*time.Millisecond)
}
