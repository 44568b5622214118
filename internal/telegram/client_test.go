package telegram

import (
	"anonrelay/backend/internal/config"
	"anonrelay/backend/internal/localization"
	"anonrelay/backend/internal/models"
	"anonrelay/backend/internal/relay"
	"anonrelay/backend/internal/testutil"
	"anonrelay/backend/internal/transport"
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClientSend_TextWithActions(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, nil)

	ref, err := c.Send(context.Background(), transport.Outbound{
		ChatID:  42,
		Content: models.Text{Body: "<b>hi</b>"},
		Text:    "<b>hi</b>",
		Actions: [][]transport.Affordance{
			{{Label: "Reply", Action: models.ReplyAction("AB12CD34")}, {Label: "Ban", Action: models.BanAction(111)}},
			{{Label: "Done", Action: models.DoneAction("AB12CD34")}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, transport.SentRef{ChatID: 42, MessageID: 1}, ref)

	require.Len(t, api.sent, 1)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "<b>hi</b>", msg.Text)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)

	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "ban_111", *kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "done_AB12CD34", *kb.InlineKeyboard[1][0].CallbackData)
}

func TestClientSend_Media(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, nil)
	ctx := context.Background()

	_, err := c.Send(ctx, transport.Outbound{ChatID: 1, Content: models.Photo{FileID: "ph"}, Text: "caption"})
	require.NoError(t, err)
	_, err = c.Send(ctx, transport.Outbound{ChatID: 1, Content: models.Video{FileID: "vid"}, Text: "v"})
	require.NoError(t, err)
	longCaption := strings.Repeat("&amp;", 900) + "<code>#AB12CD34</code>"
	_, err = c.Send(ctx, transport.Outbound{ChatID: 1, Content: models.Document{FileID: "doc", FileName: "a.pdf"}, Text: longCaption})
	require.NoError(t, err)

	photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "caption", photo.Caption)
	assert.Equal(t, tgbotapi.ModeHTML, photo.ParseMode)

	_, ok = api.sent[1].(tgbotapi.VideoConfig)
	assert.True(t, ok)

	doc, ok := api.sent[2].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, longCaption, doc.Caption, "markup is never cut")
}

func TestClientSend_Menus(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, nil)
	ctx := context.Background()

	out := transport.NewText(1, "welcome")
	out.Menu = [][]string{{"Write"}, {"Help"}}
	_, err := c.Send(ctx, out)
	require.NoError(t, err)

	out = transport.NewText(1, "prompt")
	out.RemoveMenu = true
	_, err = c.Send(ctx, out)
	require.NoError(t, err)

	kb, ok := api.sent[0].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, kb.ResizeKeyboard)
	require.Len(t, kb.Keyboard, 2)
	assert.Equal(t, "Help", kb.Keyboard[1][0].Text)

	_, ok = api.sent[1].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
	assert.True(t, ok)
}

func TestClientSend_ErrorIsTransport(t *testing.T) {
	api := &fakeAPI{sendErr: errBadRequest}
	c := NewClient(api, nil)

	_, err := c.Send(context.Background(), transport.NewText(1, "hi"))
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.ErrorIs(t, err, errBadRequest)

	err = c.AnswerCallback(context.Background(), "cb", "ok")
	assert.ErrorIs(t, err, models.ErrTransport)
}

func TestClientAnswerCallback(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, nil)

	require.NoError(t, c.AnswerCallback(context.Background(), "cb-1", "Marked as done!"))
	require.Len(t, api.requests, 1)
	cb, ok := api.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb-1", cb.CallbackQueryID)
	assert.Equal(t, "Marked as done!", cb.Text)
}

func newForwardingEngine(t *testing.T, api *fakeAPI, anonID string) *relay.Engine {
	t.Helper()
	loc, err := localization.NewLocalizer()
	require.NoError(t, err)

	store := new(testutil.MockStorage)
	store.On("IsBanned", mock.Anything, int64(111)).Return(false, nil)
	store.On("UpsertUser", mock.Anything, mock.Anything).Return(nil)
	store.On("RecordMessage", mock.Anything, int64(111), anonID, mock.Anything).Return(uint(1), nil)

	return relay.NewEngine(store, &testutil.SequenceIDs{IDs: []string{anonID, anonID}}, NewClient(api, nil), loc, relay.Options{
		AdminID:       984209612,
		AdminLanguage: "en",
	})
}

func TestForward_LongTextKeepsAnonID(t *testing.T) {
	api := &fakeAPI{}
	e := newForwardingEngine(t, api, "AB12CD34")
	sender := models.Sender{ID: 111, FirstName: "Ann & <Co>"}

	for _, body := range []string{strings.Repeat("a", 3990), strings.Repeat("<&>", 4000)} {
		api.sent = nil
		_, err := e.Submit(context.Background(), sender, models.Text{Body: body})
		require.NoError(t, err)

		require.Len(t, api.sent, 1)
		msg, ok := api.sent[0].(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Contains(t, msg.Text, "<code>#AB12CD34</code>")
		assert.NoError(t, testutil.CheckHTML(msg.Text))
		assert.LessOrEqual(t, testutil.VisibleLength(msg.Text), config.MaxTextLength)
	}
}

func TestForward_LongCaptionKeepsAnonID(t *testing.T) {
	api := &fakeAPI{}
	e := newForwardingEngine(t, api, "PH0T0000")

	_, err := e.Submit(context.Background(), models.Sender{ID: 111}, models.Photo{FileID: "ph", Caption: strings.Repeat("&", 1500)})
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Contains(t, photo.Caption, "<code>#PH0T0000</code>")
	assert.NoError(t, testutil.CheckHTML(photo.Caption))
	assert.LessOrEqual(t, testutil.VisibleLength(photo.Caption), config.MaxCaptionLength)
	assert.True(t, strings.HasSuffix(photo.Caption, "&amp;…"))
}
