package webhook

import (
	"context"
	"errors"
	"net/url"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "contest-bot-backend/internal/platform/telegram"
)

type fakeSender struct {
	sent []tg.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, p tg.SendMessageParams) (*tg.Response, error) {
	f.sent = append(f.sent, p)
	if f.err != nil {
		return nil, f.err
	}
	return &tg.Response{Ok: true}, nil
}

func updateWithText(text string) *tgbotapi.Update {
	return &tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: 555, Type: "private"},
			Text:      text,
		},
	}
}

func TestRoute_ContestDeepLink(t *testing.T) {
	bot := &fakeSender{}
	router := NewRouter(bot, "app.example.com", "")

	result := router.Route(context.Background(), updateWithText("/start contest_42"))
	assert.Equal(t, Result{Matched: true, ContestID: "42", MessageSent: true}, result)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, "555", bot.sent[0].ChatID)

	keyboard, ok := bot.sent[0].ReplyMarkup.(tg.WebAppKeyboard)
	require.True(t, ok)
	link, err := url.Parse(keyboard.InlineKeyboard[0][0].WebApp.URL)
	require.NoError(t, err)
	assert.Equal(t, "https", link.Scheme)
	assert.Equal(t, "app.example.com", link.Host)
	assert.Equal(t, "/telegram-webapp/contest-participation", link.Path)
	assert.Equal(t, "42", link.Query().Get("contestId"))
}

func TestRoute_NoAction(t *testing.T) {
	for _, text := range []string{"/start foo", "/start", "/start ", "/start contest_", "/start contest_1 2", "hello /start contest_1", "/startcontest_1"} {
		bot := &fakeSender{}
		router := NewRouter(bot, "app.example.com", "")

		result := router.Route(context.Background(), updateWithText(text))
		assert.False(t, result.Matched, text)
		assert.Empty(t, bot.sent, text)
	}
}

func TestRoute_NonMessageUpdate(t *testing.T) {
	bot := &fakeSender{}
	router := NewRouter(bot, "app.example.com", "")

	assert.Equal(t, Result{}, router.Route(context.Background(), &tgbotapi.Update{UpdateID: 2}))
	assert.Empty(t, bot.sent)
}

func TestRoute_SendFailureIsSwallowed(t *testing.T) {
	bot := &fakeSender{err: errors.New("Forbidden: bot was blocked by the user")}
	router := NewRouter(bot, "app.example.com", "")

	result := router.Route(context.Background(), updateWithText("/start contest_abc"))
	assert.True(t, result.Matched)
	assert.False(t, result.MessageSent)
}

func TestParticipationURL_EscapesID(t *testing.T) {
	assert.Equal(t,
		"https://app.example.com/telegram-webapp/contest-participation?contestId=a%26b%3Dc",
		ParticipationURL("app.example.com", "a&b=c"))
}

func TestAuthentic(t *testing.T) {
	assert.True(t, NewRouter(nil, "h", "").Authentic(""))

	router := NewRouter(nil, "h", "s3cret")
	assert.True(t, router.Authentic("s3cret"))
	assert.False(t, router.Authentic(""))
	assert.False(t, router.Authentic("other"))
}
