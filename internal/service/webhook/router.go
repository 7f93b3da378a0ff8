package webhook

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"contest-bot-backend/internal/common/logger"
	"contest-bot-backend/internal/metrics"
	tg "contest-bot-backend/internal/platform/telegram"
)

const (
	startPrefix     = "/start "
	participatePath = "/telegram-webapp/contest-participation"

	welcomeText = "🎉 You are invited to a contest!\n\nOpen the app below to take part."
	buttonLabel = "🎁 Take part"
)

var contestPayload = regexp.MustCompile(`^contest_(\S+)$`)

// MessageSender sends a private message.
type MessageSender interface {
	SendMessage(ctx context.Context, params tg.SendMessageParams) (*tg.Response, error)
}

// Result is the routing outcome of one update.
type Result struct {
	Matched     bool
	ContestID   string
	MessageSent bool
}

// Router answers /start contest_<id> deep links with a Mini App button.
// It never returns an error: Telegram redelivers updates that are not
// acknowledged with 200.
type Router struct {
	bot        MessageSender
	webAppHost string
	secret     string
}

func NewRouter(bot MessageSender, webAppHost, secret string) *Router {
	return &Router{bot: bot, webAppHost: webAppHost, secret: secret}
}

// Authentic reports whether the secret token header matches the configured
// webhook secret. Without a configured secret every update is accepted.
func (r *Router) Authentic(header string) bool {
	if r.secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(r.secret)) == 1
}

func (r *Router) Route(ctx context.Context, update *tgbotapi.Update) Result {
	if update == nil || update.Message == nil || update.Message.Chat == nil {
		metrics.WebhookUpdates.WithLabelValues("ignored").Inc()
		return Result{}
	}

	contestID, ok := ParseContestID(update.Message.Text)
	if !ok {
		metrics.WebhookUpdates.WithLabelValues("ignored").Inc()
		return Result{}
	}

	chatID := update.Message.Chat.ID
	_, err := r.bot.SendMessage(ctx, tg.SendMessageParams{
		ChatID:      strconv.FormatInt(chatID, 10),
		Text:        welcomeText,
		ReplyMarkup: tg.WebAppButtonKeyboard(buttonLabel, ParticipationURL(r.webAppHost, contestID)),
	})
	if err != nil {
		logger.Error().
			Err(err).
			Int64("chat_id", chatID).
			Str("contest_id", contestID).
			Msg("Failed to send contest deep link")
		metrics.WebhookUpdates.WithLabelValues("send_failed").Inc()
		return Result{Matched: true, ContestID: contestID}
	}

	logger.Info().Int64("chat_id", chatID).Str("contest_id", contestID).Msg("Sent contest deep link")
	metrics.WebhookUpdates.WithLabelValues("routed").Inc()
	return Result{Matched: true, ContestID: contestID, MessageSent: true}
}

// ParseContestID extracts <id> from "/start contest_<id>".
func ParseContestID(text string) (string, bool) {
	if !strings.HasPrefix(text, startPrefix) {
		return "", false
	}
	m := contestPayload.FindStringSubmatch(text[len(startPrefix):])
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParticipationURL is the Mini App page for a contest.
func ParticipationURL(host, contestID string) string {
	return fmt.Sprintf("https://%s%s?contestId=%s", host, participatePath, url.QueryEscape(contestID))
}
