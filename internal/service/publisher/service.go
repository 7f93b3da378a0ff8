package publisher

import (
	"context"
	"errors"
	"strings"

	apperrors "contest-bot-backend/internal/common/errors"
	"contest-bot-backend/internal/common/logger"
	"contest-bot-backend/internal/common/validation"
	"contest-bot-backend/internal/domain/contest"
	"contest-bot-backend/internal/metrics"
	tg "contest-bot-backend/internal/platform/telegram"
)

const closingLine = "Tap the button below to take part!"

// Sender posts messages to Telegram.
type Sender interface {
	SendMessage(ctx context.Context, params tg.SendMessageParams) (*tg.Response, error)
	SendPhoto(ctx context.Context, params tg.SendPhotoParams) (*tg.Response, error)
}

// Publisher is the subset of the contest store the service writes to.
type Publisher interface {
	MarkPublished(ctx context.Context, contestID string, coords contest.MessageCoordinates) error
}

// Request is the contest content to post.
type Request struct {
	ContestID       string
	Title           string
	Description     string
	Prize           string
	ImageURL        string
	ButtonText      string
	ButtonURL       string
	TargetChannelID string
}

// Validate checks the required text fields and that the rendered post fits
// the Telegram limit for its kind.
func (r Request) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"title", r.Title},
		{"description", r.Description},
		{"prize", r.Prize},
	} {
		if err := validation.Required(f.value); err != nil {
			return apperrors.NewValidationError(f.name, err.Error())
		}
	}

	limit := validation.MaxMessageLength
	if strings.TrimSpace(r.ImageURL) != "" {
		limit = validation.MaxCaptionLength
	}
	if err := validation.MaxTelegramLength(plainText(r), limit); err != nil {
		return apperrors.NewValidationError("description", "rendered post "+err.Error())
	}
	return nil
}

// Result describes a successful post.
type Result struct {
	TelegramResponse *tg.Response
	Coordinates      *contest.MessageCoordinates
	// Persisted is set when coordinates were recorded on the contest.
	Persisted     bool
	PersistReason string
}

// Service renders contests into channel posts. Each Publish makes exactly
// one Telegram call.
type Service struct {
	bot            Sender
	store          Publisher
	defaultChannel string
}

// NewService creates the publisher. store may be nil, in which case
// coordinates are only returned.
func NewService(bot Sender, store Publisher, defaultChannel string) *Service {
	return &Service{bot: bot, store: store, defaultChannel: strings.TrimSpace(defaultChannel)}
}

func (s *Service) Publish(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	channel := strings.TrimSpace(req.TargetChannelID)
	if channel == "" {
		channel = s.defaultChannel
	}
	if channel == "" {
		return nil, apperrors.NewBadRequestError("Telegram channel not configured").
			WithDetail("field", "targetChannelId")
	}

	text := RenderText(req)
	markup := buildKeyboard(req.ButtonText, req.ButtonURL)

	var (
		resp   *tg.Response
		err    error
		method string
	)
	if imageURL := strings.TrimSpace(req.ImageURL); imageURL != "" {
		method = "sendPhoto"
		resp, err = s.bot.SendPhoto(ctx, tg.SendPhotoParams{
			ChatID:      channel,
			Photo:       imageURL,
			Caption:     text,
			ParseMode:   "HTML",
			ReplyMarkup: markup,
		})
	} else {
		method = "sendMessage"
		resp, err = s.bot.SendMessage(ctx, tg.SendMessageParams{
			ChatID:      channel,
			Text:        text,
			ParseMode:   "HTML",
			ReplyMarkup: markup,
		})
	}
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Str("method", method).Msg("Failed to publish contest")
		if apiErr, ok := tg.AsAPIError(err); ok {
			return nil, apperrors.NewTelegramAPIError(method, apiErr.StatusCode, apiErr.Description, err)
		}
		return nil, apperrors.NewTelegramAPIError(method, 0, "Telegram request failed", err)
	}
	metrics.PublishedContests.Inc()

	result := &Result{TelegramResponse: resp}
	if msg, err := tg.DecodeMessage(resp); err == nil {
		result.Coordinates = &contest.MessageCoordinates{ChatID: msg.Chat.ID, MessageID: int64(msg.MessageID)}
	} else {
		logger.Warn().Err(err).Msg("Published contest without readable message coordinates")
	}

	s.persist(ctx, req.ContestID, result)
	return result, nil
}

// persist records coordinates once. The post already exists at this point,
// so failures are reported in the result rather than as errors.
func (s *Service) persist(ctx context.Context, contestID string, result *Result) {
	contestID = strings.TrimSpace(contestID)
	if contestID == "" || s.store == nil {
		return
	}
	if result.Coordinates == nil {
		result.PersistReason = "message coordinates unavailable"
		return
	}

	err := s.store.MarkPublished(ctx, contestID, *result.Coordinates)
	switch {
	case err == nil:
		result.Persisted = true
	case errors.Is(err, contest.ErrAlreadyPublished):
		result.PersistReason = "contest already published, coordinates unchanged"
	case errors.Is(err, contest.ErrContestNotFound):
		result.PersistReason = "contest not found"
	default:
		logger.Error().Err(err).Str("contest_id", contestID).Msg("Failed to record contest coordinates")
		result.PersistReason = "failed to record coordinates"
	}
}

// RenderText builds the HTML post body.
func RenderText(req Request) string {
	return render(req, func(s string) string { return "<b>" + s + "</b>" }, escapeHTML)
}

// plainText is the post as Telegram displays it, used for length limits.
func plainText(req Request) string {
	same := func(s string) string { return s }
	return render(req, same, same)
}

func render(req Request, bold, escape func(string) string) string {
	var b strings.Builder
	b.WriteString(bold(escape(strings.TrimSpace(req.Title))) + "\n\n")
	b.WriteString(escape(strings.TrimSpace(req.Description)) + "\n\n")
	b.WriteString(bold("🎁 Prize: "+escape(strings.TrimSpace(req.Prize))) + "\n\n")
	b.WriteString(closingLine)
	return b.String()
}

func buildKeyboard(text, url string) interface{} {
	text, url = strings.TrimSpace(text), strings.TrimSpace(url)
	if text == "" || url == "" {
		return nil
	}
	return tg.URLButtonKeyboard(text, url)
}

func escapeHTML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
