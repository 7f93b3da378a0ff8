package membership

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "contest-bot-backend/internal/common/errors"
	"contest-bot-backend/internal/common/logger"
	"contest-bot-backend/internal/metrics"
)

const (
	ConditionSubscribe = "subscribe"
	ConditionJoin      = "join"
)

// ChatMemberGetter looks up a user's membership in a chat.
type ChatMemberGetter interface {
	GetChatMember(ctx context.Context, chatID string, userID int64) (*tgbotapi.ChatMember, error)
}

// Request is one entry-condition check.
type Request struct {
	ConditionType  string
	TargetLink     string
	TelegramUserID int64
	// InitData is the raw Mini App init data the caller presented, if any.
	InitData string
}

// Validate checks required fields and returns a validation AppError.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.ConditionType) == "":
		return apperrors.NewValidationError("conditionType", "is required")
	case r.ConditionType != ConditionSubscribe && r.ConditionType != ConditionJoin:
		return apperrors.NewValidationError("conditionType", "must be 'subscribe' or 'join'")
	case strings.TrimSpace(r.TargetLink) == "":
		return apperrors.NewValidationError("targetLink", "is required")
	case r.TelegramUserID == 0:
		return apperrors.NewValidationError("telegramUserId", "is required")
	}
	if _, err := NormalizeTarget(r.TargetLink); err != nil {
		return apperrors.NewValidationError("targetLink", err.Error())
	}
	return nil
}

// Options tune Mini App init data binding.
type Options struct {
	BotToken        string
	RequireInitData bool
	InitDataTTL     time.Duration
}

// Verifier reduces Telegram chat membership to a met/unmet flag. Every
// upstream failure counts as unmet.
type Verifier struct {
	members ChatMemberGetter
	opts    Options
}

func NewVerifier(members ChatMemberGetter, opts Options) *Verifier {
	return &Verifier{members: members, opts: opts}
}

// Verify returns a validation error for a malformed request and otherwise
// never fails.
func (v *Verifier) Verify(ctx context.Context, req Request) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	target, _ := NormalizeTarget(req.TargetLink)

	if !v.initDataMatches(req) {
		metrics.ObserveMembershipCheck(false)
		return false, nil
	}

	member, err := v.members.GetChatMember(ctx, target, req.TelegramUserID)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("chat", target).
			Int64("user_id", req.TelegramUserID).
			Msg("Membership lookup failed, treating condition as unmet")
		metrics.ObserveMembershipCheck(false)
		return false, nil
	}

	met := member != nil && IsMemberStatus(member.Status)
	metrics.ObserveMembershipCheck(met)
	return met, nil
}

func (v *Verifier) initDataMatches(req Request) bool {
	if req.InitData == "" {
		return !v.opts.RequireInitData
	}
	if err := initdata.Validate(req.InitData, v.opts.BotToken, v.opts.InitDataTTL); err != nil {
		logger.Warn().Err(err).Msg("Rejected membership check with invalid init data")
		return false
	}
	parsed, err := initdata.Parse(req.InitData)
	if err != nil {
		logger.Warn().Err(err).Msg("Rejected membership check with unparseable init data")
		return false
	}
	if parsed.User.ID != req.TelegramUserID {
		logger.Warn().
			Int64("init_data_user", parsed.User.ID).
			Int64("user_id", req.TelegramUserID).
			Msg("Init data user does not match requested user")
		return false
	}
	return true
}

// IsMemberStatus reports whether a chat member status satisfies a
// subscribe or join condition.
func IsMemberStatus(status string) bool {
	switch status {
	case "member", "administrator", "creator":
		return true
	default:
		return false
	}
}

var errBadTarget = errors.New("must be an @username, a -100 chat id or a t.me link")

// NormalizeTarget turns a target reference into a chat id accepted by
// getChatMember: @username and -100 ids pass through, t.me links and bare
// names become @name.
func NormalizeTarget(link string) (string, error) {
	link = strings.TrimSpace(link)
	switch {
	case link == "":
		return "", errBadTarget
	case strings.HasPrefix(link, "@"):
		if len(link) == 1 {
			return "", errBadTarget
		}
		return link, nil
	case strings.HasPrefix(link, "-100"):
		return link, nil
	}

	if name, ok := nameFromLink(link); ok {
		return "@" + name, nil
	}
	if strings.ContainsAny(link, "/?# ") {
		return "", errBadTarget
	}
	return "@" + link, nil
}

func nameFromLink(link string) (string, bool) {
	raw := link
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "t.me" && host != "telegram.me" {
		return "", false
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if name == "" {
		return "", false
	}
	return name, true
}
