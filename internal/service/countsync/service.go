package countsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "contest-bot-backend/internal/common/errors"
	"contest-bot-backend/internal/common/logger"
	"contest-bot-backend/internal/domain/contest"
	"contest-bot-backend/internal/metrics"
	tg "contest-bot-backend/internal/platform/telegram"
)

// Store is the contest data read during a sync.
type Store interface {
	CountParticipants(ctx context.Context, contestID string) (int64, error)
	GetContest(ctx context.Context, id string) (*contest.Contest, error)
	ListPublished(ctx context.Context) ([]string, error)
}

// Editor edits the reply markup of a sent message.
type Editor interface {
	EditMessageReplyMarkup(ctx context.Context, params tg.EditReplyMarkupParams) (*tg.Response, error)
}

// Result of a single synchronization. Success is false for contests that
// are not published or lack a button template.
type Result struct {
	Success          bool
	ParticipantCount int64
	ButtonText       string
	Message          string
}

// Summary aggregates a SyncAll run.
type Summary struct {
	Total   int
	Updated int
	Skipped int
	Failed  int
}

// Service rewrites a contest's channel button to show the live
// participant count. Runs hold no state, so concurrent runs for the same
// contest resolve as last write wins.
type Service struct {
	store  Store
	editor Editor
}

func NewService(store Store, editor Editor) *Service {
	return &Service{store: store, editor: editor}
}

// ButtonLabel appends the count to the stored template.
func ButtonLabel(template string, count int64) string {
	return fmt.Sprintf("%s (%d)", template, count)
}

func (s *Service) Sync(ctx context.Context, contestID string) (*Result, error) {
	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return nil, apperrors.NewValidationError("contest_id", "is required")
	}

	count, err := s.store.CountParticipants(ctx, contestID)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, apperrors.NewDatabaseError("count participants", err)
	}

	c, err := s.store.GetContest(ctx, contestID)
	if errors.Is(err, contest.ErrContestNotFound) {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, apperrors.NewNotFoundError("Contest", contestID)
	}
	if err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, apperrors.NewDatabaseError("load contest", err)
	}

	if missing := c.MissingSyncFields(); len(missing) > 0 {
		metrics.SyncRuns.WithLabelValues("incomplete").Inc()
		return &Result{
			ParticipantCount: count,
			Message:          "Contest is not ready for synchronization, missing: " + strings.Join(missing, ", "),
		}, nil
	}

	label := ButtonLabel(c.ButtonText, count)
	_, err = s.editor.EditMessageReplyMarkup(ctx, tg.EditReplyMarkupParams{
		ChatID:      strconv.FormatInt(*c.TelegramChatID, 10),
		MessageID:   *c.TelegramMessageID,
		ReplyMarkup: tg.URLButtonKeyboard(label, c.ButtonURL),
	})
	if err != nil && !isNotModified(err) {
		metrics.SyncRuns.WithLabelValues("telegram_error").Inc()
		logger.Warn().Err(err).Str("contest_id", contestID).Msg("Failed to update contest button")
		if apiErr, ok := tg.AsAPIError(err); ok {
			return nil, apperrors.NewTelegramAPIError("editMessageReplyMarkup", apiErr.StatusCode, apiErr.Description, err)
		}
		return nil, apperrors.NewTelegramAPIError("editMessageReplyMarkup", 0, "Telegram request failed", err)
	}

	metrics.SyncRuns.WithLabelValues("updated").Inc()
	logger.Debug().Str("contest_id", contestID).Int64("count", count).Msg("Contest button synchronized")
	return &Result{Success: true, ParticipantCount: count, ButtonText: label}, nil
}

// SyncAll synchronizes every published contest. Per-contest failures are
// logged and counted; only a failure to list contests is returned.
func (s *Service) SyncAll(ctx context.Context) (Summary, error) {
	ids, err := s.store.ListPublished(ctx)
	if err != nil {
		return Summary{}, apperrors.NewDatabaseError("list published contests", err)
	}

	summary := Summary{Total: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		result, err := s.Sync(ctx, id)
		switch {
		case err != nil:
			summary.Failed++
			logger.Error().Err(err).Str("contest_id", id).Msg("Contest sync failed")
		case !result.Success:
			summary.Skipped++
			logger.Info().Str("contest_id", id).Msg(result.Message)
		default:
			summary.Updated++
		}
	}
	return summary, nil
}

// isNotModified matches Telegram's answer to an edit that changes nothing.
func isNotModified(err error) bool {
	apiErr, ok := tg.AsAPIError(err)
	return ok && strings.Contains(apiErr.Description, "message is not modified")
}
