package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "contest-bot-backend/internal/common/errors"
	"contest-bot-backend/internal/common/middleware"
	"contest-bot-backend/internal/config"
	mw "contest-bot-backend/internal/http/middleware"
	tg "contest-bot-backend/internal/platform/telegram"
	"contest-bot-backend/internal/service/countsync"
	"contest-bot-backend/internal/service/membership"
	"contest-bot-backend/internal/service/publisher"
)

type ContestHandlers struct {
	cfg       *config.Config
	admins    middleware.AdminChecker
	publisher *publisher.Service
	verifier  *membership.Verifier
	sync      *countsync.Service
}

func NewContestHandlers(deps Deps) *ContestHandlers {
	return &ContestHandlers{
		cfg:       deps.Config,
		admins:    deps.Authorizer,
		publisher: deps.Publisher,
		verifier:  deps.Verifier,
		sync:      deps.Sync,
	}
}

func (h *ContestHandlers) Register(r *gin.RouterGroup) {
	botToken := middleware.Setting{Name: "BOT_TOKEN", Value: h.cfg.Telegram.BotToken}

	contests := r.Group("/contests")
	{
		contests.POST("/publish",
			middleware.RequireSettings(
				botToken,
				middleware.Setting{Name: "IDENTITY_URL", Value: h.cfg.Identity.URL},
				middleware.Setting{Name: "IDENTITY_API_KEY", Value: h.cfg.Identity.APIKey},
			),
			middleware.RequireAdmin(h.admins),
			h.publish,
		)
		contests.POST("/conditions/verify", middleware.RequireSettings(botToken), mw.CaptureInitData(), h.verifyCondition)
		contests.POST("/sync", middleware.RequireSettings(botToken), h.syncCount)
	}
}

// PublishRequest is the contest content to post to a channel.
type PublishRequest struct {
	ContestID       string `json:"contestId,omitempty"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Prize           string `json:"prize"`
	ImageURL        string `json:"imageUrl,omitempty"`
	ButtonText      string `json:"buttonText,omitempty"`
	ButtonURL       string `json:"buttonUrl,omitempty"`
	TargetChannelID string `json:"targetChannelId,omitempty"`
}

// PublishResponse carries Telegram's answer and the new message coordinates.
type PublishResponse struct {
	Success          bool         `json:"success"`
	Message          string       `json:"message"`
	TelegramResponse *tg.Response `json:"telegramResponse"`
	ChatID           *int64       `json:"chatId,omitempty"`
	MessageID        *int64       `json:"messageId,omitempty"`
	Persisted        *bool        `json:"persisted,omitempty"`
	PersistReason    string       `json:"persistReason,omitempty"`
}

// publish godoc
// @Summary Publish a contest post
// @Description Posts contest content to a Telegram channel as a text message, or as a photo with caption when imageUrl is set. Admin only.
// @Tags contests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PublishRequest true "Contest content"
// @Success 200 {object} PublishResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid body or channel not configured"
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} middleware.ErrorResponse "Caller is not an administrator"
// @Failure 500 {object} middleware.ErrorResponse "Server configuration error"
// @Router /contests/publish [post]
func (h *ContestHandlers) publish(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, apperrors.NewBadRequestError("Invalid JSON body"))
		return
	}

	result, err := h.publisher.Publish(c.Request.Context(), publisher.Request{
		ContestID:       req.ContestID,
		Title:           req.Title,
		Description:     req.Description,
		Prize:           req.Prize,
		ImageURL:        req.ImageURL,
		ButtonText:      req.ButtonText,
		ButtonURL:       req.ButtonURL,
		TargetChannelID: req.TargetChannelID,
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	resp := PublishResponse{
		Success:          true,
		Message:          "Contest published to Telegram channel",
		TelegramResponse: result.TelegramResponse,
		PersistReason:    result.PersistReason,
	}
	if result.Coordinates != nil {
		resp.ChatID = &result.Coordinates.ChatID
		resp.MessageID = &result.Coordinates.MessageID
	}
	if strings.TrimSpace(req.ContestID) != "" {
		resp.Persisted = &result.Persisted
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyConditionRequest asks whether a user satisfies a membership condition.
type VerifyConditionRequest struct {
	ConditionType  string `json:"conditionType" example:"subscribe"`
	TargetLink     string `json:"targetLink" example:"https://t.me/channel"`
	TelegramUserID int64  `json:"telegramUserId" example:"123456789"`
}

type VerifyConditionResponse struct {
	Met bool `json:"met"`
}

// verifyCondition godoc
// @Summary Verify a membership condition
// @Description Checks a user's membership in a channel or group. Upstream failures yield met=false.
// @Tags contests
// @Accept json
// @Produce json
// @Param X-Telegram-Init-Data header string false "Mini App init data binding the request to a user"
// @Param request body VerifyConditionRequest true "Condition"
// @Success 200 {object} VerifyConditionResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 500 {object} middleware.ErrorResponse "Server configuration error"
// @Router /contests/conditions/verify [post]
func (h *ContestHandlers) verifyCondition(c *gin.Context) {
	var req VerifyConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, apperrors.NewBadRequestError("Invalid JSON body"))
		return
	}

	met, err := h.verifier.Verify(c.Request.Context(), membership.Request{
		ConditionType:  req.ConditionType,
		TargetLink:     req.TargetLink,
		TelegramUserID: req.TelegramUserID,
		InitData:       mw.InitData(c),
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, VerifyConditionResponse{Met: met})
}

// SyncRequest names the contest whose button to refresh.
type SyncRequest struct {
	ContestID string `json:"contest_id"`
}

type SyncResponse struct {
	Success          bool   `json:"success"`
	ParticipantCount int64  `json:"participant_count"`
	ButtonText       string `json:"button_text,omitempty"`
	Message          string `json:"message,omitempty"`
}

// syncCount godoc
// @Summary Synchronize the participant count button
// @Description Rewrites the published message's button label to "<template> (<count>)". An unpublished contest answers success=false with 200.
// @Tags contests
// @Accept json
// @Produce json
// @Param request body SyncRequest true "Contest"
// @Success 200 {object} SyncResponse
// @Failure 400 {object} middleware.ErrorResponse "Missing contest_id or Telegram rejected the edit"
// @Failure 404 {object} middleware.ErrorResponse "Contest not found"
// @Failure 500 {object} middleware.ErrorResponse "Counting failure or configuration error"
// @Router /contests/sync [post]
func (h *ContestHandlers) syncCount(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, apperrors.NewBadRequestError("Invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.ContestID) == "" {
		middleware.Abort(c, apperrors.NewValidationError("contest_id", "is required"))
		return
	}

	result, err := h.sync.Sync(c.Request.Context(), req.ContestID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{
		Success:          result.Success,
		ParticipantCount: result.ParticipantCount,
		ButtonText:       result.ButtonText,
		Message:          result.Message,
	})
}
