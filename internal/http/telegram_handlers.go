package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "contest-bot-backend/internal/common/errors"
	"contest-bot-backend/internal/common/logger"
	"contest-bot-backend/internal/common/middleware"
	"contest-bot-backend/internal/config"
	"contest-bot-backend/internal/metrics"
	"contest-bot-backend/internal/service/webhook"
)

const noActionMessage = "Update received, no action taken"

type TelegramHandlers struct {
	cfg    *config.Config
	router *webhook.Router
}

func NewTelegramHandlers(deps Deps) *TelegramHandlers {
	return &TelegramHandlers{cfg: deps.Config, router: deps.Webhook}
}

func (h *TelegramHandlers) Register(r *gin.RouterGroup) {
	r.POST("/telegram/webhook",
		middleware.RequireSettings(
			middleware.Setting{Name: "BOT_TOKEN", Value: h.cfg.Telegram.BotToken},
			middleware.Setting{Name: "PROJECT_DOMAIN", Value: h.cfg.WebAppHost()},
		),
		h.webhook,
	)
}

// WebhookResponse is returned for a routed deep link.
type WebhookResponse struct {
	Success     bool `json:"success"`
	MessageSent bool `json:"message_sent"`
}

// webhook godoc
// @Summary Telegram bot webhook
// @Description Answers "/start contest_<id>" with a Mini App button. Every other update is acknowledged without action. Send failures are logged and still acknowledged with 200.
// @Tags telegram
// @Accept json
// @Produce json
// @Param X-Telegram-Bot-Api-Secret-Token header string false "Webhook secret token"
// @Param update body object true "Telegram Update"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} middleware.ErrorResponse "Malformed update"
// @Failure 500 {object} middleware.ErrorResponse "Server configuration error"
// @Router /telegram/webhook [post]
func (h *TelegramHandlers) webhook(c *gin.Context) {
	if !h.router.Authentic(c.GetHeader("X-Telegram-Bot-Api-Secret-Token")) {
		logger.Warn().Str("client_ip", c.ClientIP()).Msg("Ignored webhook update with bad secret token")
		metrics.WebhookUpdates.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusOK, gin.H{"message": noActionMessage})
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		middleware.Abort(c, apperrors.NewBadRequestError("Invalid JSON body"))
		return
	}

	result := h.router.Route(c.Request.Context(), &update)
	if !result.Matched {
		c.JSON(http.StatusOK, gin.H{"message": noActionMessage})
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{Success: true, MessageSent: result.MessageSent})
}
