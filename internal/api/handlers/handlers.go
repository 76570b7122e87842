package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/omarsaleem/taqyeem/internal/config"
	"github.com/omarsaleem/taqyeem/internal/lang"
	"github.com/omarsaleem/taqyeem/internal/models"
	"github.com/omarsaleem/taqyeem/internal/pipeline"
)

// ReviewPipeline is what the webhook handler drives.
type ReviewPipeline interface {
	Process(ctx context.Context, payload pipeline.WebhookPayload) (*pipeline.Outcome, error)
}

// ShopLinker binds a Telegram chat to a shop.
type ShopLinker interface {
	LinkTelegramChat(ctx context.Context, shopID uuid.UUID, chatID string) error
}

// ChatSender delivers the linking confirmation. May be nil when no bot
// token is configured.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

type Handlers struct {
	config   *config.Config
	linker   ShopLinker
	pipeline ReviewPipeline
	telegram ChatSender
	res      *lang.Resources
	logger   zerolog.Logger
}

func NewHandlers(cfg *config.Config, linker ShopLinker, pipe ReviewPipeline, telegram ChatSender, res *lang.Resources, logger zerolog.Logger) *Handlers {
	return &Handlers{
		config:   cfg,
		linker:   linker,
		pipeline: pipe,
		telegram: telegram,
		res:      res,
		logger:   logger.With().Str("component", "handlers").Logger(),
	}
}

// HandleWebhook runs one review through the pipeline. Rejections are
// successful outcomes and return 200; only malformed input, unknown shops,
// duplicates, and persistence failures are errors.
func (h *Handlers) HandleWebhook(c echo.Context) error {
	var payload pipeline.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payload")
	}
	if err := c.Validate(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payload: missing fields")
	}

	outcome, err := h.pipeline.Process(c.Request().Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMalformedPayload):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrShopNotFound):
			return echo.NewHTTPError(http.StatusBadRequest, "shop not found")
		case errors.Is(err, models.ErrDuplicateReview):
			return echo.NewHTTPError(http.StatusBadRequest, "duplicate review")
		default:
			h.logger.Error().Err(err).Msg("pipeline failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to process review")
		}
	}

	if outcome.Status == models.StatusProcessed {
		return c.JSON(http.StatusOK, map[string]any{
			"status":    outcome.Status,
			"review_id": outcome.ReviewID,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": outcome.Status,
		"reason": outcome.Reason,
	})
}

// telegramUpdate is the slice of a Telegram Bot API update the linking
// flow needs.
type telegramUpdate struct {
	Message struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// HandleTelegramWebhook links a Telegram chat to a shop on
// "/start <shop_id>". It always answers 200 so the bot platform stops
// re-delivering; linking problems are logged only.
func (h *Handlers) HandleTelegramWebhook(c echo.Context) error {
	var update telegramUpdate
	if err := c.Bind(&update); err != nil {
		h.logger.Warn().Err(err).Msg("unparseable telegram update")
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	}

	h.linkChat(c, update)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) linkChat(c echo.Context, update telegramUpdate) {
	text := strings.TrimSpace(update.Message.Text)
	if !strings.HasPrefix(text, "/start ") || update.Message.Chat.ID == 0 {
		return
	}

	shopID, err := uuid.Parse(strings.TrimSpace(strings.TrimPrefix(text, "/start ")))
	if err != nil {
		h.logger.Warn().Str("text", text).Msg("telegram /start with invalid shop id")
		return
	}

	ctx := c.Request().Context()
	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
	if err := h.linker.LinkTelegramChat(ctx, shopID, chatID); err != nil {
		h.logger.Warn().Err(err).Str("shop_id", shopID.String()).Msg("telegram linking failed")
		return
	}
	h.logger.Info().Str("shop_id", shopID.String()).Str("chat_id", chatID).Msg("telegram chat linked")

	if h.telegram != nil {
		if err := h.telegram.SendMessage(ctx, chatID, h.res.Telegram.LinkSuccess); err != nil {
			h.logger.Warn().Err(err).Msg("link confirmation failed")
		}
	}
}
