// Package notify delivers processed-review notifications to shop owners.
// Delivery is at-most-once and best-effort: failures are logged and
// swallowed, never propagated to the webhook caller.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/omarsaleem/taqyeem/internal/lang"
	"github.com/omarsaleem/taqyeem/internal/models"
)

// PushSender delivers a push notification to a device token.
type PushSender interface {
	SendPush(ctx context.Context, token, title, body string) error
}

// ChatSender delivers a Markdown message to a chat.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Notifier selects one channel per shop: push when a token is registered,
// chat when a Telegram chat is linked, otherwise nothing.
type Notifier struct {
	push   PushSender
	chat   ChatSender
	res    *lang.Resources
	logger zerolog.Logger
}

func New(push PushSender, chat ChatSender, res *lang.Resources, logger zerolog.Logger) *Notifier {
	return &Notifier{
		push:   push,
		chat:   chat,
		res:    res,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

func (n *Notifier) NotifyProcessed(ctx context.Context, shop *models.Shop, doc *models.ReviewDocument) {
	logger := n.logger.With().Str("shop_id", shop.ID.String()).Str("review_id", doc.ID.String()).Logger()

	switch {
	case n.push != nil && shop.PushToken != "":
		title, body := BuildPushContent(n.res, shop, doc)
		if err := n.push.SendPush(ctx, shop.PushToken, title, body); err != nil {
			logger.Warn().Err(err).Msg("push notification failed")
			sendsTotal.WithLabelValues("push", "error").Inc()
			return
		}
		sendsTotal.WithLabelValues("push", "ok").Inc()

	case n.chat != nil && shop.TelegramChatID != "":
		message := BuildReviewMessage(n.res, shop, doc)
		if err := n.chat.SendMessage(ctx, shop.TelegramChatID, message); err != nil {
			logger.Warn().Err(err).Msg("chat notification failed")
			sendsTotal.WithLabelValues("chat", "error").Inc()
			return
		}
		sendsTotal.WithLabelValues("chat", "ok").Inc()

	default:
		logger.Debug().Msg("no notification channel configured for shop")
		sendsTotal.WithLabelValues("none", "skipped").Inc()
	}
}
