// Package api is the HTTP surface: the review webhook, the Telegram
// linking webhook, health, and metrics.
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/omarsaleem/taqyeem/internal/api/handlers"
	"github.com/omarsaleem/taqyeem/internal/config"
	"github.com/omarsaleem/taqyeem/internal/db"
	"github.com/omarsaleem/taqyeem/internal/lang"
	"github.com/omarsaleem/taqyeem/internal/notify"
	"github.com/omarsaleem/taqyeem/internal/pipeline"
)

type Server struct {
	echo   *echo.Echo
	config *config.Config
}

type payloadValidator struct {
	validate *validator.Validate
}

func (v *payloadValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

func NewServer(cfg *config.Config, queries *db.Queries, pipe *pipeline.Pipeline, telegram *notify.TelegramClient, res *lang.Resources, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &payloadValidator{validate: validator.New()}

	// Middleware
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:   e,
		config: cfg,
	}

	// A nil *TelegramClient must stay a nil interface inside the handlers.
	var chat handlers.ChatSender
	if telegram != nil {
		chat = telegram
	}
	h := handlers.NewHandlers(cfg, queries, pipe, chat, res, logger)
	s.setupRoutes(h)
	return s
}

func (s *Server) setupRoutes(h *handlers.Handlers) {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/webhook", h.HandleWebhook, VerifySignature(s.config.Webhook.SigningSecret))
	s.echo.POST("/webhook/telegram", h.HandleTelegramWebhook)
}

// requestLogger bridges Echo's request logging to the zerolog root logger.
func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

func (s *Server) Start(ctx context.Context) error {
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	// Write timeout must outlast a worst-case chat completion.
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout

	addr := ":" + s.config.Server.Port
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
