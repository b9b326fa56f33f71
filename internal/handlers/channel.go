package handlers

import (
	"context"
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// SecretHeader carries the secret set with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBody bounds a single webhook update.
const maxUpdateBody = 1 << 20

type Dispatcher interface {
	DispatchWebhook(ctx context.Context, body []byte) error
}

// WebhookHandler accepts Telegram updates and processes them in the background.
type WebhookHandler struct {
	dispatcher Dispatcher
	secret     string
	timeout    time.Duration
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func NewWebhookHandler(log *slog.Logger, dispatcher Dispatcher, secret string, timeout time.Duration) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &WebhookHandler{
		dispatcher: dispatcher,
		secret:     secret,
		timeout:    timeout,
		logger:     log.With(slog.String("handler", "webhook")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/", h.Health)
	group := e.Group("/bot")
	group.POST("/webhook", h.Webhook)
}

// Health godoc
// @Summary Liveness probe
// @Tags system
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *WebhookHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Webhook godoc
// @Summary Receive a Telegram update
// @Description Acknowledges at once. The update is handled after the response.
// @Tags telegram
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /bot/webhook [post]
func (h *WebhookHandler) Webhook(c echo.Context) error {
	if h.secret != "" {
		got := c.Request().Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid secret token")
		}
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUpdateBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := context.WithoutCancel(c.Request().Context())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()
		if err := h.dispatcher.DispatchWebhook(ctx, body); err != nil {
			h.logger.Error("dispatch update failed", slog.Any("error", err))
		}
	}()
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Wait blocks until every accepted update has been handled.
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}

type ErrorResponse struct {
	Message string `json:"message"`
}
