package http

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/duty-bot/internal/application"
	"github.com/example/duty-bot/internal/bot"
	"github.com/example/duty-bot/internal/metrics"
	"github.com/example/duty-bot/internal/vk"
)

// maxCallbackBody caps the size of a Callback API delivery.
const maxCallbackBody = 64 << 10

type messageHandler interface {
	HandleMessage(ctx context.Context, in bot.Incoming) error
}

// CallbackConfig describes the community a CallbackHandler serves.
type CallbackConfig struct {
	GroupID           int64
	Secret            string
	ConfirmationToken string
}

// CallbackHandler receives VK Callback API events.
type CallbackHandler struct {
	cfg       CallbackConfig
	bot       messageHandler
	responder responder
	logger    *slog.Logger
}

// NewCallbackHandler constructs a callback handler that passes new messages
// to handler.
func NewCallbackHandler(cfg CallbackConfig, handler messageHandler, logger *slog.Logger) *CallbackHandler {
	base := defaultLogger(logger)
	return &CallbackHandler{cfg: cfg, bot: handler, responder: newResponder(base), logger: base}
}

func (h *CallbackHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CallbackHandler", operation, attrs...)
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bot == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBody))
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	event, err := vk.DecodeEvent(body)
	if err != nil {
		h.log(ctx, "ServeHTTP", "error_kind", "bad_request").WarnContext(ctx, "failed to decode callback event", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	metrics.WebhookEvents.WithLabelValues(event.Type).Inc()
	logger := h.log(ctx, "ServeHTTP", "event_type", event.Type, "group_id", event.GroupID)

	if event.Type == vk.EventConfirmation && event.GroupID == h.cfg.GroupID {
		logger.InfoContext(ctx, "confirmation requested")
		h.responder.writeText(ctx, w, http.StatusOK, h.cfg.ConfirmationToken)
		return
	}
	if subtle.ConstantTimeCompare([]byte(event.Secret), []byte(h.cfg.Secret)) != 1 {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errInvalidSecret)
		return
	}

	if event.Type == vk.EventMessageNew {
		msg, err := event.NewMessage()
		if err != nil {
			logger.WarnContext(ctx, "failed to decode message", "error", err)
			h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		if err := h.bot.HandleMessage(ctx, incomingFrom(msg)); err != nil {
			logger.ErrorContext(ctx, "message handling failed", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
			return
		}
	}
	h.responder.writeText(ctx, w, http.StatusOK, "ok")
}

func incomingFrom(msg vk.Message) bot.Incoming {
	return bot.Incoming{
		PeerID:  msg.PeerID,
		FromID:  msg.FromID,
		Text:    msg.Text,
		Payload: msg.Payload,
		Invited: msg.Action != nil && msg.Action.Type == vk.ActionChatInviteUser,
	}
}
