package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/duty-bot/internal/logging"
)

var (
	errBadRequestBody   = errors.New("malformed callback body")
	errInvalidSecret    = errors.New("callback secret mismatch")
	errInvalidSignature = errors.New("invalid request signature")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

// writeText answers with a plain text body; the Callback API reads the raw body.
func (r responder) writeText(ctx context.Context, w http.ResponseWriter, status int, body string) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to write response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	if err != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		r.loggerFor(ctx).Log(ctx, level, "request failed", "status", status, "error", err)
	}
	r.writeText(ctx, w, status, http.StatusText(status))
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, r.logger)
}
